package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/erazemk/soporte/internal/model"
	"github.com/erazemk/soporte/internal/search"
)

// searchMsg carries a debounced ticket search result.
type searchMsg struct {
	result search.Result[model.Support]
}

// supportsScreen is the ticket list with a search box above it. While the
// query is long enough the list shows matches instead of the paged tickets.
type supportsScreen struct {
	*listScreen[model.Support]

	input     textinput.Model
	debouncer *search.Debouncer[model.Support]
	searching bool
}

func newSupportsScreen(inner *listScreen[model.Support], debouncer *search.Debouncer[model.Support]) *supportsScreen {
	in := newInput("Buscar soportes…")
	in.Prompt = "/ "
	return &supportsScreen{listScreen: inner, input: in, debouncer: debouncer}
}

func (s *supportsScreen) capturing() bool { return s.form != nil || s.input.Focused() }

func (s *supportsScreen) setSize(w, h int) {
	s.input.Width = max(w-4, 10)
	s.listScreen.setSize(w, max(h-2, 1))
}

func (s *supportsScreen) update(ctx context.Context, msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case searchMsg:
		if msg.result.Query != strings.TrimSpace(s.input.Value()) {
			return nil
		}
		if len([]rune(msg.result.Query)) < search.MinLength {
			s.searching = false
			s.refresh()
			return nil
		}
		if msg.result.Err != nil {
			return alertCmd(msg.result.Err)
		}
		s.searching = true
		s.setRows(msg.result.Items)
		s.list.Title = s.heading + " · búsqueda"
		return nil

	case pageMsg:
		if msg.id == s.key && s.searching {
			return nil
		}

	case savedMsg:
		if msg.id == s.key && msg.err == nil && s.searching {
			// Back to the full list, where the saved ticket is shown.
			s.searching = false
			s.input.Reset()
		}

	case tea.KeyMsg:
		if s.form != nil {
			return s.listScreen.update(ctx, msg)
		}
		if s.input.Focused() {
			switch msg.String() {
			case "esc", "enter":
				s.input.Blur()
				return nil
			}
			var cmd tea.Cmd
			before := s.input.Value()
			s.input, cmd = s.input.Update(msg)
			if s.input.Value() != before {
				s.debouncer.Type(strings.TrimSpace(s.input.Value()))
			}
			return cmd
		}
		switch msg.String() {
		case "/":
			return s.input.Focus()
		case "n", "e":
			return s.listScreen.update(ctx, msg)
		}
	}
	if s.searching {
		// Paging applies to the full list only.
		if _, ok := msg.(tea.KeyMsg); ok {
			var cmd tea.Cmd
			s.list, cmd = s.list.Update(msg)
			return cmd
		}
	}
	return s.listScreen.update(ctx, msg)
}

func (s *supportsScreen) view() string {
	return lipgloss.JoinVertical(lipgloss.Left, s.input.View(), "", s.listScreen.view())
}

func renderSupport(sup model.Support) (string, string) {
	title := "Soporte #" + itoa(sup.ID)
	if d, ok := sup.Latest(); ok && d.Subject != "" {
		title = d.Subject
	}

	var desc []string
	if sup.Client != nil && sup.Client.Names != "" {
		desc = append(desc, sup.Client.Names)
	}
	if sup.StatusGlobal != "" {
		desc = append(desc, sup.StatusGlobal)
	}
	if d, ok := sup.Latest(); ok {
		desc = append(desc, d.Priority)
	}
	return title, strings.Join(desc, " · ")
}
