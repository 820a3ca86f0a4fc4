package tui

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/erazemk/soporte/internal/form"
	"github.com/erazemk/soporte/internal/listview"
	"github.com/erazemk/soporte/internal/model"
	"github.com/erazemk/soporte/internal/shell"
)

// pageMsg reports that a load on screen id finished.
type pageMsg struct {
	id  string
	err error
}

// deletedMsg reports the outcome of a delete on screen id.
type deletedMsg struct {
	id  string
	err error
}

// navigateMsg asks the app to open a detail location.
type navigateMsg struct {
	to shell.Location
}

// screen is one list page inside the main route.
type screen interface {
	id() string
	title() string
	mount(ctx context.Context) tea.Cmd
	update(ctx context.Context, msg tea.Msg) tea.Cmd
	view() string
	setSize(w, h int)
	// capturing reports whether the screen wants raw key input.
	capturing() bool
}

type row[T model.Record] struct {
	rec         T
	title, desc string
}

func (r row[T]) Title() string       { return r.title }
func (r row[T]) Description() string { return r.desc }
func (r row[T]) FilterValue() string { return r.title }

// listScreen shows a paginated collection with incremental loading and
// confirmed deletes.
type listScreen[T model.Record] struct {
	key     string
	heading string
	ctrl    *listview.Controller[T]
	remove  func(ctx context.Context, id int64) error
	render  func(T) (string, string)
	open    func(T) (shell.Location, bool)

	// draft builds the dialog draft for rec, or for a new record when rec
	// is nil. Screens without one offer no dialog.
	draft func(rec *T) formDraft
	saver form.Saver[T]
	// opened runs when a dialog opens and may load its select options.
	opened func(ctx context.Context, f *editForm) tea.Cmd

	list    list.Model
	confirm int64
	form    *editForm
}

func newListScreen[T model.Record](key, heading string, ctrl *listview.Controller[T], remove func(context.Context, int64) error, render func(T) (string, string)) *listScreen[T] {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = heading
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Styles.Title = titleStyle
	return &listScreen[T]{key: key, heading: heading, ctrl: ctrl, remove: remove, render: render, list: l}
}

// withForms enables the create and edit dialogs.
func (s *listScreen[T]) withForms(saver form.Saver[T], draft func(*T) formDraft) *listScreen[T] {
	s.saver = saver
	s.draft = draft
	return s
}

func (s *listScreen[T]) id() string       { return s.key }
func (s *listScreen[T]) title() string    { return s.heading }
func (s *listScreen[T]) capturing() bool  { return s.form != nil }
func (s *listScreen[T]) setSize(w, h int) { s.list.SetSize(w, h) }

func (s *listScreen[T]) mount(ctx context.Context) tea.Cmd {
	s.refresh()
	return s.run(ctx, s.ctrl.Mount)
}

// run executes a controller call off the UI goroutine.
func (s *listScreen[T]) run(ctx context.Context, f func(context.Context) error) tea.Cmd {
	id := s.key
	return func() tea.Msg {
		return pageMsg{id: id, err: f(ctx)}
	}
}

func (s *listScreen[T]) refresh() {
	snap := s.ctrl.Snapshot()
	s.setRows(snap.Items)

	switch snap.State {
	case listview.Loading:
		s.list.Title = s.heading + " · cargando…"
	case listview.LoadingMore:
		s.list.Title = s.heading + " · cargando más…"
	default:
		s.list.Title = fmt.Sprintf("%s · %d", s.heading, len(snap.Items))
	}
}

func (s *listScreen[T]) setRows(recs []T) {
	items := make([]list.Item, 0, len(recs))
	for _, rec := range recs {
		title, desc := s.render(rec)
		items = append(items, row[T]{rec: rec, title: title, desc: desc})
	}
	s.list.SetItems(items)
}

func (s *listScreen[T]) selected() (T, bool) {
	r, ok := s.list.SelectedItem().(row[T])
	return r.rec, ok
}

// openForm shows the dialog for rec, or for a new record when rec is nil.
func (s *listScreen[T]) openForm(ctx context.Context, rec *T) tea.Cmd {
	if s.draft == nil {
		return nil
	}
	title := "Nuevo · " + s.heading
	if rec != nil {
		title = "Editar #" + itoa((*rec).Identifier()) + " · " + s.heading
	}
	s.form = newEditForm(title, s.draft(rec))
	cmds := []tea.Cmd{s.form.focusField(0)}
	if s.opened != nil {
		cmds = append(cmds, s.opened(ctx, s.form))
	}
	return tea.Batch(cmds...)
}

func (s *listScreen[T]) closeForm() {
	if s.form != nil {
		s.form.close()
		s.form = nil
	}
}

// submit saves the dialog. A new record goes to the top of the list and an
// edited one replaces its row; on failure the dialog stays open.
func (s *listScreen[T]) submit(ctx context.Context) tea.Cmd {
	f := s.form
	if err := f.apply(); err != nil {
		f.err = err.Error()
		return nil
	}
	f.busy = true
	f.err = ""

	key, ctrl, saver, draft := s.key, s.ctrl, s.saver, f.draft
	return func() tea.Msg {
		rec, created, err := form.Submit[T](ctx, saver, draft, form.OpenFile)
		if err != nil {
			return savedMsg{id: key, err: err}
		}
		if created {
			ctrl.Created(rec)
		} else if err := ctrl.Updated(ctx, rec); err != nil {
			// Saved; the controller already alerted the failed reload.
			slog.Debug("reload after update failed", "list", key, "error", err)
		}
		return savedMsg{id: key}
	}
}

func (s *listScreen[T]) updateForm(ctx context.Context, key tea.KeyMsg) tea.Cmd {
	submit, cancel, cmd := s.form.update(key)
	switch {
	case cancel:
		s.closeForm()
		return nil
	case submit:
		return s.submit(ctx)
	}
	return cmd
}

func (s *listScreen[T]) update(ctx context.Context, msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case savedMsg:
		if msg.id != s.key || s.form == nil {
			return nil
		}
		if msg.err != nil {
			s.form.busy = false
			s.form.err = formMessage(msg.err)
			return alertCmd(msg.err)
		}
		s.closeForm()
		s.refresh()
		return nil

	case choicesMsg:
		if msg.id != s.key || s.form == nil {
			return nil
		}
		if msg.err != nil {
			return alertCmd(msg.err)
		}
		s.form.setChoices(msg.choices)
		return nil

	case clientsMsg:
		if s.form == nil {
			return nil
		}
		return s.form.clientResult(msg.result)

	case pageMsg:
		if msg.id == s.key {
			s.refresh()
		}
		return nil

	case deletedMsg:
		if msg.id != s.key {
			return nil
		}
		if msg.err != nil {
			return alertCmd(msg.err)
		}
		return s.run(ctx, s.ctrl.Deleted)

	case tea.KeyMsg:
		if s.form != nil {
			return s.updateForm(ctx, msg)
		}
		if s.confirm != 0 {
			id := s.confirm
			s.confirm = 0
			if msg.String() != "y" && msg.String() != "s" {
				return nil
			}
			key := s.key
			return func() tea.Msg {
				return deletedMsg{id: key, err: s.remove(ctx, id)}
			}
		}

		switch msg.String() {
		case "d", "delete":
			if rec, ok := s.selected(); ok {
				s.confirm = rec.Identifier()
			}
			return nil
		case "r":
			return s.run(ctx, s.ctrl.Mount)
		case "n":
			return s.openForm(ctx, nil)
		case "e":
			if rec, ok := s.selected(); ok {
				return s.openForm(ctx, &rec)
			}
			return nil
		case "enter":
			if s.open == nil {
				return nil
			}
			if rec, ok := s.selected(); ok {
				if to, ok := s.open(rec); ok {
					return func() tea.Msg { return navigateMsg{to: to} }
				}
			}
			return nil
		}
	}

	var cmd tea.Cmd
	s.list, cmd = s.list.Update(msg)
	if _, ok := msg.(tea.KeyMsg); !ok {
		return cmd
	}
	return tea.Batch(cmd, s.maybeLoadMore(ctx))
}

// maybeLoadMore asks the controller for the next page when the cursor
// nears the end of what is loaded.
func (s *listScreen[T]) maybeLoadMore(ctx context.Context) tea.Cmd {
	if s.ctrl.State() != listview.Loaded {
		return nil
	}
	visibleEnd := s.list.Index() + 1
	return s.run(ctx, func(ctx context.Context) error {
		return s.ctrl.Scrolled(ctx, visibleEnd)
	})
}

func (s *listScreen[T]) view() string {
	if s.form != nil {
		return s.form.view()
	}
	v := s.list.View()
	if s.confirm != 0 {
		v += "\n" + errorStyle.Render(fmt.Sprintf("¿Eliminar el registro %d? (s/n)", s.confirm))
	}
	return v
}
