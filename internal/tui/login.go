package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/erazemk/soporte/internal/client"
	"github.com/erazemk/soporte/internal/resource"
	"github.com/erazemk/soporte/internal/session"
	"github.com/erazemk/soporte/internal/shell"
)

// loginMsg reports the outcome of a sign-in attempt.
type loginMsg struct {
	err error
}

type loginForm struct {
	email    textinput.Model
	password textinput.Model
	focus    int
	busy     bool
	err      string
}

func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 255
	ti.Width = 32
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

func newLoginForm(remembered string) loginForm {
	f := loginForm{
		email:    newInput("correo@ejemplo.com"),
		password: newInput("contraseña"),
	}
	f.password.EchoMode = textinput.EchoPassword
	f.password.EchoCharacter = '•'
	f.email.SetValue(remembered)

	if remembered == "" {
		f.email.Focus()
	} else {
		f.focus = 1
		f.password.Focus()
	}
	return f
}

func (f *loginForm) cycle() {
	f.focus = (f.focus + 1) % 2
	if f.focus == 0 {
		f.password.Blur()
		f.email.Focus()
	} else {
		f.email.Blur()
		f.password.Focus()
	}
}

func (f *loginForm) update(ctx context.Context, msg tea.Msg, auth *resource.Auth, sess *session.Store) tea.Cmd {
	switch msg := msg.(type) {
	case loginMsg:
		f.busy = false
		if msg.err != nil {
			f.err = client.UserMessage(msg.err)
			return nil
		}
		f.err = ""
		f.password.SetValue("")
		return func() tea.Msg { return routeMsg{route: shell.ResolveState(sess.State())} }

	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			f.cycle()
			return nil
		case "enter":
			if f.busy {
				return nil
			}
			email := strings.TrimSpace(f.email.Value())
			password := f.password.Value()
			if email == "" || password == "" {
				f.err = "Ingrese correo y contraseña"
				return nil
			}
			f.busy = true
			f.err = ""
			return signIn(ctx, auth, sess, email, password)
		}
	}

	var cmd tea.Cmd
	if f.focus == 0 {
		f.email, cmd = f.email.Update(msg)
	} else {
		f.password, cmd = f.password.Update(msg)
	}
	return cmd
}

func signIn(ctx context.Context, auth *resource.Auth, sess *session.Store, email, password string) tea.Cmd {
	return func() tea.Msg {
		user, token, err := auth.Login(ctx, email, password)
		if err != nil {
			return loginMsg{err: err}
		}
		if err := sess.Login(ctx, user, token); err != nil {
			return loginMsg{err: err}
		}
		if err := sess.RememberEmail(ctx, email); err != nil {
			return loginMsg{err: err}
		}
		return loginMsg{}
	}
}

func (f loginForm) view(width, height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Iniciar sesión"))
	b.WriteString("\n\n")
	b.WriteString(f.email.View())
	b.WriteString("\n")
	b.WriteString(f.password.View())
	b.WriteString("\n\n")
	switch {
	case f.busy:
		b.WriteString(faintStyle.Render("Ingresando…"))
	case f.err != "":
		b.WriteString(errorStyle.Render(f.err))
	default:
		b.WriteString(faintStyle.Render("tab cambia de campo · enter ingresa"))
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, loginBox.Render(b.String()))
}
