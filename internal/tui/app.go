// Package tui is the interactive terminal front end: a login screen and,
// once signed in, a drawer of paginated back-office lists.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/erazemk/soporte/internal/client"
	"github.com/erazemk/soporte/internal/form"
	"github.com/erazemk/soporte/internal/listview"
	"github.com/erazemk/soporte/internal/model"
	"github.com/erazemk/soporte/internal/resource"
	"github.com/erazemk/soporte/internal/search"
	"github.com/erazemk/soporte/internal/session"
	"github.com/erazemk/soporte/internal/shell"
)

// Deps are the services the terminal UI drives.
type Deps struct {
	Session *session.Store
	API     *client.Client
	// Cache persists the first page of each list between runs. Optional.
	Cache listview.PageCache
	// Debounce is the search delay; zero means search.DefaultDelay.
	Debounce time.Duration
}

type routeMsg struct {
	route shell.Route
}

type alertMsg struct {
	title, message string
}

// loggedOutMsg is sent once the session and caches have been cleared.
type loggedOutMsg struct{}

func alertCmd(err error) tea.Cmd {
	return func() tea.Msg {
		return alertMsg{title: "Error", message: client.UserMessage(err)}
	}
}

// alerts collects alerts raised by list controllers while a command runs
// so the next update can show them.
type alerts struct {
	mu      sync.Mutex
	pending []alertMsg
}

func (a *alerts) Alert(title, message string) {
	a.mu.Lock()
	a.pending = append(a.pending, alertMsg{title: title, message: message})
	a.mu.Unlock()
}

func (a *alerts) drain() []alertMsg {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.pending
	a.pending = nil
	return out
}

// App is the root bubbletea model.
type App struct {
	ctx  context.Context
	deps Deps
	auth *resource.Auth

	// send delivers messages from background goroutines. It is set once
	// the program exists.
	send func(tea.Msg)

	alerts *alerts
	status string

	width, height int
	route         shell.Route
	login         loginForm

	nav          *shell.Nav
	drawer       []shell.Entry
	drawerCursor int
	drawerFocus  bool
	screens      map[string]screen
	mounted      map[string]bool
}

// New builds the root model. The session is loaded by Init.
func New(ctx context.Context, deps Deps) *App {
	a := &App{
		ctx:    ctx,
		deps:   deps,
		auth:   resource.NewAuth(deps.API),
		send:   func(tea.Msg) {},
		alerts: &alerts{},
		route:  shell.RouteBlank,
		drawer: shell.Drawer(),
	}
	a.reset()
	return a
}

// reset drops all per-session screens.
func (a *App) reset() {
	a.nav = shell.NewNav()
	a.screens = make(map[string]screen)
	a.mounted = make(map[string]bool)
	a.drawerCursor = 0
	a.drawerFocus = false
}

// Run starts the terminal UI and blocks until the user quits.
func Run(ctx context.Context, deps Deps) error {
	app := New(ctx, deps)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	app.send = p.Send

	stop := shell.Watch(deps.Session, func(r shell.Route) {
		p.Send(routeMsg{route: r})
	})
	defer stop()

	_, err := p.Run()
	if err != nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}
	return nil
}

func (a *App) Init() tea.Cmd {
	sess := a.deps.Session
	ctx := a.ctx
	return func() tea.Msg {
		if err := sess.Load(ctx); err != nil {
			slog.Error("failed to load session", "error", err)
		}
		return routeMsg{route: shell.ResolveState(sess.State())}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := a.update(msg)
	for _, al := range a.alerts.drain() {
		a.status = al.title + ": " + al.message
	}
	return a, cmd
}

func (a *App) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		for _, s := range a.screens {
			s.setSize(a.contentSize())
		}
		return nil

	case routeMsg:
		return a.enter(msg.route)

	case alertMsg:
		a.status = msg.title + ": " + msg.message
		return nil

	case loggedOutMsg:
		return a.enter(shell.ResolveState(a.deps.Session.State()))

	case navigateMsg:
		a.nav.Push(msg.to)
		return a.show()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return tea.Quit
		}
	}

	switch a.route {
	case shell.RouteLogin:
		return a.login.update(a.ctx, msg, a.auth, a.deps.Session)
	case shell.RouteMain:
		return a.updateMain(msg)
	}
	return nil
}

// enter switches to route r, doing nothing if it is already active.
func (a *App) enter(r shell.Route) tea.Cmd {
	if r == a.route {
		return nil
	}
	a.route = r
	a.status = ""

	switch r {
	case shell.RouteLogin:
		a.reset()
		a.login = newLoginForm(a.deps.Session.RememberedEmail())
	case shell.RouteMain:
		a.reset()
		return a.show()
	}
	return nil
}

func (a *App) updateMain(msg tea.Msg) tea.Cmd {
	cur := a.current()

	if key, ok := msg.(tea.KeyMsg); ok && !(cur != nil && cur.capturing()) {
		switch key.String() {
		case "q":
			return tea.Quit
		case "tab":
			a.drawerFocus = !a.drawerFocus
			return nil
		case "esc":
			if a.nav.Back() {
				return a.show()
			}
			return nil
		}
		if a.drawerFocus {
			return a.updateDrawer(key)
		}
	}

	if _, ok := msg.(tea.KeyMsg); ok {
		if cur == nil {
			return nil
		}
		return cur.update(a.ctx, msg)
	}

	// Results go to every screen; each filters by its own id.
	var cmds []tea.Cmd
	for _, s := range a.screens {
		cmds = append(cmds, s.update(a.ctx, msg))
	}
	return tea.Batch(cmds...)
}

func (a *App) updateDrawer(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "up", "k":
		if a.drawerCursor > 0 {
			a.drawerCursor--
		}
	case "down", "j":
		if a.drawerCursor < len(a.drawer)-1 {
			a.drawerCursor++
		}
	case "enter":
		e := a.drawer[a.drawerCursor]
		if e.Logout {
			return a.logout()
		}
		a.nav.Select(e.Screen)
		a.drawerFocus = false
		return a.show()
	}
	return nil
}

// logout revokes the token on the server, then clears local state even if
// the server could not be reached.
func (a *App) logout() tea.Cmd {
	ctx, sess, auth, cache := a.ctx, a.deps.Session, a.auth, a.deps.Cache
	return func() tea.Msg {
		if err := auth.Logout(ctx); err != nil {
			slog.Warn("server logout failed", "error", err)
		}
		if err := sess.Logout(ctx); err != nil {
			slog.Error("failed to clear session", "error", err)
		}
		if c, ok := cache.(interface{ Clear(context.Context) error }); ok {
			if err := c.Clear(ctx); err != nil {
				slog.Warn("failed to clear page cache", "error", err)
			}
		}
		return loggedOutMsg{}
	}
}

// show makes the current location visible, mounting its screen on first
// display.
func (a *App) show() tea.Cmd {
	loc := a.nav.Current()
	key := locationKey(loc)

	s, ok := a.screens[key]
	if !ok {
		s = a.build(loc)
		if s == nil {
			return nil
		}
		s.setSize(a.contentSize())
		a.screens[key] = s
	}

	if a.mounted[key] {
		return nil
	}
	a.mounted[key] = true
	return s.mount(a.ctx)
}

func (a *App) current() screen {
	return a.screens[locationKey(a.nav.Current())]
}

func locationKey(l shell.Location) string {
	if l.Screen == shell.ScreenArticles {
		return string(l.Screen) + ":" + itoa(l.TransferID)
	}
	return string(l.Screen)
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func withCache[T model.Record](c *listview.Controller[T], cache listview.PageCache) *listview.Controller[T] {
	if cache != nil {
		c.UseCache(cache)
	}
	return c
}

func (a *App) build(loc shell.Location) screen {
	api := a.deps.API
	key := locationKey(loc)

	switch loc.Screen {
	case shell.ScreenUsers:
		svc := resource.Users(api)
		ctrl := withCache(listview.New[model.User](svc.Name(), svc, a.alerts), a.deps.Cache)
		return newListScreen(key, "Usuarios", ctrl, svc.Delete, renderUser).
			withForms(svc, func(u *model.User) formDraft { return recordDraft{Draft: form.NewUser(u)} })

	case shell.ScreenProducts:
		svc := resource.Products(api)
		ctrl := withCache(listview.New[model.Product](svc.Name(), svc, a.alerts), a.deps.Cache)
		states := map[string][]choice{"state": stringChoices(model.ProductStates)}
		return newListScreen(key, "Productos", ctrl, svc.Delete, renderProduct).
			withForms(svc, func(p *model.Product) formDraft { return recordDraft{Draft: form.NewProduct(p), selects: states} })

	case shell.ScreenTransfers:
		svc := resource.Transfers(api)
		ctrl := withCache(listview.New[model.Transfer](svc.Name(), svc, a.alerts), a.deps.Cache)
		s := newListScreen(key, "Transferencias", ctrl, svc.Delete, renderTransfer).
			withForms(svc, func(t *model.Transfer) formDraft { return recordDraft{Draft: form.NewTransfer(t)} })
		s.open = func(t model.Transfer) (shell.Location, bool) {
			return shell.ArticlesOf(t.ID), true
		}
		return s

	case shell.ScreenArticles:
		// Articles are scoped to one transfer and never cached.
		transferID := loc.TransferID
		svc := resource.Articles(api, transferID)
		ctrl := listview.New[model.Article](svc.Name(), svc, a.alerts)
		return newListScreen(key, "Artículos de la transferencia #"+itoa(transferID), ctrl, svc.Delete, renderArticle).
			withForms(svc, func(ar *model.Article) formDraft { return recordDraft{Draft: form.NewArticle(transferID, ar)} })

	case shell.ScreenSupports:
		tickets := resource.NewTickets(api)
		ctrl := withCache(listview.New[model.Support](tickets.Name(), tickets.Service, a.alerts), a.deps.Cache)
		inner := newListScreen(key, "Soportes", ctrl, tickets.Delete, renderSupport).
			withForms(tickets.Service, func(sup *model.Support) formDraft { return ticketDraft{form.NewSupport(sup)} })
		inner.opened = func(ctx context.Context, f *editForm) tea.Cmd {
			f.clients = search.New[model.Client](ctx, a.deps.Debounce, tickets.SearchClients, func(r search.Result[model.Client]) {
				a.send(clientsMsg{result: r})
			})
			return func() tea.Msg {
				opts, err := tickets.FetchOptions(ctx)
				if err != nil {
					return choicesMsg{id: key, err: err}
				}
				return choicesMsg{id: key, choices: ticketChoices(opts)}
			}
		}
		deb := search.New[model.Support](a.ctx, a.deps.Debounce, tickets.Search, func(r search.Result[model.Support]) {
			a.send(searchMsg{result: r})
		})
		return newSupportsScreen(inner, deb)
	}
	return nil
}

// contentSize is the space left for a screen beside the drawer.
func (a *App) contentSize() (int, int) {
	return max(a.width-drawerWidth-3, 20), max(a.height-2, 5)
}

func (a *App) View() string {
	switch a.route {
	case shell.RouteLogin:
		return a.login.view(a.width, a.height)
	case shell.RouteMain:
		return a.viewMain()
	}
	return ""
}

func (a *App) viewMain() string {
	var d strings.Builder
	current := a.nav.Current().Screen
	if current == shell.ScreenArticles {
		current = shell.ScreenTransfers
	}
	for i, e := range a.drawer {
		style := drawerInactive
		if e.Screen == current && !e.Logout {
			style = drawerActive
		}
		prefix := "  "
		if a.drawerFocus && i == a.drawerCursor {
			prefix = "> "
		}
		d.WriteString(style.Render(prefix+e.Label) + "\n")
	}
	if u := a.deps.Session.User(); u != nil {
		d.WriteString("\n" + faintStyle.Render(u.DisplayName()))
	}

	content := ""
	if s := a.current(); s != nil {
		content = s.view()
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		drawerStyle.Width(drawerWidth).Render(d.String()),
		" ",
		content,
	)

	footer := footerStyle.Render("tab menú · enter abrir · n nuevo · e editar · d eliminar · r recargar · esc atrás · q salir")
	if a.status != "" {
		footer = errorStyle.Render(a.status)
	}
	return body + "\n" + footer
}

func renderUser(u model.User) (string, string) {
	desc := u.Email
	if u.Role != "" {
		desc += " · " + u.Role
	}
	return u.DisplayName(), desc
}

func renderProduct(p model.Product) (string, string) {
	var desc []string
	for _, s := range []string{p.Code, p.State, p.Location} {
		if s != "" {
			desc = append(desc, s)
		}
	}
	if p.Quantity != 0 {
		desc = append(desc, "cant. "+strconv.Itoa(p.Quantity))
	}
	return p.Description, strings.Join(desc, " · ")
}

func renderTransfer(t model.Transfer) (string, string) {
	title := t.Description
	if title == "" {
		title = "Transferencia #" + itoa(t.ID)
	}
	return title, t.SenderName() + " → " + t.ReceiverName()
}

func renderArticle(ar model.Article) (string, string) {
	desc := "cant. " + strconv.Itoa(ar.Quanty)
	if ar.Price != 0 {
		desc += " · " + ar.Price.String()
	}
	return ar.Title, desc
}
