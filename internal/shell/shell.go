// Package shell decides which top-level screen is shown and lists the
// navigation drawer entries.
package shell

import (
	"sync"

	"github.com/erazemk/soporte/internal/session"
)

// Route is the top-level screen group.
type Route int

// Routes.
const (
	RouteBlank Route = iota
	RouteLogin
	RouteMain
)

func (r Route) String() string {
	switch r {
	case RouteLogin:
		return "login"
	case RouteMain:
		return "main"
	default:
		return "blank"
	}
}

// Resolve picks the route: blank while the session is loading, login
// without a token, and the main drawer otherwise.
func Resolve(loading bool, token string) Route {
	switch {
	case loading:
		return RouteBlank
	case token == "":
		return RouteLogin
	default:
		return RouteMain
	}
}

// ResolveState is Resolve applied to a session snapshot.
func ResolveState(s session.State) Route {
	return Resolve(s.Loading, s.Token)
}

// Watch calls fn with the current route and again whenever the session
// changes the route. The returned function stops watching.
func Watch(sess *session.Store, fn func(Route)) func() {
	var mu sync.Mutex
	seen := ResolveState(sess.State())
	fn(seen)

	return sess.Subscribe(func(s session.State) {
		r := ResolveState(s)
		mu.Lock()
		changed := r != seen
		seen = r
		mu.Unlock()
		if changed {
			fn(r)
		}
	})
}

// Screen identifies a drawer destination.
type Screen string

// Screens.
const (
	ScreenUsers     Screen = "users"
	ScreenProducts  Screen = "products"
	ScreenTransfers Screen = "transfers"
	ScreenArticles  Screen = "articles"
	ScreenSupports  Screen = "supports"
)

// Entry is one drawer item. Logout entries end the session instead of
// opening a screen.
type Entry struct {
	Label  string
	Screen Screen
	Logout bool
}

// Drawer returns the drawer entries in display order.
func Drawer() []Entry {
	return []Entry{
		{Label: "Usuarios", Screen: ScreenUsers},
		{Label: "Productos", Screen: ScreenProducts},
		{Label: "Transferencias", Screen: ScreenTransfers},
		{Label: "Soportes", Screen: ScreenSupports},
		{Label: "Cerrar Sesión", Logout: true},
	}
}

// Location is a screen plus its parameter. Only the articles screen takes
// one: the transfer whose lines are listed.
type Location struct {
	Screen     Screen
	TransferID int64
}

// ArticlesOf opens the articles of a transfer.
func ArticlesOf(transferID int64) Location {
	return Location{Screen: ScreenArticles, TransferID: transferID}
}

// Nav is a stack of locations inside the main route.
type Nav struct {
	stack []Location
}

// NewNav starts at the first drawer screen.
func NewNav() *Nav {
	return &Nav{stack: []Location{{Screen: ScreenUsers}}}
}

// Current returns the visible location.
func (n *Nav) Current() Location {
	return n.stack[len(n.stack)-1]
}

// Select jumps to a drawer screen, dropping any detail screens.
func (n *Nav) Select(s Screen) {
	n.stack = []Location{{Screen: s}}
}

// Push opens a detail screen on top of the current one.
func (n *Nav) Push(l Location) {
	n.stack = append(n.stack, l)
}

// Back closes the top detail screen. It reports false at the root.
func (n *Nav) Back() bool {
	if len(n.stack) == 1 {
		return false
	}
	n.stack = n.stack[:len(n.stack)-1]
	return true
}
