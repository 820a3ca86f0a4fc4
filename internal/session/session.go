// Package session holds the process-wide authentication state: the bearer
// token and the cached profile of the signed-in user. State is persisted in
// a durable key/value store and loaded once at start-up.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/erazemk/soporte/internal/model"
)

// Keys under which the session is persisted.
const (
	KeyToken           = "authToken"
	KeyUser            = "user"
	KeyRememberedEmail = "rememberedEmail"
)

// ErrNotAuthenticated is returned by operations that need a token when none is held.
var ErrNotAuthenticated = errors.New("not authenticated")

// KV is the durable storage the session is written to.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	SetMany(ctx context.Context, pairs map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

// State is a snapshot of the session delivered to subscribers.
type State struct {
	Loading bool
	Token   string
	User    *model.User
}

// Authenticated reports whether the snapshot holds a usable token.
func (s State) Authenticated() bool {
	return !s.Loading && s.Token != ""
}

// Store is the session store. The zero value is not usable; use New.
type Store struct {
	kv  KV
	now func() time.Time

	mu         sync.RWMutex
	loading    bool
	token      string
	user       *model.User
	remembered string

	loadOnce sync.Once
	loadErr  error
	ready    chan struct{}

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

// New creates a store in the loading state. Call Load once at start-up.
func New(kv KV) *Store {
	return &Store{
		kv:      kv,
		now:     time.Now,
		loading: true,
		ready:   make(chan struct{}),
		subs:    make(map[int]func(State)),
	}
}

// Load reads the persisted session into memory. It runs at most once; later
// calls return the first result. Loading() stays true until it completes,
// whether or not reading succeeded.
func (s *Store) Load(ctx context.Context) error {
	s.loadOnce.Do(func() {
		s.loadErr = s.load(ctx)

		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()

		close(s.ready)
		s.notify()
	})
	return s.loadErr
}

func (s *Store) load(ctx context.Context) error {
	token, hasToken, err := s.kv.Get(ctx, KeyToken)
	if err != nil {
		slog.Warn("failed to load session", "error", err)
		return fmt.Errorf("loading session token: %w", err)
	}

	if hasToken && tokenExpired(token, s.now()) {
		slog.Info("stored session expired, clearing")
		if err := s.kv.Delete(ctx, KeyToken, KeyUser); err != nil {
			return fmt.Errorf("clearing expired session: %w", err)
		}
		hasToken = false
	}

	var user *model.User
	if hasToken {
		raw, ok, err := s.kv.Get(ctx, KeyUser)
		if err != nil {
			return fmt.Errorf("loading session user: %w", err)
		}
		if ok {
			user = &model.User{}
			if err := json.Unmarshal([]byte(raw), user); err != nil {
				slog.Warn("ignoring unreadable cached user", "error", err)
				user = nil
			}
		}
	}

	email, _, err := s.kv.Get(ctx, KeyRememberedEmail)
	if err != nil {
		return fmt.Errorf("loading remembered email: %w", err)
	}

	s.mu.Lock()
	if hasToken {
		s.token = token
	}
	s.user = user
	s.remembered = email
	s.mu.Unlock()
	return nil
}

// Ready returns a channel that is closed once Load has completed.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Loading reports whether the initial load is still in progress.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Token returns the current bearer token.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// User returns the cached profile of the signed-in user, or nil.
func (s *Store) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// State returns a snapshot of the session.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := State{Loading: s.loading, Token: s.token}
	if s.user != nil {
		u := *s.user
		st.User = &u
	}
	return st
}

// SetToken replaces the token. An empty token clears it.
func (s *Store) SetToken(ctx context.Context, token string) error {
	var err error
	if token == "" {
		err = s.kv.Delete(ctx, KeyToken)
	} else {
		err = s.kv.Set(ctx, KeyToken, token)
	}
	if err != nil {
		return fmt.Errorf("persisting token: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	s.notify()
	return nil
}

// Login persists the token and user profile, then updates memory.
func (s *Store) Login(ctx context.Context, user model.User, token string) error {
	if token == "" {
		return fmt.Errorf("login: empty token")
	}

	// Never keep the password in the cached profile.
	user.Password = ""
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}

	if err := s.kv.SetMany(ctx, map[string]string{
		KeyToken: token,
		KeyUser:  string(raw),
	}); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.user = &user
	s.mu.Unlock()

	slog.Info("session started", "user", user.Email)
	s.notify()
	return nil
}

// Logout clears the persisted and in-memory session. The remembered email
// is kept.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.kv.Delete(ctx, KeyToken, KeyUser); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}

	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	slog.Info("session cleared")
	s.notify()
	return nil
}

// RememberEmail stores the email pre-filled on the login form. An empty
// email forgets it.
func (s *Store) RememberEmail(ctx context.Context, email string) error {
	var err error
	if email == "" {
		err = s.kv.Delete(ctx, KeyRememberedEmail)
	} else {
		err = s.kv.Set(ctx, KeyRememberedEmail, email)
	}
	if err != nil {
		return fmt.Errorf("persisting remembered email: %w", err)
	}

	s.mu.Lock()
	s.remembered = email
	s.mu.Unlock()
	return nil
}

// RememberedEmail returns the email to pre-fill on the login form.
func (s *Store) RememberedEmail() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remembered
}

// Subscribe registers fn to be called with a fresh snapshot after every
// change. The returned function unregisters it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify() {
	st := s.State()

	s.subMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

// tokenExpired reports whether token is a JWT whose exp claim is in the
// past. The signature is not checked: only the backend holds the key.
// Opaque tokens never expire on the client side.
func tokenExpired(token string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(now)
}
