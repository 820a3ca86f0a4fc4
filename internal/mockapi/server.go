// Package mockapi is an in-memory stand-in for the back-office REST API.
// It serves the same routes and envelopes the client consumes and is used
// by tests and for local development.
package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/soporte/internal/auth"
	"github.com/erazemk/soporte/internal/model"
)

// DefaultPageSize is the number of records per page.
const DefaultPageSize = 10

// Options configure a Server.
type Options struct {
	// Secret signs tokens. Empty generates a random one.
	Secret string
	// AdminEmail and AdminPassword seed the first user.
	AdminEmail    string
	AdminPassword string
	PageSize      int
	// BcryptCost defaults to bcrypt.DefaultCost. Tests lower it.
	BcryptCost int
}

type fault struct {
	status  int
	message string
}

// Server holds the in-memory data set.
type Server struct {
	secret     string
	pageSize   int
	bcryptCost int

	mu        sync.Mutex
	lastID    int64
	passwords map[int64][]byte
	revoked   map[string]bool
	files     map[string][]byte
	faults    map[string][]fault

	users     *collection[model.User]
	products  *collection[model.Product]
	transfers *collection[model.Transfer]
	articles  *collection[model.Article]
	supports  *collection[model.Support]
	clients   []model.Client
	lookups   map[string][]map[string]any
}

// New creates a server seeded with the admin account and the lookup lists.
func New(o Options) (*Server, error) {
	if o.Secret == "" {
		secret, err := auth.NewSecret()
		if err != nil {
			return nil, err
		}
		o.Secret = secret
	}
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.BcryptCost == 0 {
		o.BcryptCost = bcrypt.DefaultCost
	}
	if o.AdminEmail == "" {
		o.AdminEmail = "admin@soporte.test"
	}
	if o.AdminPassword == "" {
		o.AdminPassword = "admin123"
	}

	s := &Server{
		secret:     o.Secret,
		pageSize:   o.PageSize,
		bcryptCost: o.BcryptCost,
		passwords:  make(map[int64][]byte),
		revoked:    make(map[string]bool),
		files:      make(map[string][]byte),
		faults:     make(map[string][]fault),
	}
	s.initCollections()
	s.seedLookups()

	if _, err := s.AddUser(model.User{Names: "Administrador", Email: o.AdminEmail, Role: "admin"}, o.AdminPassword); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) initCollections() {
	s.users = &collection[model.User]{
		name:      "users",
		itemKey:   "user",
		fileField: "photo",
		required:  []string{"names", "email", "password"},
		prepare:   prepareUser,
	}
	s.products = &collection[model.Product]{
		name:      "products",
		itemKey:   "product",
		fileField: "file_1",
		required:  []string{"description"},
		numeric:   map[string]bool{"quantity": true},
	}
	s.transfers = &collection[model.Transfer]{
		name:      "transfers",
		listKey:   "transfers",
		itemKey:   "transfer",
		fileField: "file_1",
		required:  []string{"description"},
	}
	s.articles = &collection[model.Article]{
		name:      "articles",
		itemKey:   "article",
		fileField: "file_1",
		required:  []string{"title", "transfer_id"},
		numeric:   map[string]bool{"transfer_id": true, "product_id": true, "quanty": true},
		filter: func(r *http.Request, a model.Article) bool {
			tid := r.URL.Query().Get("transfer_id")
			return tid == "" || tid == strconv.FormatInt(a.TransferID, 10)
		},
	}
	s.supports = &collection[model.Support]{
		name:     "supports",
		listKey:  "supports",
		itemKey:  "support",
		required: []string{"client_id"},
		numeric:  map[string]bool{"client_id": true},
		prepare:  prepareSupport,
	}
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /login", s.login)
	mux.Handle("POST /logout", s.authMiddleware(http.HandlerFunc(s.logout)))
	mux.Handle("GET /me", s.authMiddleware(http.HandlerFunc(s.me)))

	register(s, mux, s.users)
	register(s, mux, s.products)
	register(s, mux, s.transfers)
	register(s, mux, s.articles)
	register(s, mux, s.supports)

	mux.Handle("GET /supports/search", s.authMiddleware(http.HandlerFunc(s.searchSupports)))
	mux.Handle("GET /clients/search", s.authMiddleware(http.HandlerFunc(s.searchClients)))
	for path := range s.lookups {
		mux.Handle("GET "+path, s.authMiddleware(http.HandlerFunc(s.lookup(path))))
	}

	mux.HandleFunc("GET /storage/{path...}", s.serveFile)

	return loggingMiddleware(s.faultMiddleware(mux))
}

// Fail queues a failure for the next request matching method and path.
func (s *Server) Fail(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	s.faults[key] = append(s.faults[key], fault{status: status, message: message})
}

func (s *Server) takeFault(method, path string) (fault, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	queue := s.faults[key]
	if len(queue) == 0 {
		return fault{}, false
	}
	s.faults[key] = queue[1:]
	return queue[0], true
}

// nextID returns a fresh record id. Callers hold s.mu.
func (s *Server) nextID() int64 {
	s.lastID++
	return s.lastID
}

// storeFile keeps an uploaded file and returns its storage path. Callers
// hold s.mu.
func (s *Server) storeFile(resource string, id int64, data []byte) string {
	path := fmt.Sprintf("%s/%d.jpg", resource, id)
	s.files[path] = data
	return path
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	data, ok := s.files[r.PathValue("path")]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(data)
}

// File returns a stored upload by its storage path.
func (s *Server) File(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[path]
	return data, ok
}

func prepareUser(s *Server, id int64, _ model.User, form map[string]string, _ map[string]any) error {
	password, ok := form["password"]
	delete(form, "password")
	if !ok || password == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	s.passwords[id] = hash
	return nil
}

// prepareSupport turns the JSON-encoded details field into detail records
// appended to the ticket's history.
func prepareSupport(s *Server, id int64, existing model.Support, form map[string]string, base map[string]any) error {
	if cid, err := strconv.ParseInt(form["client_id"], 10, 64); err == nil {
		if c := s.clientByID(cid); c != nil {
			base["client"] = *c
		}
	}

	raw, ok := form["details"]
	delete(form, "details")
	if !ok || raw == "" {
		return nil
	}

	var details []model.SupportDetail
	if err := json.Unmarshal([]byte(raw), &details); err != nil {
		return invalidError("The details field must be a JSON array.")
	}
	for i := range details {
		details[i].ID = s.nextID()
		details[i].SupportID = id
		if strings.TrimSpace(details[i].Subject) == "" {
			return invalidError("The details.subject field is required.")
		}
	}
	base["details"] = slices.Concat(existing.Details, details)
	if len(details) > 0 {
		base["state"] = details[len(details)-1].Status
	}
	return nil
}
