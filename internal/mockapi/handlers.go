package mockapi

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/soporte/internal/auth"
	"github.com/erazemk/soporte/internal/model"
)

type loginResponse struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

// login handles POST /login.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	form, _, err := readForm(r, "")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	email := strings.TrimSpace(form["email"])
	if email == "" || form["password"] == "" {
		jsonError(w, http.StatusUnprocessableEntity, "El correo y la contraseña son obligatorios")
		return
	}

	s.mu.Lock()
	var user model.User
	var hash []byte
	for _, u := range s.users.items {
		if strings.EqualFold(u.Email, email) {
			user, hash = u, s.passwords[u.ID]
			break
		}
	}
	s.mu.Unlock()

	if hash == nil || bcrypt.CompareHashAndPassword(hash, []byte(form["password"])) != nil {
		slog.Warn("login failed", "email", email, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "Credenciales incorrectas")
		return
	}

	token, err := auth.GenerateToken(s.secret, user.ID, user.Email, 0)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("user logged in", "email", user.Email)
	jsonResponse(w, http.StatusOK, loginResponse{User: user, Token: token})
}

// logout handles POST /logout by revoking the presented token.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r.Context())
	s.mu.Lock()
	s.revoked[claims.ID] = true
	s.mu.Unlock()
	jsonResponse(w, http.StatusOK, map[string]string{"message": "Sesión cerrada"})
}

// me handles GET /me.
func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r.Context())
	s.mu.Lock()
	user, ok := s.users.find(claims.UserID)
	s.mu.Unlock()
	if !ok {
		jsonError(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// searchSupports handles GET /supports/search.
func (s *Server) searchSupports(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))

	s.mu.Lock()
	matched := []model.Support{}
	for _, sup := range s.supports.items {
		if q != "" && supportMatches(sup, s.clientByID(sup.ClientID), q) {
			matched = append(matched, sup)
		}
	}
	s.mu.Unlock()

	jsonResponse(w, http.StatusOK, map[string]any{"supports": map[string]any{"data": matched}})
}

func supportMatches(sup model.Support, c *model.Client, q string) bool {
	fields := []string{sup.Cellphone, sup.StatusGlobal}
	if c != nil {
		fields = append(fields, c.Names, c.BusinessName, c.DNI)
	}
	for _, d := range sup.Details {
		fields = append(fields, d.Subject, d.Description)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// searchClients handles GET /clients/search, answering with a bare array.
func (s *Server) searchClients(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))

	s.mu.Lock()
	matched := []model.Client{}
	for _, c := range s.clients {
		if q == "" {
			continue
		}
		for _, f := range []string{c.Names, c.BusinessName, c.DNI, c.Email} {
			if strings.Contains(strings.ToLower(f), q) {
				matched = append(matched, c)
				break
			}
		}
	}
	s.mu.Unlock()

	jsonResponse(w, http.StatusOK, matched)
}

// lookup serves one dropdown list. Every other list is wrapped in
// {"data": ...} so clients see both shapes the real backend uses.
func (s *Server) lookup(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		rows := s.lookups[path]
		wrapped := lookupWrapped[path]
		s.mu.Unlock()

		if wrapped {
			jsonResponse(w, http.StatusOK, map[string]any{"data": rows})
			return
		}
		jsonResponse(w, http.StatusOK, rows)
	}
}

// clientByID returns the client with id. Callers hold s.mu.
func (s *Server) clientByID(id int64) *model.Client {
	for i := range s.clients {
		if s.clients[i].ID == id {
			return &s.clients[i]
		}
	}
	return nil
}
