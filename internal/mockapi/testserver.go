package mockapi

import (
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// Credentials of the account seeded by NewTestServer.
const (
	TestEmail    = "admin@soporte.test"
	TestPassword = "admin123"
)

// NewTestServer starts an in-memory backend for the duration of the test.
func NewTestServer(t testing.TB) (*Server, *httptest.Server) {
	t.Helper()

	s, err := New(Options{
		Secret:        "test-secret",
		AdminEmail:    TestEmail,
		AdminPassword: TestPassword,
		BcryptCost:    bcrypt.MinCost,
	})
	if err != nil {
		t.Fatalf("creating mock backend: %v", err)
	}

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv
}
