package store

import (
	"context"
	"testing"

	"github.com/erazemk/soporte/internal/db"
)

func TestSettingsSetGetDelete(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	s := &Settings{DB: database}

	if _, ok, err := s.Get(ctx, "authToken"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, "authToken", "abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "authToken", "def"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}

	value, ok, err := s.Get(ctx, "authToken")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if value != "def" {
		t.Errorf("expected 'def', got %q", value)
	}

	if err := s.Delete(ctx, "authToken", "missing"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "authToken"); ok {
		t.Error("expected key to be gone after delete")
	}
}

func TestSettingsSetMany(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	s := &Settings{DB: database}

	err := s.SetMany(ctx, map[string]string{"authToken": "tok", "user": `{"id":1}`})
	if err != nil {
		t.Fatalf("SetMany: %v", err)
	}

	for key, want := range map[string]string{"authToken": "tok", "user": `{"id":1}`} {
		got, ok, err := s.Get(ctx, key)
		if err != nil || !ok || got != want {
			t.Errorf("Get(%q) = %q, %v, %v; want %q", key, got, ok, err, want)
		}
	}
}
