package session_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/boddenberg/timesheet-charts-go/internal/infra/session"

	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "ana",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("merge-service-key"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSession_TokenLifecycle(t *testing.T) {
	ctx := context.Background()
	s := session.New(session.NewMemoryTokenStore())

	if tok, _ := s.Token(ctx); tok != "" {
		t.Fatalf("expected signed out, got %q", tok)
	}

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signed(t, exp)
	if err := s.SetToken(ctx, token); err != nil {
		t.Fatal(err)
	}

	st, err := s.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !st.Authenticated || st.ExpiresAt == nil || !st.ExpiresAt.Equal(exp) {
		t.Errorf("unexpected status %+v", st)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if st, _ := s.Status(ctx); st.Authenticated {
		t.Error("expected signed out after Clear")
	}
}

func TestSession_ExpiredTokenIsAbsent(t *testing.T) {
	ctx := context.Background()
	s := session.New(session.NewMemoryTokenStore())
	_ = s.SetToken(ctx, signed(t, time.Now().Add(-time.Minute)))

	if tok, _ := s.Token(ctx); tok != "" {
		t.Error("expired token must not be used")
	}
}

func TestSession_OpaqueToken(t *testing.T) {
	ctx := context.Background()
	s := session.New(session.NewMemoryTokenStore())
	_ = s.SetToken(ctx, "opaque-token")

	st, _ := s.Status(ctx)
	if !st.Authenticated || st.ExpiresAt != nil {
		t.Errorf("opaque token status = %+v", st)
	}
}

func TestSession_LoadsFromStore(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryTokenStore()
	_ = store.Save(ctx, "persisted")

	s := session.New(store)
	if tok, _ := s.Token(ctx); tok != "persisted" {
		t.Errorf("token = %q", tok)
	}
}

func TestFileTokenStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "token")
	store := session.NewFileTokenStore(path, "secret")

	if tok, err := store.Load(ctx); err != nil || tok != "" {
		t.Fatalf("missing file: %q, %v", tok, err)
	}
	if err := store.Save(ctx, "abc.def.ghi"); err != nil {
		t.Fatal(err)
	}

	raw, _ := os.ReadFile(path)
	if string(raw) == "abc.def.ghi" || len(raw) == 0 {
		t.Error("token stored in clear text")
	}

	other := session.NewFileTokenStore(path, "secret")
	if tok, err := other.Load(ctx); err != nil || tok != "abc.def.ghi" {
		t.Errorf("reload = %q, %v", tok, err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if tok, _ := store.Load(ctx); tok != "" {
		t.Error("expected empty after Clear")
	}
	if err := store.Clear(ctx); err != nil {
		t.Errorf("clearing twice: %v", err)
	}
}

func TestFileTokenStore_WrongSecret(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "token")
	_ = session.NewFileTokenStore(path, "right").Save(ctx, "tok")

	_, err := session.NewFileTokenStore(path, "wrong").Load(ctx)
	if !errors.Is(err, session.ErrDecrypt) {
		t.Errorf("expected ErrDecrypt, got %v", err)
	}
}
