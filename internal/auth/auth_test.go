package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var secret = []byte("0123456789abcdef0123456789abcdef")

func TestAPIKeyVerifier(t *testing.T) {
	v := APIKeyVerifier{Key: "k1", Identity: Identity{ID: "local"}}

	id, err := v.Verify(context.Background(), "k1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.ID != "local" {
		t.Errorf("expected identity local, got %q", id.ID)
	}

	if _, err := v.Verify(context.Background(), "k2"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	empty := APIKeyVerifier{}
	if _, err := empty.Verify(context.Background(), ""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected empty key to reject everything, got %v", err)
	}
}

func TestJWTVerifier_RoundTrip(t *testing.T) {
	tok, err := IssueToken(secret, "pdfread", Identity{ID: "u1", Email: "u1@example.com"}, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	id, err := JWTVerifier{Secret: secret, Issuer: "pdfread"}.Verify(context.Background(), tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.ID != "u1" || id.Email != "u1@example.com" {
		t.Errorf("unexpected identity %+v", id)
	}
}

func TestJWTVerifier_Rejects(t *testing.T) {
	good := Identity{ID: "u1"}
	expired, _ := IssueToken(secret, "", good, -time.Minute)
	otherIssuer, _ := IssueToken(secret, "someone-else", good, time.Hour)
	wrongKey, _ := IssueToken([]byte("another-secret-another-secret-xx"), "", good, time.Hour)
	noSubject, _ := IssueToken(secret, "", Identity{}, time.Hour)
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	cases := map[string]struct {
		token  string
		issuer string
	}{
		"expired":    {expired, ""},
		"issuer":     {otherIssuer, "pdfread"},
		"wrong key":  {wrongKey, ""},
		"no subject": {noSubject, ""},
		"alg none":   {none, ""},
		"garbage":    {"not-a-token", ""},
	}
	for name, c := range cases {
		_, err := JWTVerifier{Secret: secret, Issuer: c.issuer}.Verify(context.Background(), c.token)
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("%s: expected ErrUnauthorized, got %v", name, err)
		}
	}
}

func TestMiddleware(t *testing.T) {
	v := APIKeyVerifier{Key: "k1", Identity: Identity{ID: "local"}}
	var seen Identity
	h := Middleware(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"Basic abc", http.StatusUnauthorized},
		{"Bearer wrong", http.StatusUnauthorized},
		{"Bearer k1", http.StatusNoContent},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
		if c.header != "" {
			req.Header.Set("Authorization", c.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != c.status {
			t.Errorf("header %q: expected status %d, got %d", c.header, c.status, rec.Code)
		}
	}
	if seen.ID != "local" {
		t.Errorf("expected identity in context, got %+v", seen)
	}
}
