package authgate

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/louisbranch/notekeep/internal/platform/requestctx"
	"github.com/louisbranch/notekeep/internal/services/notes/token"
)

type fakeVerifier struct {
	claims token.Claims
	err    error
	got    string
}

func (f *fakeVerifier) Verify(raw string) (token.Claims, error) {
	f.got = raw
	return f.claims, f.err
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Success {
		t.Fatal("expected success=false")
	}
	return body.Message
}

func TestRequireBindsIdentity(t *testing.T) {
	verifier := &fakeVerifier{claims: token.Claims{UserID: 7, Email: "a@x.com"}}
	var seen requestctx.Identity
	handler := Require(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := requestctx.IdentityFromContext(r.Context())
		if !ok {
			t.Fatal("expected identity in context")
		}
		seen = identity
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if verifier.got != "abc.def.ghi" {
		t.Fatalf("verifier got %q", verifier.got)
	}
	if seen.UserID != 7 || seen.Email != "a@x.com" {
		t.Fatalf("unexpected identity: %+v", seen)
	}
}

func TestRequireRejectsMissingOrMalformedHeader(t *testing.T) {
	tests := map[string]string{
		"absent":       "",
		"no scheme":    "abc.def.ghi",
		"basic scheme": "Basic dXNlcjpwYXNz",
		"empty token":  "Bearer ",
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			verifier := &fakeVerifier{claims: token.Claims{UserID: 1}}
			called := false
			handler := Require(verifier)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				called = true
			}))
			req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if called {
				t.Fatal("handler should not run")
			}
			if verifier.got != "" {
				t.Fatal("verifier should not run")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
			if msg := decodeMessage(t, rec); msg != "Missing or malformed authorization header" {
				t.Fatalf("message = %q", msg)
			}
		})
	}
}

func TestRequireRejectsInvalidToken(t *testing.T) {
	verifier := &fakeVerifier{err: token.ErrInvalidToken}
	handler := Require(verifier)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not run")
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
	req.Header.Set("Authorization", "bearer forged")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if got := rec.Header().Get("WWW-Authenticate"); got != "Bearer" {
		t.Fatalf("WWW-Authenticate = %q", got)
	}
	if msg := decodeMessage(t, rec); msg != "Invalid or expired token" {
		t.Fatalf("message = %q", msg)
	}
}

func TestAuthenticateCollapsesUnexpectedVerifierErrors(t *testing.T) {
	_, err := Authenticate(&fakeVerifier{err: errors.New("boom")}, "Bearer x")
	if !errors.Is(err, token.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	_, err = Authenticate(&fakeVerifier{claims: token.Claims{}}, "Bearer x")
	if !errors.Is(err, token.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for empty claims, got %v", err)
	}
}

func TestRequireWithRealTokens(t *testing.T) {
	svc, err := token.NewService(token.Config{Secret: []byte("gate-secret"), TTL: token.DefaultTTL})
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}
	issued, err := svc.Issue(token.Claims{UserID: 3, Email: "c@x.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	identity, err := Authenticate(svc, "Bearer "+issued.Value)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if identity.UserID != 3 {
		t.Fatalf("user id = %d, want 3", identity.UserID)
	}
}
