// Package authgate resolves the caller of a protected request from its
// bearer token.
package authgate

import (
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/louisbranch/notekeep/internal/platform/errors"
	"github.com/louisbranch/notekeep/internal/platform/httpx"
	"github.com/louisbranch/notekeep/internal/platform/requestctx"
	"github.com/louisbranch/notekeep/internal/services/notes/token"
)

// ErrMissingCredentials is returned when the Authorization header is absent
// or is not a bearer credential.
var ErrMissingCredentials = apperrors.New(apperrors.CodeUnauthenticated, "Missing or malformed authorization header")

// Verifier validates a raw session token.
type Verifier interface {
	Verify(raw string) (token.Claims, error)
}

// Require rejects requests without a valid bearer token and binds the
// verified identity to the request context for downstream handlers.
func Require(verifier Verifier) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := Authenticate(verifier, r.Header.Get("Authorization"))
			if err != nil {
				httpx.WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(requestctx.WithIdentity(r.Context(), identity)))
		})
	}
}

// Authenticate resolves header, the raw Authorization value, to an identity.
func Authenticate(verifier Verifier, header string) (requestctx.Identity, error) {
	raw, ok := bearerToken(header)
	if !ok {
		return requestctx.Identity{}, ErrMissingCredentials
	}
	if verifier == nil {
		return requestctx.Identity{}, apperrors.Internal(errVerifierMissing)
	}
	claims, err := verifier.Verify(raw)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeUnauthenticated) {
			return requestctx.Identity{}, err
		}
		return requestctx.Identity{}, token.ErrInvalidToken
	}
	if claims.UserID <= 0 {
		return requestctx.Identity{}, token.ErrInvalidToken
	}
	return requestctx.Identity{UserID: claims.UserID, Email: claims.Email}, nil
}

var errVerifierMissing = errors.New("token verifier is not configured")

// bearerToken extracts the credential from a "Bearer <token>" header. The
// scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, credential, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return "", false
	}
	return credential, true
}
