package account

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/louisbranch/notekeep/internal/platform/errors"
	"github.com/louisbranch/notekeep/internal/platform/requestctx"
	"github.com/louisbranch/notekeep/internal/services/notes/storage"
	"github.com/louisbranch/notekeep/internal/services/notes/token"
)

const (
	// DefaultPageSize is used when a list request does not name a size.
	DefaultPageSize = 50
	// MaxPageSize caps list requests.
	MaxPageSize = 200
)

var (
	// ErrEmailInUse is returned by Signup when the email is registered.
	ErrEmailInUse = apperrors.WithFields(apperrors.CodeConflict, "Email already in use", apperrors.FieldErrors{
		"email": {"Already exists"},
	})
	// ErrUnknownEmail is returned by Login when no account has the email.
	ErrUnknownEmail = apperrors.WithFields(apperrors.CodeUnauthenticated, "User not found", apperrors.FieldErrors{
		"email": {"No user found"},
	})
	// ErrWrongPassword is returned by Login when the password does not match.
	ErrWrongPassword = apperrors.WithFields(apperrors.CodeUnauthenticated, "Wrong password", apperrors.FieldErrors{
		"password": {"Invalid password"},
	})
	// ErrUserNotFound is returned when the caller's account no longer exists.
	ErrUserNotFound = apperrors.New(apperrors.CodeNotFound, "User not found")
	// ErrUnauthenticated is returned when no identity is bound to the context.
	ErrUnauthenticated = apperrors.New(apperrors.CodeUnauthenticated, "Authentication required")
)

// Store persists user records.
type Store interface {
	// CreateUser inserts u and returns it with its assigned id. A taken email
	// yields storage.ErrEmailTaken.
	CreateUser(ctx context.Context, u User) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context, pageSize int, pageToken string) (Page, error)
}

// Hasher derives and checks password digests.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// Issuer signs session tokens.
type Issuer interface {
	Issue(claims token.Claims) (token.Token, error)
}

// LoginResult is a signed token and the account it was issued for.
type LoginResult struct {
	Token token.Token
	User  User
}

// Service implements the identity lifecycle.
type Service struct {
	store  Store
	hasher Hasher
	issuer Issuer
	now    func() time.Time
}

// NewService builds a Service. now defaults to time.Now.
func NewService(store Store, hasher Hasher, issuer Issuer, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, hasher: hasher, issuer: issuer, now: now}
}

// Signup validates input, stores a new account, and returns it.
func (s *Service) Signup(ctx context.Context, input SignupInput) (User, error) {
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return User{}, err
	}
	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		return User{}, apperrors.Internal(fmt.Errorf("hash password: %w", err))
	}
	created, err := s.store.CreateUser(ctx, User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: digest,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return User{}, ErrEmailInUse
		}
		return User{}, apperrors.Internal(fmt.Errorf("create user: %w", err))
	}
	return created, nil
}

// Login checks credentials and issues a session token.
func (s *Service) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return LoginResult{}, err
	}
	u, err := s.store.GetUserByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return LoginResult{}, ErrUnknownEmail
		}
		return LoginResult{}, apperrors.Internal(fmt.Errorf("get user by email: %w", err))
	}
	if !s.hasher.Verify(input.Password, u.PasswordHash) {
		return LoginResult{}, ErrWrongPassword
	}
	issued, err := s.issuer.Issue(token.Claims{UserID: u.ID, Email: u.Email})
	if err != nil {
		return LoginResult{}, apperrors.Internal(fmt.Errorf("issue token: %w", err))
	}
	return LoginResult{Token: issued, User: u}, nil
}

// Me returns the account bound to ctx.
func (s *Service) Me(ctx context.Context) (User, error) {
	identity, ok := requestctx.IdentityFromContext(ctx)
	if !ok {
		return User{}, ErrUnauthenticated
	}
	u, err := s.store.GetUser(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, apperrors.Internal(fmt.Errorf("get user: %w", err))
	}
	return u, nil
}

// List returns a page of accounts, newest first. pageToken is the value of
// a previous page's NextPageToken.
func (s *Service) List(ctx context.Context, pageSize int, pageToken string) (Page, error) {
	if _, ok := requestctx.IdentityFromContext(ctx); !ok {
		return Page{}, ErrUnauthenticated
	}
	fields := apperrors.FieldErrors{}
	switch {
	case pageSize < 0:
		fields.Add("page_size", "Page size must not be negative")
	case pageSize == 0:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}
	pageToken = strings.TrimSpace(pageToken)
	if pageToken != "" {
		if id, err := strconv.ParseInt(pageToken, 10, 64); err != nil || id <= 0 {
			fields.Add("page_token", "Page token is invalid")
		}
	}
	if err := validationError(fields); err != nil {
		return Page{}, err
	}
	page, err := s.store.ListUsers(ctx, pageSize, pageToken)
	if err != nil {
		return Page{}, apperrors.Internal(fmt.Errorf("list users: %w", err))
	}
	return page, nil
}
