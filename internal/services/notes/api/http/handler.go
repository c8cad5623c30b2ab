package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/louisbranch/notekeep/internal/platform/errors"
	"github.com/louisbranch/notekeep/internal/platform/httpx"
	"github.com/louisbranch/notekeep/internal/services/notes/account"
	"github.com/louisbranch/notekeep/internal/services/notes/authgate"
	"github.com/louisbranch/notekeep/internal/services/notes/note"
)

// WelcomeMessage is the plain-text body of GET /api.
const WelcomeMessage = "Welcome to the Notes API!"

// AccountService is the identity lifecycle used by the user routes.
type AccountService interface {
	Signup(ctx context.Context, input account.SignupInput) (account.User, error)
	Login(ctx context.Context, input account.LoginInput) (account.LoginResult, error)
	Me(ctx context.Context) (account.User, error)
	List(ctx context.Context, pageSize int, pageToken string) (account.Page, error)
}

// NoteService is the owner-scoped note engine used by the note routes.
type NoteService interface {
	List(ctx context.Context) ([]note.Note, error)
	Get(ctx context.Context, id int64) (note.Note, error)
	Create(ctx context.Context, input note.Input) (note.Note, error)
	Replace(ctx context.Context, id int64, input note.Input) (note.Note, error)
	Patch(ctx context.Context, id int64, patch note.Patch) (note.Note, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, query string) ([]note.Note, error)
}

// Handler serves the notekeep API.
type Handler struct {
	accounts AccountService
	notes    NoteService
	verifier authgate.Verifier
}

// NewHandler builds the API router with platform middleware applied.
func NewHandler(accounts AccountService, notes NoteService, verifier authgate.Verifier) http.Handler {
	h := &Handler{accounts: accounts, notes: notes, verifier: verifier}
	return httpx.Chain(h.routes(),
		httpx.CORS(),
		httpx.RequestID(),
		httpx.RecoverPanic(),
		httpx.Trace(),
	)
}

func (h *Handler) routes() http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		_ = httpx.WriteJSON(w, http.StatusNotFound, httpx.ErrorBody{Message: "Route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		_ = httpx.WriteJSON(w, http.StatusMethodNotAllowed, httpx.ErrorBody{Message: "Method not allowed"})
	})

	r.Get("/api", h.welcome)
	r.Route("/api/users", func(r chi.Router) {
		r.Post("/signup", h.signup)
		r.Post("/login", h.login)
		r.Group(func(r chi.Router) {
			r.Use(authgate.Require(h.verifier))
			r.Get("/", h.listUsers)
			r.Get("/me", h.me)
		})
	})
	r.Route("/api/notes", func(r chi.Router) {
		r.Use(authgate.Require(h.verifier))
		r.Get("/", h.listNotes)
		r.Post("/", h.createNote)
		r.Get("/search", h.searchNotes)
		r.Get("/{id}", h.getNote)
		r.Put("/{id}", h.replaceNote)
		r.Patch("/{id}", h.patchNote)
		r.Delete("/{id}", h.deleteNote)
	})
	return r
}

func (h *Handler) welcome(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(WelcomeMessage))
}

type signupResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    account.User `json:"user"`
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var input account.SignupInput
	if err := httpx.DecodeJSON(w, r, &input); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	u, err := h.accounts.Signup(r.Context(), input)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, signupResponse{Success: true, Message: "User created", User: u})
}

type loginResponse struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      account.User `json:"user"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var input account.LoginInput
	if err := httpx.DecodeJSON(w, r, &input); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	result, err := h.accounts.Login(r.Context(), input)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, loginResponse{
		Success:   true,
		Message:   "Login successful",
		Token:     result.Token.Value,
		ExpiresAt: result.Token.ExpiresAt,
		User:      result.User,
	})
}

type userResponse struct {
	Success bool         `json:"success"`
	User    account.User `json:"user"`
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.accounts.Me(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, userResponse{Success: true, User: u})
}

type listUsersResponse struct {
	Success       bool           `json:"success"`
	Users         []account.User `json:"users"`
	NextPageToken string         `json:"next_page_token,omitempty"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	pageSize := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("page_size")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpx.WriteError(w, r, apperrors.WithFields(apperrors.CodeValidation, "Validation failed", apperrors.FieldErrors{
				"page_size": {"Page size must be an integer"},
			}))
			return
		}
		pageSize = parsed
	}
	page, err := h.accounts.List(r.Context(), pageSize, r.URL.Query().Get("page_token"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	users := page.Users
	if users == nil {
		users = []account.User{}
	}
	_ = httpx.WriteJSON(w, http.StatusOK, listUsersResponse{Success: true, Users: users, NextPageToken: page.NextPageToken})
}
