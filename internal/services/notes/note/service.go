package note

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	apperrors "github.com/louisbranch/notekeep/internal/platform/errors"
	"github.com/louisbranch/notekeep/internal/platform/requestctx"
	"github.com/louisbranch/notekeep/internal/services/notes/storage"
)

var (
	// ErrNotFound is returned when a note is absent or owned by someone else.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "Note not found")
	// ErrQueryRequired is returned for an empty or blank search query.
	ErrQueryRequired = apperrors.New(apperrors.CodeValidation, "Query is required")
	// ErrUnauthenticated is returned when no identity is bound to the context.
	ErrUnauthenticated = apperrors.New(apperrors.CodeUnauthenticated, "Authentication required")
)

// Store persists notes. Every method scopes by owner; a note with another
// owner yields storage.ErrNotFound.
type Store interface {
	ListNotes(ctx context.Context, ownerID int64) ([]Note, error)
	GetNote(ctx context.Context, ownerID, id int64) (Note, error)
	CreateNote(ctx context.Context, n Note) (Note, error)
	// UpdateNote applies changes and stamps modifiedAt in one statement.
	UpdateNote(ctx context.Context, ownerID, id int64, changes []Change, modifiedAt time.Time) (Note, error)
	DeleteNote(ctx context.Context, ownerID, id int64) error
	SearchNotes(ctx context.Context, ownerID int64, query string) ([]Note, error)
}

// Service implements owner-scoped note operations.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService builds a Service. now defaults to time.Now.
func NewService(store Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}
}

// List returns the caller's notes, newest first.
func (s *Service) List(ctx context.Context) ([]Note, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	notes, err := s.store.ListNotes(ctx, owner)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("list notes: %w", err))
	}
	return notes, nil
}

// Get returns one of the caller's notes.
func (s *Service) Get(ctx context.Context, id int64) (Note, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return Note{}, err
	}
	if id <= 0 {
		return Note{}, invalidID()
	}
	n, err := s.store.GetNote(ctx, owner, id)
	if err != nil {
		return Note{}, storageError("get note", err)
	}
	return n, nil
}

// Create stores a new note for the caller.
func (s *Service) Create(ctx context.Context, input Input) (Note, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return Note{}, err
	}
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return Note{}, err
	}
	now := s.now().UTC()
	n, err := s.store.CreateNote(ctx, Note{
		Title:      input.Title,
		Text:       input.Text,
		OwnerID:    owner,
		CreatedAt:  now,
		ModifiedAt: now,
	})
	if err != nil {
		return Note{}, apperrors.Internal(fmt.Errorf("create note: %w", err))
	}
	return n, nil
}

// Replace overwrites both fields of one of the caller's notes.
func (s *Service) Replace(ctx context.Context, id int64, input Input) (Note, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return Note{}, err
	}
	if id <= 0 {
		return Note{}, invalidID()
	}
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return Note{}, err
	}
	n, err := s.store.UpdateNote(ctx, owner, id, []Change{
		{Field: FieldTitle, Value: input.Title},
		{Field: FieldText, Value: input.Text},
	}, s.now().UTC())
	if err != nil {
		return Note{}, storageError("replace note", err)
	}
	return n, nil
}

// Patch applies the fields present in patch to one of the caller's notes.
func (s *Service) Patch(ctx context.Context, id int64, patch Patch) (Note, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return Note{}, err
	}
	if id <= 0 {
		return Note{}, invalidID()
	}
	changes, err := patch.Changes()
	if err != nil {
		return Note{}, err
	}
	n, err := s.store.UpdateNote(ctx, owner, id, changes, s.now().UTC())
	if err != nil {
		return Note{}, storageError("patch note", err)
	}
	return n, nil
}

// Delete removes one of the caller's notes.
func (s *Service) Delete(ctx context.Context, id int64) error {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return err
	}
	if id <= 0 {
		return invalidID()
	}
	if err := s.store.DeleteNote(ctx, owner, id); err != nil {
		return storageError("delete note", err)
	}
	return nil
}

// Search returns the caller's notes whose title or text contains query,
// most recently modified first.
func (s *Service) Search(ctx context.Context, query string) ([]Note, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrQueryRequired
	}
	notes, err := s.store.SearchNotes(ctx, owner, norm.NFC.String(query))
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("search notes: %w", err))
	}
	return notes, nil
}

func ownerFrom(ctx context.Context) (int64, error) {
	identity, ok := requestctx.IdentityFromContext(ctx)
	if !ok {
		return 0, ErrUnauthenticated
	}
	return identity.UserID, nil
}

func storageError(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return apperrors.Internal(fmt.Errorf("%s: %w", op, err))
}
