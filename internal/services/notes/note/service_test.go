package note

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	apperrors "github.com/louisbranch/notekeep/internal/platform/errors"
	"github.com/louisbranch/notekeep/internal/platform/requestctx"
	"github.com/louisbranch/notekeep/internal/services/notes/storage"
)

var baseTime = time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)

type memoryStore struct {
	notes   map[int64]Note
	nextID  int64
	calls   int
	updates [][]Change
	failErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{notes: map[int64]Note{}}
}

func (s *memoryStore) ListNotes(_ context.Context, ownerID int64) ([]Note, error) {
	s.calls++
	if s.failErr != nil {
		return nil, s.failErr
	}
	var out []Note
	for _, n := range s.notes {
		if n.OwnerID == ownerID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *memoryStore) GetNote(_ context.Context, ownerID, id int64) (Note, error) {
	s.calls++
	n, ok := s.notes[id]
	if !ok || n.OwnerID != ownerID {
		return Note{}, storage.ErrNotFound
	}
	return n, nil
}

func (s *memoryStore) CreateNote(_ context.Context, n Note) (Note, error) {
	s.calls++
	if s.failErr != nil {
		return Note{}, s.failErr
	}
	s.nextID++
	n.ID = s.nextID
	s.notes[n.ID] = n
	return n, nil
}

func (s *memoryStore) UpdateNote(_ context.Context, ownerID, id int64, changes []Change, modifiedAt time.Time) (Note, error) {
	s.calls++
	s.updates = append(s.updates, changes)
	n, ok := s.notes[id]
	if !ok || n.OwnerID != ownerID {
		return Note{}, storage.ErrNotFound
	}
	for _, change := range changes {
		switch change.Field {
		case FieldTitle:
			n.Title = change.Value
		case FieldText:
			n.Text = change.Value
		}
	}
	n.ModifiedAt = modifiedAt
	s.notes[id] = n
	return n, nil
}

func (s *memoryStore) DeleteNote(_ context.Context, ownerID, id int64) error {
	s.calls++
	n, ok := s.notes[id]
	if !ok || n.OwnerID != ownerID {
		return storage.ErrNotFound
	}
	delete(s.notes, id)
	return nil
}

func (s *memoryStore) SearchNotes(_ context.Context, ownerID int64, query string) ([]Note, error) {
	s.calls++
	var out []Note
	needle := strings.ToLower(query)
	for _, n := range s.notes {
		if n.OwnerID != ownerID {
			continue
		}
		if strings.Contains(strings.ToLower(n.Title), needle) || strings.Contains(strings.ToLower(n.Text), needle) {
			out = append(out, n)
		}
	}
	return out, nil
}

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(time.Minute)
	return c.now
}

func ownerCtx(id int64) context.Context {
	return requestctx.WithIdentity(context.Background(), requestctx.Identity{UserID: id, Email: "owner@x.com"})
}

func TestServiceRequiresIdentity(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	checks := map[string]error{}
	_, checks["list"] = svc.List(ctx)
	_, checks["get"] = svc.Get(ctx, 1)
	_, checks["create"] = svc.Create(ctx, Input{Title: "a", Text: "b"})
	_, checks["replace"] = svc.Replace(ctx, 1, Input{Title: "a", Text: "b"})
	_, checks["patch"] = svc.Patch(ctx, 1, Patch{Title: Some("a")})
	checks["delete"] = svc.Delete(ctx, 1)
	_, checks["search"] = svc.Search(ctx, "a")
	for op, err := range checks {
		if !apperrors.HasCode(err, apperrors.CodeUnauthenticated) {
			t.Fatalf("%s: expected unauthenticated, got %v", op, err)
		}
	}
	if store.calls != 0 {
		t.Fatalf("storage called %d times", store.calls)
	}
}

func TestCreateAndGet(t *testing.T) {
	clock := &stepClock{now: baseTime}
	store := newMemoryStore()
	svc := NewService(store, clock.Now)

	created, err := svc.Create(ownerCtx(1), Input{Title: "Hi", Text: "First"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != 1 || created.OwnerID != 1 {
		t.Fatalf("unexpected note: %+v", created)
	}
	if !created.CreatedAt.Equal(created.ModifiedAt) {
		t.Fatalf("expected created == modified on create, got %v / %v", created.CreatedAt, created.ModifiedAt)
	}

	got, err := svc.Get(ownerCtx(1), created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != created {
		t.Fatalf("get = %+v, want %+v", got, created)
	}
}

func TestCreateValidatesBeforeStorage(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	_, err := svc.Create(ownerCtx(1), Input{Title: strings.Repeat("t", 51), Text: "x"})
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if store.calls != 0 {
		t.Fatalf("storage called %d times", store.calls)
	}
}

func TestNonOwnerSeesNotFound(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	created, err := svc.Create(ownerCtx(1), Input{Title: "Mine", Text: "Private"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	intruder := ownerCtx(2)
	if _, err := svc.Get(intruder, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get: expected not found, got %v", err)
	}
	if _, err := svc.Replace(intruder, created.ID, Input{Title: "x", Text: "y"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("replace: expected not found, got %v", err)
	}
	if _, err := svc.Patch(intruder, created.ID, Patch{Title: Some("x")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("patch: expected not found, got %v", err)
	}
	if err := svc.Delete(intruder, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete: expected not found, got %v", err)
	}
	if _, err := svc.Get(intruder, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get missing: expected not found, got %v", err)
	}

	list, err := svc.List(intruder)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("intruder sees %d notes", len(list))
	}
	if stored := store.notes[created.ID]; stored.Title != "Mine" || stored.Text != "Private" {
		t.Fatalf("note changed by non-owner: %+v", stored)
	}
}

func TestPatchPreservesAbsentFields(t *testing.T) {
	clock := &stepClock{now: baseTime}
	store := newMemoryStore()
	svc := NewService(store, clock.Now)
	created, err := svc.Create(ownerCtx(1), Input{Title: "Hi", Text: "First"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	patched, err := svc.Patch(ownerCtx(1), created.ID, Patch{Text: Some("Second")})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if patched.Title != "Hi" || patched.Text != "Second" {
		t.Fatalf("unexpected patched note: %+v", patched)
	}
	if !patched.ModifiedAt.After(created.ModifiedAt) {
		t.Fatalf("modified_at not advanced: %v -> %v", created.ModifiedAt, patched.ModifiedAt)
	}
	if !patched.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("created_at changed: %v -> %v", created.CreatedAt, patched.CreatedAt)
	}
}

func TestPatchRejectsBeforeStorage(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	for name, patch := range map[string]Patch{
		"empty":      {},
		"null title": {Title: Null[string]()},
		"empty text": {Text: Some("")},
	} {
		if _, err := svc.Patch(ownerCtx(1), 1, patch); !apperrors.HasCode(err, apperrors.CodeValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
	if store.calls != 0 {
		t.Fatalf("storage called %d times", store.calls)
	}
}

func TestReplaceSendsBothFields(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	created, err := svc.Create(ownerCtx(1), Input{Title: "Hi", Text: "First"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	replaced, err := svc.Replace(ownerCtx(1), created.ID, Input{Title: "New", Text: "Body"})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if replaced.Title != "New" || replaced.Text != "Body" {
		t.Fatalf("unexpected note: %+v", replaced)
	}
	if len(store.updates) != 1 || len(store.updates[0]) != 2 {
		t.Fatalf("unexpected updates: %+v", store.updates)
	}
	if _, err := svc.Replace(ownerCtx(1), created.ID, Input{Title: "Only"}); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteThenGet(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	created, err := svc.Create(ownerCtx(1), Input{Title: "Hi", Text: "First"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ownerCtx(1), created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ownerCtx(1), created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: expected not found, got %v", err)
	}
	if _, err := svc.Get(ownerCtx(1), created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get: expected not found, got %v", err)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	for _, q := range []string{"", "   ", "\t\n"} {
		_, err := svc.Search(ownerCtx(1), q)
		if err != ErrQueryRequired {
			t.Fatalf("query %q: expected ErrQueryRequired, got %v", q, err)
		}
	}
	if store.calls != 0 {
		t.Fatalf("storage called %d times", store.calls)
	}
}

func TestNonPositiveIDIsValidationError(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	if _, err := svc.Get(ownerCtx(1), 0); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := svc.Delete(ownerCtx(1), -1); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStorageFailureIsInternal(t *testing.T) {
	store := newMemoryStore()
	store.failErr = errors.New("database is locked")
	svc := NewService(store, nil)
	_, err := svc.Create(ownerCtx(1), Input{Title: "a", Text: "b"})
	if !apperrors.HasCode(err, apperrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if _, err := svc.List(ownerCtx(1)); !apperrors.HasCode(err, apperrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestPatchMergeProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := newMemoryStore()
		svc := NewService(store, (&stepClock{now: baseTime}).Now)
		ctx := ownerCtx(1)
		created, err := svc.Create(ctx, Input{
			Title: rapid.StringMatching(`[a-z]{1,50}`).Draw(rt, "title"),
			Text:  rapid.StringMatching(`[a-z ]{1,300}`).Draw(rt, "text"),
		})
		if err != nil {
			rt.Fatalf("create: %v", err)
		}

		var patch Patch
		wantTitle, wantText := created.Title, created.Text
		if rapid.Bool().Draw(rt, "set_title") {
			wantTitle = rapid.StringMatching(`[A-Z]{1,50}`).Draw(rt, "new_title")
			patch.Title = Some(wantTitle)
		}
		if rapid.Bool().Draw(rt, "set_text") {
			wantText = rapid.StringMatching(`[A-Z ]{1,300}`).Draw(rt, "new_text")
			patch.Text = Some(wantText)
		}

		patched, err := svc.Patch(ctx, created.ID, patch)
		if !patch.Title.IsSet() && !patch.Text.IsSet() {
			if err != ErrEmptyPatch {
				rt.Fatalf("expected ErrEmptyPatch, got %v", err)
			}
			return
		}
		if err != nil {
			rt.Fatalf("patch: %v", err)
		}
		if patched.Title != wantTitle || patched.Text != wantText {
			rt.Fatalf("patched = %+v, want title=%q text=%q", patched, wantTitle, wantText)
		}
		if !patched.ModifiedAt.After(created.ModifiedAt) {
			rt.Fatalf("modified_at did not advance")
		}
	})
}
