package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/notekeep/internal/services/notes/note"
	"github.com/louisbranch/notekeep/internal/services/notes/storage"
)

const noteColumns = "id, title, text, user_id, created_at, modified_at"

// noteColumnByField is the closed set of columns an update may assign.
var noteColumnByField = map[note.Field]string{
	note.FieldTitle: "title",
	note.FieldText:  "text",
}

// ListNotes returns the owner's notes, newest created first.
func (s *Store) ListNotes(ctx context.Context, ownerID int64) ([]note.Note, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return collectNotes(rows)
}

// GetNote returns the note with id when ownerID owns it.
func (s *Store) GetNote(ctx context.Context, ownerID, id int64) (note.Note, error) {
	if err := s.ready(ctx); err != nil {
		return note.Note{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	n, err := scanNote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return note.Note{}, storage.ErrNotFound
		}
		return note.Note{}, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

// CreateNote inserts n and returns the stored row.
func (s *Store) CreateNote(ctx context.Context, n note.Note) (note.Note, error) {
	if err := s.ready(ctx); err != nil {
		return note.Note{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`INSERT INTO notes (title, text, user_id, created_at, modified_at)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING `+noteColumns,
		n.Title, n.Text, n.OwnerID, toMillis(n.CreatedAt), toMillis(n.ModifiedAt),
	)
	created, err := scanNote(row)
	if err != nil {
		return note.Note{}, fmt.Errorf("insert note: %w", err)
	}
	return created, nil
}

// UpdateNote applies changes to the owner's note and stamps modifiedAt.
func (s *Store) UpdateNote(ctx context.Context, ownerID, id int64, changes []note.Change, modifiedAt time.Time) (note.Note, error) {
	if err := s.ready(ctx); err != nil {
		return note.Note{}, err
	}
	query, args, err := buildNoteUpdate(ownerID, id, changes, modifiedAt)
	if err != nil {
		return note.Note{}, err
	}
	updated, err := scanNote(s.sqlDB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return note.Note{}, storage.ErrNotFound
		}
		return note.Note{}, fmt.Errorf("update note: %w", err)
	}
	return updated, nil
}

// DeleteNote removes the owner's note.
func (s *Store) DeleteNote(ctx context.Context, ownerID, id int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM notes WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete note rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SearchNotes returns the owner's notes whose title or text contains query
// under Unicode case folding, most recently modified first.
func (s *Store) SearchNotes(ctx context.Context, ownerID int64, query string) ([]note.Note, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	pattern := "%" + escapeLike(foldString(query)) + "%"
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes
		 WHERE user_id = ? AND (`+foldFunction+`(title) LIKE ? ESCAPE '\' OR `+foldFunction+`(text) LIKE ? ESCAPE '\')
		 ORDER BY modified_at DESC, id DESC`,
		ownerID, pattern, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	return collectNotes(rows)
}

// buildNoteUpdate renders one owner-scoped UPDATE from ordered changes.
// Column names come only from noteColumnByField; every value is a
// placeholder. modified_at always moves forward by at least one
// millisecond, even when the clock has not.
func buildNoteUpdate(ownerID, id int64, changes []note.Change, modifiedAt time.Time) (string, []any, error) {
	if len(changes) == 0 {
		return "", nil, fmt.Errorf("update note: no changes")
	}
	assignments := make([]string, 0, len(changes)+1)
	args := make([]any, 0, len(changes)+3)
	seen := make(map[note.Field]bool, len(changes))
	for _, change := range changes {
		column, ok := noteColumnByField[change.Field]
		if !ok {
			return "", nil, fmt.Errorf("update note: unknown field %q", change.Field)
		}
		if seen[change.Field] {
			return "", nil, fmt.Errorf("update note: duplicate field %q", change.Field)
		}
		seen[change.Field] = true
		assignments = append(assignments, column+" = ?")
		args = append(args, change.Value)
	}
	assignments = append(assignments, "modified_at = MAX(?, modified_at + 1)")
	args = append(args, toMillis(modifiedAt), id, ownerID)

	query := "UPDATE notes SET " + strings.Join(assignments, ", ") +
		" WHERE id = ? AND user_id = ? RETURNING " + noteColumns
	return query, args, nil
}

// escapeLike escapes LIKE metacharacters so value matches literally under
// ESCAPE '\'.
func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}

func collectNotes(rows *sql.Rows) ([]note.Note, error) {
	defer rows.Close()
	notes := make([]note.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

func scanNote(row rowScanner) (note.Note, error) {
	var (
		n          note.Note
		createdAt  int64
		modifiedAt int64
	)
	if err := row.Scan(&n.ID, &n.Title, &n.Text, &n.OwnerID, &createdAt, &modifiedAt); err != nil {
		return note.Note{}, err
	}
	n.CreatedAt = fromMillis(createdAt)
	n.ModifiedAt = fromMillis(modifiedAt)
	return n, nil
}
