// Package note enforces note ownership and merges sparse updates.
//
// Every operation reads the owner from the authenticated identity in the
// context. A note owned by someone else is reported exactly like a missing
// one.
package note

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	apperrors "github.com/louisbranch/notekeep/internal/platform/errors"
	"github.com/louisbranch/notekeep/internal/platform/validate"
)

// Note is a stored note.
type Note struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Text       string    `json:"text"`
	OwnerID    int64     `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Field names a mutable note column.
type Field string

const (
	FieldTitle Field = "title"
	FieldText  Field = "text"
)

// Change assigns Value to Field.
type Change struct {
	Field Field
	Value string
}

// Input is the payload for creating or fully replacing a note. Lengths are
// counted in code points.
type Input struct {
	Title string `json:"title" validate:"min=1,max=50"`
	Text  string `json:"text" validate:"min=1,max=300"`
}

// Patch is the payload for a partial update. Absent fields are left
// unchanged; present fields must be valid.
type Patch struct {
	Title Optional[string] `json:"title"`
	Text  Optional[string] `json:"text"`
}

var fieldMessages = validate.Messages{
	"title.min": "Title is required",
	"title.max": "Title can be max 50 characters",
	"text.min":  "Text is required",
	"text.max":  "Text can be max 300 characters",
}

var fieldTags = map[Field]string{
	FieldTitle: "min=1,max=50",
	FieldText:  "min=1,max=300",
}

// ErrEmptyPatch is returned when a patch names no fields.
var ErrEmptyPatch = apperrors.New(apperrors.CodeValidation, "At least one field (title or text) must be provided.")

// Normalize returns the input in NFC form.
func (in Input) Normalize() Input {
	return Input{Title: norm.NFC.String(in.Title), Text: norm.NFC.String(in.Text)}
}

// Validate reports field-scoped failures for a normalized input.
func (in Input) Validate() error {
	return validationError(validate.Struct(in, fieldMessages))
}

// Changes returns the assignments a patch requests, title before text, with
// values in NFC form.
func (p Patch) Changes() ([]Change, error) {
	if !p.Title.IsSet() && !p.Text.IsSet() {
		return nil, ErrEmptyPatch
	}
	fields := apperrors.FieldErrors{}
	changes := make([]Change, 0, 2)
	for _, candidate := range []struct {
		field Field
		value Optional[string]
	}{
		{field: FieldTitle, value: p.Title},
		{field: FieldText, value: p.Text},
	} {
		if !candidate.value.IsSet() {
			continue
		}
		raw, ok := candidate.value.Value()
		if !ok {
			fields.Add(string(candidate.field), label(candidate.field)+" must not be null")
			continue
		}
		value := norm.NFC.String(raw)
		if validate.Field(fields, string(candidate.field), value, fieldTags[candidate.field], fieldMessages) {
			changes = append(changes, Change{Field: candidate.field, Value: value})
		}
	}
	if err := validationError(fields); err != nil {
		return nil, err
	}
	return changes, nil
}

// ParseID parses a path id. Only positive integers are valid.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalidID()
	}
	return id, nil
}

func invalidID() error {
	return apperrors.WithFields(apperrors.CodeValidation, "Validation failed", apperrors.FieldErrors{
		"id": {"Id must be a positive integer"},
	})
}

func label(field Field) string {
	name := string(field)
	return strings.ToUpper(name[:1]) + name[1:]
}

func validationError(fields apperrors.FieldErrors) error {
	if len(fields) == 0 {
		return nil
	}
	return apperrors.WithFields(apperrors.CodeValidation, "Validation failed", fields)
}
