package account

import (
	"time"

	"golang.org/x/text/unicode/norm"

	apperrors "github.com/louisbranch/notekeep/internal/platform/errors"
	"github.com/louisbranch/notekeep/internal/platform/validate"
)

// User is a registered identity.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Page is one page of users, newest first.
type Page struct {
	Users         []User
	NextPageToken string
}

// SignupInput is the payload for creating an account.
type SignupInput struct {
	Name     string `json:"name" validate:"min=2,max=50"`
	Email    string `json:"email" validate:"email"`
	Password string `json:"password" validate:"min=6,max=100"`
}

// LoginInput is the payload for exchanging credentials for a token.
type LoginInput struct {
	Email    string `json:"email" validate:"email"`
	Password string `json:"password" validate:"required"`
}

// Normalize returns the input with every field in NFC form.
func (in SignupInput) Normalize() SignupInput {
	return SignupInput{
		Name:     norm.NFC.String(in.Name),
		Email:    norm.NFC.String(in.Email),
		Password: norm.NFC.String(in.Password),
	}
}

// Validate reports field-scoped failures for a normalized input.
func (in SignupInput) Validate() error {
	return validationError(validate.Struct(in, nil))
}

// Normalize returns the input with every field in NFC form.
func (in LoginInput) Normalize() LoginInput {
	return LoginInput{
		Email:    norm.NFC.String(in.Email),
		Password: norm.NFC.String(in.Password),
	}
}

// Validate reports field-scoped failures for a normalized input.
func (in LoginInput) Validate() error {
	return validationError(validate.Struct(in, nil))
}

func validationError(fields apperrors.FieldErrors) error {
	if len(fields) == 0 {
		return nil
	}
	return apperrors.WithFields(apperrors.CodeValidation, "Validation failed", fields)
}
