// Package validate turns struct-tag validation failures into field-scoped
// messages.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/louisbranch/notekeep/internal/platform/errors"
)

// Messages maps "field.tag" (for example "title.max") to a client message.
// Failures without an entry fall back to a generic message for the tag.
type Messages map[string]string

var engine = newEngine()

func newEngine() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// Struct validates value against its `validate` tags. It returns nil when
// the value is valid.
func Struct(value any, messages Messages) apperrors.FieldErrors {
	err := engine.Struct(value)
	if err == nil {
		return nil
	}
	fields := apperrors.FieldErrors{}
	collect(err, "", messages, fields)
	return fields
}

// Field validates a single value against tag and records failures under
// field in into. It reports whether the value was valid.
func Field(into apperrors.FieldErrors, field string, value any, tag string, messages Messages) bool {
	err := engine.Var(value, tag)
	if err == nil {
		return true
	}
	collect(err, field, messages, into)
	return false
}

func collect(err error, field string, messages Messages, into apperrors.FieldErrors) {
	var failures validator.ValidationErrors
	if !errors.As(err, &failures) {
		name := field
		if name == "" {
			name = "body"
		}
		into.Add(name, "is invalid")
		return
	}
	for _, failure := range failures {
		name := field
		if name == "" {
			name = failure.Field()
		}
		into.Add(name, message(name, failure.Tag(), failure.Param(), messages))
	}
}

func message(field, tag, param string, messages Messages) string {
	if msg, ok := messages[field+"."+tag]; ok {
		return msg
	}
	label := field
	if label != "" {
		label = strings.ToUpper(label[:1]) + label[1:]
	}
	switch tag {
	case "required":
		return label + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, param)
	case "max":
		return fmt.Sprintf("%s can be at most %s characters", label, param)
	case "email":
		return "Must be a valid email address"
	default:
		return label + " is invalid"
	}
}
