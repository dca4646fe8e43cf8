// Package validate wraps go-playground/validator with the gym's custom rules
// and turns validation failures into apperr validation errors.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"recogym/internal/apperr"
)

const maxTextLength = 1000

var (
	codePattern  = regexp.MustCompile(`^[A-Z]{1,3}\d{1,4}$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s\-\(\)]{8,20}$`)

	v = newValidator()
)

// FieldError describes one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func newValidator() *validator.Validate {
	val := validator.New()
	_ = val.RegisterValidation("code", func(fl validator.FieldLevel) bool {
		return IsCode(fl.Field().String())
	})
	_ = val.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || IsPhone(s)
	})
	return val
}

// IsCode reports whether s is a human-readable id such as S001 or ENT12.
func IsCode(s string) bool {
	return codePattern.MatchString(strings.ToUpper(strings.TrimSpace(s)))
}

func IsPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// Fields validates s and returns one entry per failed rule.
func Fields(s interface{}) []FieldError {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

// Struct validates s and returns an apperr validation error listing the failures.
func Struct(s interface{}) error {
	fields := Fields(s)
	if len(fields) == 0 {
		return nil
	}

	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, f.Message)
	}
	return apperr.Validation("%s", strings.Join(msgs, "; "))
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "code":
		return fe.Field() + " must look like S001 (1-3 letters, 1-4 digits)"
	case "phone":
		return fe.Field() + " is not a valid phone number"
	case "email":
		return fe.Field() + " is not a valid email address"
	default:
		return fe.Field() + " is invalid"
	}
}

// Text trims surrounding whitespace and caps the length of free-text input.
func Text(s string) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) > maxTextLength {
		s = string(r[:maxTextLength])
	}
	return s
}

// Search keeps letters, digits, spaces and dashes of a search query, capped at 100 runes.
func Search(q string) string {
	var b strings.Builder
	n := 0
	for _, r := range strings.TrimSpace(q) {
		if n >= 100 {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' {
			b.WriteRune(r)
			n++
		}
	}
	return strings.TrimSpace(b.String())
}

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Date parses a calendar date in the server location.
func Date(field, s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, apperr.Validation("%s must be a date formatted YYYY-MM-DD", field)
	}
	return t, nil
}
