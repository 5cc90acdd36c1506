package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/benvon/smart-todo-client/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate

	// ErrTitleRequired is returned when a todo title is empty or whitespace
	ErrTitleRequired = errors.New("title is required")
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("nonblank", validateNonBlank); err != nil {
		panic(fmt.Sprintf("failed to register nonblank validator: %v", err))
	}
}

// validateNonBlank rejects strings that are empty after trimming whitespace
func validateNonBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// TodoCreate checks a create request before it is sent
func TodoCreate(req models.TodoCreate) error {
	if err := Validate.Struct(req); err != nil {
		return ErrTitleRequired
	}
	return nil
}

// TodoUpdate checks that a title, when present, is not blank
func TodoUpdate(req models.TodoUpdate) error {
	if err := Validate.Struct(req); err != nil {
		return ErrTitleRequired
	}
	return nil
}

// Struct validates any request model and flattens the first failure into a
// readable message
func Struct(v any) error {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required", "nonblank":
		return fmt.Errorf("%s is required", field)
	case "email":
		return fmt.Errorf("%s must be a valid email address", field)
	default:
		return fmt.Errorf("%s is invalid", field)
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}
