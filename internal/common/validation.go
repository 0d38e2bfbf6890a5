package common

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/case-analyzer/constants"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Validator collects rule failures across several fields.
type Validator struct {
	errors []ValidationError
}

func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}
	messages := make([]string, 0, len(v.errors))
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// Err wraps the collected failures as an AppError carrying ErrValidation, or nil.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	return NewAppError("VALIDATION_ERROR", v.ErrorMessage(), ErrValidation)
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *ValidationError

func Required(fieldName string, value interface{}) *ValidationError {
	if value == nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	}
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	}
	return nil
}

// MaxBytes rejects int64 sizes above limit.
func MaxBytes(limit int64) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		size, ok := value.(int64)
		if !ok {
			return nil
		}
		if size > limit {
			return &ValidationError{
				Field:   fieldName,
				Value:   value,
				Message: fmt.Sprintf("exceeds maximum of %d bytes", limit),
			}
		}
		return nil
	}
}

// AllowedDocument accepts filenames whose extension is an allowed upload type.
func AllowedDocument(fieldName string, value interface{}) *ValidationError {
	name, ok := value.(string)
	if !ok {
		return nil
	}
	ext := constants.NormalizeExt(filepath.Ext(name))
	if _, ok := constants.AllowedExtensions[ext]; !ok {
		return &ValidationError{
			Field:   fieldName,
			Value:   value,
			Message: "invalid file type; only PDF, TXT, DOC or DOCX files are allowed",
		}
	}
	return nil
}

var reCaseID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,127}$`)

// CaseID guards record lookups against path traversal and junk ids.
func CaseID(fieldName string, value interface{}) *ValidationError {
	id, ok := value.(string)
	if !ok {
		return nil
	}
	if !reCaseID.MatchString(id) {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be an alphanumeric case id"}
	}
	return nil
}
