package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"multistep-rag-be/pkg/rag"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationError lists the failing fields of a request DTO
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, msg := range e.Fields {
		parts = append(parts, msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ValidateRequest checks validate tags. A blank required question is reported as
// rag.ErrEmptyQuestion so both HTTP and WebSocket callers see the same error kind.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if fe.Field() == "Question" && fe.Tag() == "required" {
			return rag.ErrEmptyQuestion
		}
		switch fe.Tag() {
		case "required":
			fields[fe.Field()] = fmt.Sprintf("%s is required", fe.Field())
		case "max":
			fields[fe.Field()] = fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		default:
			fields[fe.Field()] = fmt.Sprintf("%s validation failed on '%s' tag", fe.Field(), fe.Tag())
		}
	}
	return &ValidationError{Fields: fields}
}
