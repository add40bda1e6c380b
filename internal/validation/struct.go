package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "zonesheet/internal/errors"
	"zonesheet/pkg/contracts/domain"
)

// StructValidator validates struct tags and reports fields by their yaml
// or json names.
type StructValidator struct {
	validator *validator.Validate
}

// NewStructValidator creates a struct validator.
func NewStructValidator() *StructValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"yaml", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	return &StructValidator{validator: v}
}

// ValidateStruct returns a VALIDATION error listing every failed field.
func (s *StructValidator) ValidateStruct(v interface{}) error {
	err := s.validator.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewValidationError(err.Error())
	}
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, formatValidationError(fe))
	}
	return apperrors.NewValidationError(strings.Join(messages, "; "))
}

// ValidateMeta checks rate sheet metadata before any sheet is written.
func (s *StructValidator) ValidateMeta(meta domain.SheetMeta) error {
	return s.ValidateStruct(meta)
}

func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, param)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}
