// Package service contains the application services that sit between the
// GraphQL resolvers and the store.
package service

import (
	"reflect"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/kirjastoapp/kirjasto-server/internal/errors"
)

// validate is a shared validator instance for request validation.
var validate = func() *validator.Validate {
	v := validator.New()
	// Use JSON tag names for field names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		// Remove any options (like omitempty, -)
		for i := range len(name) {
			if name[i] == ',' {
				return name[:i]
			}
		}
		return name
	})
	return v
}()

// formatValidationError converts validator errors into a user-input error
// carrying the offending arguments, so clients see which field was wrong.
func formatValidationError(err error, args map[string]any) error {
	var validationErrs validator.ValidationErrors
	if domainerrors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			field := e.Field()
			var domainErr *domainerrors.Error
			switch e.Tag() {
			case "required":
				domainErr = domainerrors.BadUserInputf("%s is required", field)
			case "min":
				domainErr = domainerrors.BadUserInputf("%s must be at least %s characters", field, e.Param())
			case "max":
				domainErr = domainerrors.BadUserInputf("%s exceeds maximum length of %s characters", field, e.Param())
			default:
				domainErr = domainerrors.BadUserInputf("%s is invalid", field)
			}
			return domainErr.WithInvalidArgs(args)
		}
	}
	return err
}
