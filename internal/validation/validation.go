// Package validation builds the form and payload validator shared by the console.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/GoADConsole/GoADConsole/internal/directory"
)

// New returns a validator that additionally knows the "dn" tag, a parseable distinguished name.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// fixed tag and function, registration can not fail
	_ = v.RegisterValidation("dn", func(fl validator.FieldLevel) bool {
		_, err := directory.ParseDN(fl.Field().String())

		return err == nil
	})

	return v
}

// Messages turns a validation error into one readable line per failed field.
func Messages(err error) []string {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	out := make([]string, 0, len(verrs))

	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}

		switch fe.Tag() {
		case "required", "required_if":
			out = append(out, fmt.Sprintf("%s is required", field))
		case "dn":
			out = append(out, fmt.Sprintf("%s is not a valid distinguished name", field))
		case "min", "max", "len":
			out = append(out, fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param()))
		case "oneof":
			out = append(out, fmt.Sprintf("%s must be one of %s", field, fe.Param()))
		default:
			out = append(out, fmt.Sprintf("%s failed on %s", field, fe.Tag()))
		}
	}

	return out
}
