// Package validate wraps go-playground/validator with the planner's custom
// tags and converts its errors into the domain error taxonomy.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	domerrors "github.com/garyellow/degree-planner/internal/errors"
)

var (
	// courseCodeRe matches canonical course codes such as COSC-2010 or
	// MATH-ELECTIVE-1.
	courseCodeRe = regexp.MustCompile(`^[A-Z]{2,8}-[A-Z0-9]{1,10}(-[A-Z0-9]{1,10})*$`)
	// userIDRe matches identifiers safe to use as file names and URL segments.
	userIDRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,63}$`)

	once     sync.Once
	instance *validator.Validate
)

// Validator returns the shared validator with custom tags registered:
//
//	coursecode  canonical course code (subject, dash, number)
//	userid      user identifier accepted by the HTTP surface
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("coursecode", func(fl validator.FieldLevel) bool {
			return courseCodeRe.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("userid", func(fl validator.FieldLevel) bool {
			return userIDRe.MatchString(fl.Field().String())
		})
		instance = v
	})
	return instance
}

// Struct validates s and returns a domain validation error on failure.
func Struct(s any) error {
	return Convert(Validator().Struct(s))
}

// UserID validates a user identifier.
func UserID(id string) error {
	if err := Validator().Var(id, "required,userid"); err != nil {
		return domerrors.NewValidationError("user", fmt.Sprintf("Invalid user id %q", id))
	}
	return nil
}

// CourseCode reports whether code is a canonical course code.
func CourseCode(code string) bool {
	return courseCodeRe.MatchString(code)
}

// Convert maps validator errors to domain errors. Missing required fields are
// reported together; otherwise the first failing field is reported.
func Convert(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	var missing []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		}
	}
	if len(missing) > 0 {
		return domerrors.MissingFieldsError(missing)
	}

	fe := verrs[0]
	return domerrors.NewValidationError(fe.Field(), describe(fe))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at most %s items", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "coursecode":
		return fmt.Sprintf("Invalid course code %q", fe.Value())
	case "userid":
		return fmt.Sprintf("Invalid user id %q", fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
