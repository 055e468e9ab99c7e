// internal/validation/validation.go
package validation

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/auth"
)

var validate *validator.Validate
var alphaSpaceRegex = regexp.MustCompile(`^[\p{L}\s-]+$`)
var planCodeRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

func init() {
	validate = validator.New()
	validate.RegisterValidation("complex_password", validateComplexPassword)
	validate.RegisterValidation("alpha_space", validateAlphaSpace)
	validate.RegisterValidation("plan_code", validatePlanCode)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidateStruct returns per-field error messages keyed by form name, or nil
// when the struct is valid.
func ValidateStruct(data interface{}) url.Values {
	err := validate.Struct(data)
	if err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) url.Values {
	errorsMap := url.Values{}
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fieldErr := range validationErrs {
			errorsMap.Add(fieldErr.Field(), getErrorMessage(fieldErr))
		}
	} else {
		errorsMap.Add("general", "Validation error: "+err.Error())
	}
	return errorsMap
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return fmt.Sprintf("Must be at least %s characters.", err.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters.", err.Param())
	case "eqfield":
		return fmt.Sprintf("Must match the %s field.", err.Param())
	case "complex_password":
		return "Password must contain letters, digits and symbols."
	case "alpha_space":
		return "Only letters, spaces and hyphens are allowed."
	case "plan_code":
		return "Unknown plan."
	default:
		return fmt.Sprintf("Invalid value for %s (rule: %s).", err.Field(), err.Tag())
	}
}

func validateAlphaSpace(fl validator.FieldLevel) bool {
	return alphaSpaceRegex.MatchString(fl.Field().String())
}

func validateComplexPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if password == "" {
		return true
	}
	return auth.IsPasswordComplex(password)
}

// validatePlanCode checks the shape only; existence is checked against the
// plan catalog by the checkout handler.
func validatePlanCode(fl validator.FieldLevel) bool {
	return planCodeRegex.MatchString(fl.Field().String())
}
