// internal/validation/validation_test.go
package validation

import (
	"testing"

	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestValidateRegistrationForm(t *testing.T) {
	form := models.RegistrationForm{
		Email:       "jo@example.com",
		Password:    "Str0ng!pass",
		ConfirmPass: "Str0ng!pass",
		FirstName:   "Jo",
		LastName:    "Okafor",
		AgreeTerms:  "on",
	}
	assert.Nil(t, ValidateStruct(form))
}

func TestValidateRegistrationFormErrorsKeyedByFormName(t *testing.T) {
	form := models.RegistrationForm{
		Email:       "not-an-email",
		Password:    "short",
		ConfirmPass: "different",
		FirstName:   "Jo3",
		LastName:    "Okafor",
		AgreeTerms:  "on",
	}
	errs := ValidateStruct(form)
	assert.NotEmpty(t, errs.Get("email"))
	assert.NotEmpty(t, errs.Get("password"))
	assert.NotEmpty(t, errs.Get("confirm_password"))
	assert.NotEmpty(t, errs.Get("first_name"))
	assert.Empty(t, errs.Get("last_name"))
}

func TestValidateCheckoutForm(t *testing.T) {
	assert.Nil(t, ValidateStruct(models.CheckoutForm{PlanCode: "growth"}))
	assert.Nil(t, ValidateStruct(models.CheckoutForm{PlanCode: "plan_2-lite"}))

	assert.NotEmpty(t, ValidateStruct(models.CheckoutForm{PlanCode: ""}).Get("plan"))
	assert.NotEmpty(t, ValidateStruct(models.CheckoutForm{PlanCode: "Growth"}).Get("plan"))
	assert.NotEmpty(t, ValidateStruct(models.CheckoutForm{PlanCode: "-bad"}).Get("plan"))
}
