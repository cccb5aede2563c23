// Package checkout validates checkout forms, turns carts into orders and
// settles orders when their payment completes.
package checkout

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Form is the checkout form body.
type Form struct {
	Email         string `json:"email" validate:"required,email"`
	FirstName     string `json:"firstName" validate:"min=2"`
	LastName      string `json:"lastName" validate:"min=2"`
	Country       string `json:"country" validate:"min=1"`
	Address       string `json:"address" validate:"min=5"`
	City          string `json:"city" validate:"min=2"`
	PostalCode    string `json:"postalCode" validate:"min=3"`
	PaymentMethod string `json:"paymentMethod" validate:"oneof=mpesa paypal"`
	AgreeToTerms  bool   `json:"agreeToTerms" validate:"eq=true"`
	PromoCode     string `json:"promoCode"`
}

var fieldMessages = map[string]string{
	"email":         "Please enter a valid email address",
	"firstName":     "First name must be at least 2 characters",
	"lastName":      "Last name must be at least 2 characters",
	"country":       "Please select a country",
	"address":       "Please enter a valid address",
	"city":          "Please enter a valid city",
	"postalCode":    "Please enter a valid postal code",
	"paymentMethod": "Please select a payment method",
	"agreeToTerms":  "You must agree to the terms and conditions",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate trims the form in place and returns one message per invalid
// field, keyed by JSON name. A nil map means the form is valid.
func (f *Form) Validate() map[string]string {
	for _, s := range []*string{&f.Email, &f.FirstName, &f.LastName, &f.Country,
		&f.Address, &f.City, &f.PostalCode, &f.PaymentMethod, &f.PromoCode} {
		*s = strings.TrimSpace(*s)
	}

	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"form": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fieldMessages[fe.Field()]
	}
	return out
}

// CustomerName is "First Last".
func (f *Form) CustomerName() string {
	return strings.TrimSpace(f.FirstName + " " + f.LastName)
}
