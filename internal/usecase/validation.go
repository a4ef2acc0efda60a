package usecase

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is returned when a request body fails validation.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

var nonDigits = regexp.MustCompile(`\D`)

func ValidateCreateContactInput(input CreateContactInput) error {
	var errs ValidationErrors

	if strings.TrimSpace(input.FirstName) == "" && strings.TrimSpace(input.LastName) == "" &&
		strings.TrimSpace(input.Email) == "" && strings.TrimSpace(input.Phone) == "" {
		errs = append(errs, ValidationError{"contact", "a name, email or phone is required"})
	}

	if len(input.FirstName) > 200 {
		errs = append(errs, ValidationError{"firstName", "must not exceed 200 characters"})
	}
	if len(input.LastName) > 200 {
		errs = append(errs, ValidationError{"lastName", "must not exceed 200 characters"})
	}

	if strings.TrimSpace(input.Email) != "" {
		if _, err := mail.ParseAddress(input.Email); err != nil {
			errs = append(errs, ValidationError{"email", "is invalid"})
		}
	}

	if strings.TrimSpace(input.Phone) != "" && !isValidPhoneNumber(input.Phone) {
		errs = append(errs, ValidationError{"phone", "must be a valid phone number"})
	}

	return errs.orNil()
}

func ValidateCreateOpportunityInput(input CreateOpportunityInput) error {
	var errs ValidationErrors

	if len(input.Name) > 200 {
		errs = append(errs, ValidationError{"name", "must not exceed 200 characters"})
	}
	if input.Value < 0 {
		errs = append(errs, ValidationError{"value", "must not be negative"})
	}

	return errs.orNil()
}

func ValidateCreateCheckoutInput(input CreateCheckoutInput) error {
	var errs ValidationErrors

	if strings.TrimSpace(input.PriceID) == "" {
		errs = append(errs, ValidationError{"priceId", "is required"})
	}
	if strings.TrimSpace(input.UserID) == "" {
		errs = append(errs, ValidationError{"userId", "is required"})
	}
	if strings.TrimSpace(input.Email) == "" {
		errs = append(errs, ValidationError{"email", "is required"})
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		errs = append(errs, ValidationError{"email", "is invalid"})
	}

	return errs.orNil()
}

// E.164 allows up to 15 digits.
func isValidPhoneNumber(phone string) bool {
	cleaned := nonDigits.ReplaceAllString(phone, "")
	return len(cleaned) >= 7 && len(cleaned) <= 15
}
