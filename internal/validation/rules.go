// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"

	"blogpose/internal/models"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex    = regexp.MustCompile(`^0[0-9]{10}$`)
)

var genders = map[string]bool{"male": true, "female": true, "not_say": true}

// Rule checks a single field and reports zero or one problem with it.
// Rules are pure: same input, same result, no I/O.
type Rule func() *models.FieldError

// Collect runs every rule and gathers all failures so a form can show
// them at once.
func Collect(rules ...Rule) []models.FieldError {
	var errs []models.FieldError
	for _, rule := range rules {
		if fe := rule(); fe != nil {
			errs = append(errs, *fe)
		}
	}
	return errs
}

func fail(field, format string, args ...interface{}) *models.FieldError {
	return &models.FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Required fails on the empty string.
func Required(field, value string) Rule {
	return func() *models.FieldError {
		if value == "" {
			return fail(field, "%s is required", field)
		}
		return nil
	}
}

// Length enforces an inclusive byte-length range on a non-empty value.
func Length(field, value string, min, max int) Rule {
	return func() *models.FieldError {
		if value == "" {
			return fail(field, "%s is required", field)
		}
		if len(value) < min || len(value) > max {
			return fail(field, "%s must be between %d and %d characters", field, min, max)
		}
		return nil
	}
}

// OptionalLength is Length for fields that may be left blank.
func OptionalLength(field, value string, min, max int) Rule {
	return func() *models.FieldError {
		if value == "" {
			return nil
		}
		if len(value) < min || len(value) > max {
			return fail(field, "%s must be between %d and %d characters", field, min, max)
		}
		return nil
	}
}

// Username enforces 7-35 characters of letters, digits, underscores and
// hyphens.
func Username(value string) Rule {
	return func() *models.FieldError {
		if len(value) < 7 || len(value) > 35 {
			return fail("username", "username must be between 7 and 35 characters")
		}
		if !usernameRegex.MatchString(value) {
			return fail("username", "username can only contain letters, numbers, underscores, and hyphens")
		}
		return nil
	}
}

// Email checks basic address shape.
func Email(value string) Rule {
	return func() *models.FieldError {
		if len(value) > 254 || !emailRegex.MatchString(value) {
			return fail("email", "invalid email format")
		}
		return nil
	}
}

// Password enforces the 10-40 character window.
func Password(field, value string) Rule {
	return func() *models.FieldError {
		if len(value) < 10 || len(value) > 40 {
			return fail(field, "password must be between 10 and 40 characters")
		}
		return nil
	}
}

// PasswordConfirm fails when the confirmation does not match.
func PasswordConfirm(password, confirm string) Rule {
	return func() *models.FieldError {
		if password != confirm {
			return fail("confirm_password", "passwords do not match")
		}
		return nil
	}
}

// Phone accepts a leading zero followed by exactly ten digits. Blank is
// allowed.
func Phone(value string) Rule {
	return func() *models.FieldError {
		if value == "" {
			return nil
		}
		if !phoneRegex.MatchString(value) {
			return fail("phone_number", "phone number must start with 0 and contain 11 digits")
		}
		return nil
	}
}

// Gender restricts the value to the known choices. Blank is allowed.
func Gender(value string) Rule {
	return func() *models.FieldError {
		if value == "" {
			return nil
		}
		if !genders[value] {
			return fail("gender", "gender must be one of male, female, not_say")
		}
		return nil
	}
}
