package validator

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Field limits enforced by the profile endpoints
const (
	MaxNameLength     = 50
	MaxBioLength      = 1000
	MaxLocationLength = 100
	MinPasswordLength = 6
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var msgs []string
	for _, e := range v {
		msgs = append(msgs, e.Field+": "+e.Message)
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any errors
func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

// Add adds a validation error
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, ValidationError{Field: field, Message: message})
}

// Err returns v as an error, or nil when empty
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// ValidateEmail validates an email address
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(strings.TrimSpace(email))
}

// MaxLength adds an error when s is longer than max characters
func (v *ValidationErrors) MaxLength(field, s string, max int) {
	if utf8.RuneCountInString(s) > max {
		v.Add(field, fmt.Sprintf("must be at most %d characters", max))
	}
}

// Required adds an error when s is blank
func (v *ValidationErrors) Required(field, s string) {
	if strings.TrimSpace(s) == "" {
		v.Add(field, "is required")
	}
}

// ValidateRegistration checks the sign-up form
func ValidateRegistration(firstName, lastName, email, password, confirm string) ValidationErrors {
	var errs ValidationErrors

	errs.Required("firstName", firstName)
	errs.MaxLength("firstName", strings.TrimSpace(firstName), MaxNameLength)
	errs.Required("lastName", lastName)
	errs.MaxLength("lastName", strings.TrimSpace(lastName), MaxNameLength)

	if strings.TrimSpace(email) == "" {
		errs.Add("email", "is required")
	} else if !ValidateEmail(email) {
		errs.Add("email", "is invalid")
	}

	if len(password) < MinPasswordLength {
		errs.Add("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}
	if password != confirm {
		errs.Add("confirmPassword", "passwords do not match")
	}

	return errs
}

// ValidateProfile checks the editable scalar profile fields.
// Nil fields are not being changed and are skipped.
func ValidateProfile(firstName, lastName, bio, location *string) ValidationErrors {
	var errs ValidationErrors

	if firstName != nil {
		errs.Required("firstName", *firstName)
		errs.MaxLength("firstName", *firstName, MaxNameLength)
	}
	if lastName != nil {
		errs.Required("lastName", *lastName)
		errs.MaxLength("lastName", *lastName, MaxNameLength)
	}
	if bio != nil {
		errs.MaxLength("bio", *bio, MaxBioLength)
	}
	if location != nil {
		errs.MaxLength("location", *location, MaxLocationLength)
	}

	return errs
}

// SanitizeEmail normalizes an email address
func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
