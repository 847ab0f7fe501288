package validation

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	emailPattern      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	namePattern       = regexp.MustCompile(`^[a-zA-Z\s\-']+$`)
	nonDigitPattern   = regexp.MustCompile(`\D`)
	upperPattern      = regexp.MustCompile(`[A-Z]`)
	lowerPattern      = regexp.MustCompile(`[a-z]`)
	digitPattern      = regexp.MustCompile(`[0-9]`)
	specialPattern    = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>/?]`)
	validGenders      = []string{"male", "female", "other", "prefer_not_to_say"}
	dateOfBirthLayout = "2006-01-02"
)

// Field validators check a single raw value and return a user-facing
// message, or the empty string when the value is acceptable. They are
// pure functions and safe to call concurrently.

// FieldLabel derives a display label from a submission field name:
// underscores become spaces and each word is title-cased.
func FieldLabel(field string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(field, "_", " "))
}

// RequiredFields returns one message per field that is missing, empty,
// or whitespace-only in the submission, in the order given.
func RequiredFields(data map[string]string, fields []string) []string {
	var errs []string
	for _, field := range fields {
		value, ok := data[field]
		if !ok || strings.TrimSpace(value) == "" {
			errs = append(errs, FieldLabel(field)+" is required")
		}
	}
	return errs
}

// Email validates an email address format.
func Email(email string) string {
	if email == "" {
		return "Email is required"
	}
	if !emailPattern.MatchString(email) {
		return "Please enter a valid email address"
	}
	return ""
}

// Phone validates a phone number, ignoring formatting characters.
func Phone(phone string) string {
	if phone == "" {
		return "Phone number is required"
	}
	digits := nonDigitPattern.ReplaceAllString(phone, "")
	if len(digits) < 10 {
		return "Phone number must be at least 10 digits"
	}
	if len(digits) > 15 {
		return "Phone number is too long"
	}
	return ""
}

// Password validates password strength. Checks run in order and the
// first violation wins.
func Password(password string) string {
	if password == "" {
		return "Password is required"
	}
	if len(password) < 8 {
		return "Password must be at least 8 characters long"
	}
	if !upperPattern.MatchString(password) {
		return "Password must contain at least one uppercase letter"
	}
	if !lowerPattern.MatchString(password) {
		return "Password must contain at least one lowercase letter"
	}
	if !digitPattern.MatchString(password) {
		return "Password must contain at least one number"
	}
	if !specialPattern.MatchString(password) {
		return "Password must contain at least one special character (!@#$%^&*)"
	}
	return ""
}

// DateOfBirth validates an ISO date string and enforces the 13-120 year
// age range for patient accounts.
func DateOfBirth(dob string) string {
	if dob == "" {
		return "Date of birth is required"
	}

	born, err := time.Parse(dateOfBirthLayout, dob)
	if err != nil {
		return "Please enter a valid date in YYYY-MM-DD format"
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if born.After(today) {
		return "Date of birth cannot be in the future"
	}

	age := today.Year() - born.Year()
	if today.Month() < born.Month() ||
		(today.Month() == born.Month() && today.Day() < born.Day()) {
		age--
	}

	if age < 13 {
		return "Patient must be at least 13 years old"
	}
	if age > 120 {
		return "Please enter a valid date of birth"
	}
	return ""
}

// Name validates a person name. The label parameterizes the messages so
// the same rules serve first name, last name, and emergency contacts.
func Name(name, label string) string {
	if name == "" {
		return label + " is required"
	}
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < 2 {
		return label + " must be at least 2 characters long"
	}
	if len(trimmed) > 50 {
		return label + " must be less than 50 characters"
	}
	if !namePattern.MatchString(name) {
		return label + " can only contain letters, spaces, hyphens, and apostrophes"
	}
	return ""
}

// Gender validates the gender selection against the accepted options.
func Gender(gender string) string {
	if gender == "" {
		return "Gender is required"
	}
	lowered := strings.ToLower(gender)
	for _, g := range validGenders {
		if lowered == g {
			return ""
		}
	}
	return "Please select a valid gender option"
}

// Address validates a street address.
func Address(address string) string {
	if address == "" {
		return "Address is required"
	}
	trimmed := strings.TrimSpace(address)
	if len(trimmed) < 10 {
		return "Please enter a complete address"
	}
	if len(trimmed) > 200 {
		return "Address is too long"
	}
	return ""
}
