package validation

import "strings"

// registrationRequiredFields lists every field a registration submission
// must carry, in reporting order.
var registrationRequiredFields = []string{
	"first_name", "last_name", "email", "phone", "date_of_birth",
	"gender", "address", "emergency_contact_name", "emergency_contact_phone",
	"password", "confirm_password",
}

// RegistrationForm validates a patient registration submission. Every
// applicable check runs and every failure is reported, so a caller can
// surface all problems in a single round trip.
type RegistrationForm struct {
	data   map[string]string
	errors []string
}

// NewRegistrationForm wraps a raw submission for validation.
func NewRegistrationForm(data map[string]string) *RegistrationForm {
	return &RegistrationForm{data: data}
}

// Validate runs all registration checks and reports overall pass/fail.
// It rebuilds the error list on every call.
func (f *RegistrationForm) Validate() bool {
	f.errors = nil

	f.errors = append(f.errors, RequiredFields(f.data, registrationRequiredFields)...)

	f.checkField("first_name", func(v string) string { return Name(v, "First name") })
	f.checkField("last_name", func(v string) string { return Name(v, "Last name") })
	f.checkField("email", Email)
	f.checkField("phone", Phone)
	f.checkField("date_of_birth", DateOfBirth)
	f.checkField("gender", Gender)
	f.checkField("address", Address)
	f.checkField("emergency_contact_name", func(v string) string {
		return Name(v, "Emergency contact name")
	})
	f.checkField("emergency_contact_phone", func(v string) string {
		// The emergency contact reuses the phone rules with a re-prefixed
		// message; the lower-cased concatenation is the portal's
		// long-standing observable text.
		if msg := Phone(v); msg != "" {
			return "Emergency contact " + strings.ToLower(msg)
		}
		return ""
	})
	f.checkField("password", Password)

	password, hasPassword := f.data["password"]
	confirm, hasConfirm := f.data["confirm_password"]
	if hasPassword && hasConfirm && password != confirm {
		f.errors = append(f.errors, "Passwords do not match")
	}

	return len(f.errors) == 0
}

// Errors returns the messages collected by the last Validate call, in
// the order they were found.
func (f *RegistrationForm) Errors() []string {
	return f.errors
}

// checkField runs a field validator only when the field is present in
// the submission. Missing fields are already covered by the
// required-field pass.
func (f *RegistrationForm) checkField(field string, validate func(string) string) {
	value, ok := f.data[field]
	if !ok {
		return
	}
	if msg := validate(value); msg != "" {
		f.errors = append(f.errors, msg)
	}
}

// LoginForm validates a login submission. Only the email format is
// checked here; password strength is a registration concern.
type LoginForm struct {
	data   map[string]string
	errors []string
}

// NewLoginForm wraps a raw submission for validation.
func NewLoginForm(data map[string]string) *LoginForm {
	return &LoginForm{data: data}
}

// Validate runs the login checks and reports overall pass/fail.
func (f *LoginForm) Validate() bool {
	f.errors = nil

	if f.data["email"] == "" {
		f.errors = append(f.errors, "Email is required")
	} else if msg := Email(f.data["email"]); msg != "" {
		f.errors = append(f.errors, msg)
	}

	if f.data["password"] == "" {
		f.errors = append(f.errors, "Password is required")
	}

	return len(f.errors) == 0
}

// Errors returns the messages collected by the last Validate call.
func (f *LoginForm) Errors() []string {
	return f.errors
}
