// Package validation checks the front-end forms before anything is sent to
// the API and produces localized field messages.
package validation

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"

	"github.com/clickreserve/click/internal/i18n"
)

var (
	emailPattern = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^[0-9+\-\s()]+$`)
)

// RegisterForm is the registration form
type RegisterForm struct {
	Name            string `validate:"required,min=2"`
	Email           string `validate:"required,email_address"`
	Phone           string `validate:"required,phone_chars"`
	Password        string `validate:"required,min=6"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

// LoginForm is the login form. Identifier is an email or a phone number.
type LoginForm struct {
	Identifier string `validate:"required"`
	Password   string `validate:"required"`
}

// AgentLoginForm is the agent portal login form
type AgentLoginForm struct {
	Identifier string `validate:"required"`
	Password   string `validate:"required,min=6"`
}

// EmailForm is used by resend-verification and forgot-password
type EmailForm struct {
	Email string `validate:"required,email_address"`
}

// ResetPasswordForm sets a new password from a reset token
type ResetPasswordForm struct {
	Token           string `validate:"required"`
	Password        string `validate:"required,min=6"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

// messageKeys maps "Field.tag" to an i18n key. The name length rule and the
// phone character rule reuse the "required" messages.
var messageKeys = map[string]string{
	"Name.required":            "register.name_required",
	"Name.min":                 "register.name_required",
	"Email.required":           "register.email_required",
	"Email.email_address":      "register.email_invalid",
	"Phone.required":           "register.phone_required",
	"Phone.phone_chars":        "register.phone_required",
	"Password.required":        "register.password_required",
	"Password.min":             "register.password_min_length",
	"ConfirmPassword.required": "register.confirm_password_required",
	"ConfirmPassword.eqfield":  "register.passwords_not_match",
	"Identifier.required":      "login.identifier_required",
	"Token.required":           "verify_email.no_token",
}

// FieldError is one failed rule
type FieldError struct {
	Field   string
	Message string
}

// Errors lists the failed fields in declaration order
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

// Get returns the message for field, if it failed
func (e Errors) Get(field string) (string, bool) {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message, true
		}
	}
	return "", false
}

// Validator validates forms and localizes the messages
type Validator struct {
	validate *validator.Validate
	catalog  *i18n.Catalog
}

// New creates a validator with the custom rules registered
func New(catalog *i18n.Catalog) *Validator {
	validate := validator.New()
	RegisterRules(validate)
	return &Validator{validate: validate, catalog: catalog}
}

// RegisterRules adds the email_address and phone_chars tags to validate
func RegisterRules(validate *validator.Validate) {
	validate.RegisterValidation("email_address", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	validate.RegisterValidation("phone_chars", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
}

// Validate checks form and returns Errors (localized to lang) or nil. Only
// the first failed rule of each field is reported.
func (v *Validator) Validate(lang i18n.Lang, form interface{}) error {
	err := v.validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	var out Errors
	seen := make(map[string]bool)
	for _, fe := range verrs {
		if seen[fe.Field()] {
			continue
		}
		seen[fe.Field()] = true

		key, ok := messageKeys[fe.Field()+"."+fe.Tag()]
		msg := fe.Error()
		if ok {
			msg = v.catalog.T(lang, key)
		}
		out = append(out, FieldError{Field: fe.Field(), Message: msg})
	}
	return out
}

// IsEmail reports whether s looks like an email address. The login form uses
// it to tell email identifiers from phone numbers.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// NormalizePhone returns number in E.164 form when it parses as a valid
// number for region (an ISO 3166 code such as "PS" or "IL"); otherwise the
// trimmed input is returned unchanged.
func NormalizePhone(number, region string) string {
	number = strings.TrimSpace(number)
	parsed, err := phonenumbers.Parse(number, strings.ToUpper(region))
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return number
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}
