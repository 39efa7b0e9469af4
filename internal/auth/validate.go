// Package auth validates the login and signup forms and runs the local
// placeholder sign-in.
package auth

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// LoginForm is the login screen input.
type LoginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpForm is the signup screen input.
type SignUpForm struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// FieldError is one failed rule, attributed to a form field.
type FieldError struct {
	Field   string
	Message string
}

// Result lists validation failures in form order.
type Result struct {
	Errors []FieldError
}

// Valid reports whether the form passed every rule.
func (r Result) Valid() bool { return len(r.Errors) == 0 }

// Messages returns the human-readable messages in form order.
func (r Result) Messages() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Message)
	}
	return out
}

// Err returns nil for a valid form, otherwise the messages joined.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	errs := make([]error, 0, len(r.Errors))
	for _, e := range r.Errors {
		errs = append(errs, errors.New(e.Message))
	}
	return errors.Join(errs...)
}

// notBlank fails on empty or whitespace-only strings. validation.Required
// accepts "   ".
func notBlank(msg string) validation.Rule {
	return validation.By(func(value any) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return errors.New(msg)
		}
		return nil
	})
}

func minTrimmedLen(n int, msg string) validation.Rule {
	return validation.By(func(value any) error {
		s, _ := value.(string)
		if len([]rune(strings.TrimSpace(s))) < n {
			return errors.New(msg)
		}
		return nil
	})
}

func emailRules() []validation.Rule {
	return []validation.Rule{
		notBlank("Email is required"),
		validation.Match(emailPattern).Error("Please enter a valid email address"),
	}
}

func passwordRules() []validation.Rule {
	return []validation.Rule{
		notBlank("Password is required"),
		validation.RuneLength(6, 0).Error("Password must be at least 6 characters long"),
	}
}

// ValidateLogin checks the login form.
func ValidateLogin(f LoginForm) Result {
	err := validation.ValidateStruct(&f,
		validation.Field(&f.Email, emailRules()...),
		validation.Field(&f.Password, passwordRules()...),
	)
	return collect(err, "email", "password")
}

// ValidateSignUp checks the signup form.
func ValidateSignUp(f SignUpForm) Result {
	err := validation.ValidateStruct(&f,
		validation.Field(&f.FirstName,
			notBlank("First name is required"),
			minTrimmedLen(2, "First name must be at least 2 characters long"),
		),
		validation.Field(&f.LastName,
			notBlank("Last name is required"),
			minTrimmedLen(2, "Last name must be at least 2 characters long"),
		),
		validation.Field(&f.Email, emailRules()...),
		validation.Field(&f.Password, passwordRules()...),
		validation.Field(&f.ConfirmPassword,
			notBlank("Please confirm your password"),
			validation.By(func(value any) error {
				if s, _ := value.(string); s != f.Password {
					return errors.New("Passwords do not match")
				}
				return nil
			}),
		),
	)
	return collect(err, "firstName", "lastName", "email", "password", "confirmPassword")
}

// collect orders ozzo's per-field error map by the form's field order.
func collect(err error, order ...string) Result {
	if err == nil {
		return Result{}
	}
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return Result{Errors: []FieldError{{Message: err.Error()}}}
	}
	res := Result{}
	for _, field := range order {
		if fe, ok := fieldErrs[field]; ok && fe != nil {
			res.Errors = append(res.Errors, FieldError{Field: field, Message: fe.Error()})
		}
	}
	return res
}
