package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestValidateLogin_Valid(t *testing.T) {
	res := ValidateLogin(LoginForm{Email: "neo@matrix.io", Password: "redpill"})
	require.True(t, res.Valid())
	require.Empty(t, res.Errors)
}

func TestValidateLogin_Messages(t *testing.T) {
	tests := []struct {
		name string
		form LoginForm
		want []string
	}{
		{"empty", LoginForm{}, []string{"Email is required", "Password is required"}},
		{"blank", LoginForm{Email: "   ", Password: "  "}, []string{"Email is required", "Password is required"}},
		{"bad email", LoginForm{Email: "neo@matrix", Password: "redpill"}, []string{"Please enter a valid email address"}},
		{"short password", LoginForm{Email: "neo@matrix.io", Password: "12345"}, []string{"Password must be at least 6 characters long"}},
		{"short multibyte password", LoginForm{Email: "neo@matrix.io", Password: "ééé"}, []string{"Password must be at least 6 characters long"}},
		{"both bad", LoginForm{Email: "nope", Password: "x"}, []string{
			"Please enter a valid email address",
			"Password must be at least 6 characters long",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateLogin(tt.form)
			require.False(t, res.Valid())
			require.Equal(t, tt.want, res.Messages())
		})
	}
}

func TestValidateLogin_FieldAttribution(t *testing.T) {
	res := ValidateLogin(LoginForm{Email: "neo@matrix.io", Password: "x"})
	require.Len(t, res.Errors, 1)
	require.Equal(t, "password", res.Errors[0].Field)
}

func validSignUp() SignUpForm {
	return SignUpForm{
		FirstName:       "Thomas",
		LastName:        "Anderson",
		Email:           "neo@matrix.io",
		Password:        "redpill",
		ConfirmPassword: "redpill",
	}
}

func TestValidateSignUp_Valid(t *testing.T) {
	require.True(t, ValidateSignUp(validSignUp()).Valid())
}

func TestValidateSignUp_EachRuleHasItsMessage(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SignUpForm)
		want   string
		field  string
	}{
		{"first blank", func(f *SignUpForm) { f.FirstName = " " }, "First name is required", "firstName"},
		{"first short", func(f *SignUpForm) { f.FirstName = " T " }, "First name must be at least 2 characters long", "firstName"},
		{"last blank", func(f *SignUpForm) { f.LastName = "" }, "Last name is required", "lastName"},
		{"last short", func(f *SignUpForm) { f.LastName = "A" }, "Last name must be at least 2 characters long", "lastName"},
		{"email blank", func(f *SignUpForm) { f.Email = "" }, "Email is required", "email"},
		{"email invalid", func(f *SignUpForm) { f.Email = "neo at matrix.io" }, "Please enter a valid email address", "email"},
		{"password blank", func(f *SignUpForm) { f.Password = ""; f.ConfirmPassword = "" }, "", ""},
		{"password multibyte short", func(f *SignUpForm) { f.Password = "ééé"; f.ConfirmPassword = "ééé" }, "Password must be at least 6 characters long", "password"},
		{"confirm blank", func(f *SignUpForm) { f.ConfirmPassword = "" }, "Please confirm your password", "confirmPassword"},
		{"mismatch", func(f *SignUpForm) { f.ConfirmPassword = "bluepill" }, "Passwords do not match", "confirmPassword"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validSignUp()
			tt.mutate(&f)
			res := ValidateSignUp(f)
			require.False(t, res.Valid())
			if tt.want == "" {
				require.Equal(t, []string{"Password is required", "Please confirm your password"}, res.Messages())
				return
			}
			require.Len(t, res.Errors, 1)
			require.Equal(t, tt.want, res.Errors[0].Message)
			require.Equal(t, tt.field, res.Errors[0].Field)
		})
	}
}

func TestValidatePassword_CountsCharacters(t *testing.T) {
	require.True(t, ValidateLogin(LoginForm{Email: "neo@matrix.io", Password: "éééééé"}).Valid())

	f := validSignUp()
	f.Password, f.ConfirmPassword = "пароль", "пароль"
	require.True(t, ValidateSignUp(f).Valid())
}

func TestValidateSignUp_OrderFollowsForm(t *testing.T) {
	res := ValidateSignUp(SignUpForm{})
	require.Equal(t, []string{
		"First name is required",
		"Last name is required",
		"Email is required",
		"Password is required",
		"Please confirm your password",
	}, res.Messages())
}

func TestAuthenticator_Login(t *testing.T) {
	a := NewAuthenticator(0, testLogger())
	user, err := a.Login(context.Background(), LoginForm{Email: " neo@matrix.io", Password: "redpill"})
	require.Error(t, err, "leading space fails the email pattern")
	require.Nil(t, user)

	user, err = a.Login(context.Background(), LoginForm{Email: "neo@matrix.io", Password: "redpill"})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, user.ID)
	require.Equal(t, "neo", user.Name)
}

func TestAuthenticator_InvalidForm(t *testing.T) {
	a := NewAuthenticator(0, testLogger())
	_, err := a.SignUp(context.Background(), SignUpForm{})
	require.True(t, errors.Is(err, ErrInvalidCredentials))
	require.ErrorContains(t, err, "First name is required")
}

func TestAuthenticator_SignUp(t *testing.T) {
	a := NewAuthenticator(time.Millisecond, testLogger())
	user, err := a.SignUp(context.Background(), validSignUp())
	require.NoError(t, err)
	require.Equal(t, "Thomas Anderson", user.Name)
	require.Equal(t, "neo@matrix.io", user.Email)
}

func TestAuthenticator_ContextCanceled(t *testing.T) {
	a := NewAuthenticator(time.Hour, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Login(ctx, LoginForm{Email: "neo@matrix.io", Password: "redpill"})
	require.ErrorIs(t, err, context.Canceled)
}
