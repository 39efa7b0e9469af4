package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultDelay mimics the round trip of a real sign-in.
const DefaultDelay = 1500 * time.Millisecond

// ErrInvalidCredentials is returned when a form fails validation.
var ErrInvalidCredentials = errors.New("invalid credentials")

// User is the signed-in account.
type User struct {
	ID    uuid.UUID
	Email string
	Name  string
}

// Authenticator signs users in locally. No credential store is consulted:
// any form that validates succeeds after Delay.
type Authenticator struct {
	Delay  time.Duration
	logger *slog.Logger
}

// NewAuthenticator creates an Authenticator. A negative delay means DefaultDelay.
func NewAuthenticator(delay time.Duration, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	if delay < 0 {
		delay = DefaultDelay
	}
	return &Authenticator{Delay: delay, logger: logger}
}

// Login validates the form and returns the user.
func (a *Authenticator) Login(ctx context.Context, f LoginForm) (*User, error) {
	if res := ValidateLogin(f); !res.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, res.Err())
	}
	if err := a.wait(ctx); err != nil {
		return nil, err
	}

	email := strings.TrimSpace(f.Email)
	name, _, _ := strings.Cut(email, "@")
	a.logger.Info("user logged in", slog.String("email", email))
	return &User{ID: uuid.New(), Email: email, Name: name}, nil
}

// SignUp validates the form and creates the user.
func (a *Authenticator) SignUp(ctx context.Context, f SignUpForm) (*User, error) {
	if res := ValidateSignUp(f); !res.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, res.Err())
	}
	if err := a.wait(ctx); err != nil {
		return nil, err
	}

	email := strings.TrimSpace(f.Email)
	name := strings.TrimSpace(f.FirstName) + " " + strings.TrimSpace(f.LastName)
	a.logger.Info("user signed up", slog.String("email", email))
	return &User{ID: uuid.New(), Email: email, Name: name}, nil
}

func (a *Authenticator) wait(ctx context.Context) error {
	if a.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(a.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
