package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
)

// ErrUnauthorized is returned when credentials are rejected
var ErrUnauthorized = errors.New("unauthorized")

// AllowAll accepts every credential pair
type AllowAll struct{}

func (AllowAll) Authenticate(context.Context, string, string) error {
	return nil
}

// StaticAuthenticator checks credentials against the directory's users.
// Users without a password can never log in.
type StaticAuthenticator struct {
	Users Directory
}

func NewStaticAuthenticator(users Directory) *StaticAuthenticator {
	return &StaticAuthenticator{Users: users}
}

func (a *StaticAuthenticator) Authenticate(ctx context.Context, username, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u, ok := a.Users.User(username)
	if !ok || u.Password == "" {
		return fmt.Errorf("%w: unknown user %q", ErrUnauthorized, username)
	}
	if subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) != 1 {
		return fmt.Errorf("%w: bad password for %q", ErrUnauthorized, username)
	}
	return nil
}
