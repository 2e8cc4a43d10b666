package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"

	"github.com/coursebank/courseapi/internal/domain/user"
	"github.com/coursebank/courseapi/internal/security"
)

// UserReader is the slice of the users repo the authenticator needs.
// Keep this small so tests can fake it easily.
type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

// Result is the outcome of an authentication attempt. Expected failures are
// values, not errors: a missing header, an unknown email and a wrong password
// all land in the same unauthenticated bucket, and only Reason (never shown
// to clients) records which one it was.
type Result struct {
	Authenticated bool
	Principal     user.User
	Reason        string
}

func unauthenticated(reason string) Result {
	return Result{Reason: reason}
}

type Authenticator struct {
	users UserReader
	log   *slog.Logger
}

func NewAuthenticator(users UserReader, log *slog.Logger) *Authenticator {
	if log == nil {
		log = slog.Default()
	}

	return &Authenticator{users: users, log: log}
}

// Authenticate resolves a Basic authorization header value into a principal.
// It is read-only and never returns an error: unexpected store failures
// degrade to a rejection so the gate can answer 401 instead of 500.
func (a *Authenticator) Authenticate(ctx context.Context, header string) Result {
	name, secret, ok := parseBasic(header)

	if !ok {
		return unauthenticated("missing or malformed credentials")
	}

	u, err := a.users.GetByEmail(ctx, name)

	if err != nil {
		// unknown email and a broken store look the same to the client, but
		// the Reason and the log keep them apart for operators
		if !errors.Is(err, user.ErrNotFound) {
			a.log.Debug("user lookup failed during authentication", "err", err)
			return unauthenticated("store failure")
		}

		return unauthenticated("unknown email")
	}

	err = security.CheckPassword(u.PasswordHash, secret)

	if err != nil {
		return unauthenticated("wrong credentials")
	}

	return Result{Authenticated: true, Principal: u}
}

// parseBasic unpacks "Basic base64(name:secret)". The scheme match is
// case-insensitive per RFC 7617.
func parseBasic(header string) (name, secret string, ok bool) {
	const prefix = "Basic "

	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len(prefix):]))

	if err != nil {
		return "", "", false
	}

	name, secret, ok = strings.Cut(string(decoded), ":")

	if !ok || name == "" || secret == "" {
		return "", "", false
	}

	return name, secret, true
}
