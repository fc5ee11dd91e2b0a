// Package auth verifies admin panel logins against a credential store.
package auth

import (
	"context"
	"errors"

	"github.com/glazia/storefront/internal/model"
	"github.com/glazia/storefront/internal/utils"
)

var (
	// ErrUnknownUser is returned by a CredentialStore with no such username.
	ErrUnknownUser = errors.New("unknown admin user")
	// ErrInvalidCredentials hides whether the username or password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// CredentialStore looks up admin accounts by username.
type CredentialStore interface {
	Lookup(ctx context.Context, username string) (model.AdminAccount, error)
}

// Authenticator checks username/password pairs.
type Authenticator struct {
	store CredentialStore
}

func NewAuthenticator(store CredentialStore) *Authenticator {
	return &Authenticator{store: store}
}

// Verify returns the account when the password matches its bcrypt hash.
func (a *Authenticator) Verify(ctx context.Context, username, password string) (model.AdminAccount, error) {
	acct, err := a.store.Lookup(ctx, username)
	if errors.Is(err, ErrUnknownUser) {
		utils.BurnComparison(password)
		return model.AdminAccount{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.AdminAccount{}, err
	}
	if !utils.VerifyPassword(acct.PasswordHash, password) {
		return model.AdminAccount{}, ErrInvalidCredentials
	}
	return acct, nil
}
