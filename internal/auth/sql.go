package auth

import (
	"context"
	"errors"

	"github.com/glazia/storefront/internal/model"
	"github.com/glazia/storefront/internal/repository"
)

// SQLStore reads admin accounts from the admin_users table.
type SQLStore struct {
	Repo *repository.AdminRepo
}

func (s SQLStore) Lookup(ctx context.Context, username string) (model.AdminAccount, error) {
	a, err := s.Repo.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return model.AdminAccount{}, ErrUnknownUser
	}
	return a, err
}
