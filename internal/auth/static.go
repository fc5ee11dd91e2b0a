package auth

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/glazia/storefront/internal/model"
	"github.com/glazia/storefront/internal/utils"
)

// StaticAccount is one entry of a credentials file. Either Password or
// PasswordHash must be set; plain passwords are hashed on load.
type StaticAccount struct {
	ID           string   `yaml:"id"`
	Username     string   `yaml:"username"`
	Password     string   `yaml:"password,omitempty"`
	PasswordHash string   `yaml:"password_hash,omitempty"`
	Role         string   `yaml:"role"`
	Permissions  []string `yaml:"permissions"`
}

type credentialsFile struct {
	Admins []StaticAccount `yaml:"admins"`
}

// DefaultAccounts is the built-in admin list used when no credentials file
// or database is configured.
func DefaultAccounts() []StaticAccount {
	return []StaticAccount{{
		ID:          "1",
		Username:    "admin",
		Password:    "admin123",
		Role:        "admin",
		Permissions: []string{"read", "write", "delete", "manage_users"},
	}}
}

// StaticStore is an in-memory CredentialStore.
type StaticStore struct {
	accounts map[string]model.AdminAccount
}

// NewStaticStore hashes plain passwords with cost and indexes by username.
func NewStaticStore(accounts []StaticAccount, cost int) (*StaticStore, error) {
	s := &StaticStore{accounts: make(map[string]model.AdminAccount, len(accounts))}
	for i, a := range accounts {
		if a.Username == "" {
			return nil, fmt.Errorf("admin %d: username required", i)
		}
		if _, dup := s.accounts[a.Username]; dup {
			return nil, fmt.Errorf("admin %q listed twice", a.Username)
		}
		hash := a.PasswordHash
		if hash == "" {
			if a.Password == "" {
				return nil, fmt.Errorf("admin %q: password or password_hash required", a.Username)
			}
			h, err := utils.HashPassword(a.Password, cost)
			if err != nil {
				return nil, fmt.Errorf("hash password for %q: %w", a.Username, err)
			}
			hash = h
		}
		id := a.ID
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		role := a.Role
		if role == "" {
			role = "admin"
		}
		s.accounts[a.Username] = model.AdminAccount{
			ID:           id,
			Username:     a.Username,
			PasswordHash: hash,
			Role:         role,
			Permissions:  append([]string(nil), a.Permissions...),
		}
	}
	return s, nil
}

// LoadStaticFile reads a YAML credentials file:
//
//	admins:
//	  - username: admin
//	    password_hash: $2a$10$...
//	    role: admin
//	    permissions: [read, write]
func LoadStaticFile(path string, cost int) (*StaticStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	var f credentialsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}
	if len(f.Admins) == 0 {
		return nil, fmt.Errorf("credentials file %s lists no admins", path)
	}
	return NewStaticStore(f.Admins, cost)
}

func (s *StaticStore) Lookup(_ context.Context, username string) (model.AdminAccount, error) {
	a, ok := s.accounts[username]
	if !ok {
		return model.AdminAccount{}, ErrUnknownUser
	}
	return a, nil
}
