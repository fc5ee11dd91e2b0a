package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/glazia/storefront/internal/model"
	"github.com/glazia/storefront/internal/utils"
)

// AdminRepo reads and writes the admin_users table:
//
//	id BIGINT, username VARCHAR UNIQUE, password_hash VARCHAR, role VARCHAR,
//	permissions VARCHAR (comma separated), is_active BOOL, created_at DATETIME
type AdminRepo struct{ DB *sql.DB }

func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{DB: db} }

const adminUsersDDL = `CREATE TABLE IF NOT EXISTS admin_users (
  id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
  username VARCHAR(64) NOT NULL UNIQUE,
  password_hash VARCHAR(255) NOT NULL,
  role VARCHAR(32) NOT NULL DEFAULT 'admin',
  permissions VARCHAR(255) NOT NULL DEFAULT '',
  is_active TINYINT(1) NOT NULL DEFAULT 1,
  created_at DATETIME NOT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// EnsureSchema creates admin_users when it does not exist.
func (r *AdminRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, adminUsersDDL)
	return err
}

// GetByUsername fetches an active admin by exact username.
func (r *AdminRepo) GetByUsername(ctx context.Context, username string) (model.AdminAccount, error) {
	var (
		a     model.AdminAccount
		id    uint64
		perms sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, username, password_hash, role, permissions FROM admin_users WHERE username=? AND is_active=1 LIMIT 1",
		username).Scan(&id, &a.Username, &a.PasswordHash, &a.Role, &perms)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AdminAccount{}, ErrNotFound
	}
	if err != nil {
		return model.AdminAccount{}, err
	}
	a.ID = formatID(id)
	a.Permissions = splitPermissions(perms.String)
	return a, nil
}

// Create inserts an admin with a bcrypt-hashed password and returns its ID.
func (r *AdminRepo) Create(ctx context.Context, username, password, role string, permissions []string, cost int) (string, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return "", err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO admin_users (username, password_hash, role, permissions, is_active, created_at) VALUES (?,?,?,?,1,?)",
		username, hash, role, strings.Join(permissions, ","), time.Now().UTC())
	if err != nil {
		return "", err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", err
	}
	return formatID(uint64(id)), nil
}

func splitPermissions(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
