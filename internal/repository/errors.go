// Package repository holds the SQL-backed stores. The admin_users table is
// the only one this service owns; everything else lives in the external
// backend.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")
