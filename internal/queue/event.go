// Package queue defines the admin.login audit event and its consumer.
package queue

// AdminLoginQueue is the durable queue admin login attempts are published to.
const AdminLoginQueue = "admin.login"

// AdminLoginEvent is published for every admin login attempt, successful or not.
type AdminLoginEvent struct {
	Username  string `json:"username"`
	AdminID   string `json:"admin_id,omitempty"`
	Role      string `json:"role,omitempty"`
	Success   bool   `json:"success"`
	RemoteIP  string `json:"remote_ip"`
	UserAgent string `json:"user_agent,omitempty"`
	At        string `json:"at"`
}
