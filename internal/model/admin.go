package model

// AdminAccount is an admin panel login as held by a credential store.
//
// Fields:
//
//	ID           – stable identifier, used as the token subject.
//	Username     – login name, matched case-sensitively.
//	PasswordHash – bcrypt hash of the password.
//	Role         – role claim placed in the token (e.g. admin).
//	Permissions  – permission claims placed in the token.
type AdminAccount struct {
	ID           string
	Username     string
	PasswordHash string
	Role         string
	Permissions  []string
}

// AdminUser is the public projection of an AdminAccount returned by login.
type AdminUser struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// Public strips the password hash.
func (a AdminAccount) Public() AdminUser {
	perms := a.Permissions
	if perms == nil {
		perms = []string{}
	}
	return AdminUser{ID: a.ID, Username: a.Username, Role: a.Role, Permissions: perms}
}
