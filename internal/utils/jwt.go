package utils // package utils provides helper functions for admin tokens and password hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/glazia/storefront/internal/model"
)

// AdminClaims is the claim set of an admin panel token.
type AdminClaims struct {
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// AccessToken is a signed admin token and its expiry.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// ErrInvalidToken covers every reason a token is rejected.
var ErrInvalidToken = errors.New("invalid token")

// NewAdminToken signs an HS256 JWT for an admin account. The subject is the
// account ID; role and permissions travel as custom claims.
func NewAdminToken(secret string, acct model.AdminAccount, ttl time.Duration, issuer string) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	perms := acct.Permissions
	if perms == nil {
		perms = []string{}
	}
	claims := AdminClaims{
		Username:    acct.Username,
		Role:        acct.Role,
		Permissions: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acct.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAdminToken verifies signature and expiry and returns the claims.
// Only HMAC signing methods are accepted.
func ParseAdminToken(secret, raw string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
