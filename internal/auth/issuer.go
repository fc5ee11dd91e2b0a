package auth

import (
	"time"

	"github.com/glazia/storefront/internal/model"
	"github.com/glazia/storefront/internal/utils"
)

const defaultTokenTTL = 24 * time.Hour

// Issuer signs admin tokens.
type Issuer struct {
	Secret string
	TTL    time.Duration
	Name   string
}

// Issue signs a token for acct. A zero TTL means 24h.
func (i Issuer) Issue(acct model.AdminAccount) (utils.AccessToken, error) {
	ttl := i.TTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return utils.NewAdminToken(i.Secret, acct, ttl, i.Name)
}

// Parse verifies a token issued by i.
func (i Issuer) Parse(raw string) (*utils.AdminClaims, error) {
	return utils.ParseAdminToken(i.Secret, raw)
}
