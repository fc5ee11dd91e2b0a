package model

// UserProfile is the canonical storefront user shape. It is what gets
// mirrored into persistent storage under the glazia-user key; the backend
// remains the source of truth.
type UserProfile struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Email          string             `json:"email"`
	Phone          string             `json:"phone"`
	CompanyName    string             `json:"companyName,omitempty"`
	GSTNumber      string             `json:"gstNumber,omitempty"`
	Address        Address            `json:"address"`
	Orders         int                `json:"orders"`
	TotalSpent     float64            `json:"totalSpent"`
	LoyaltyPoints  int                `json:"loyaltyPoints"`
	DynamicPricing map[string]float64 `json:"dynamicPricing"`
	IsAdmin        bool               `json:"isAdmin,omitempty"`
}

// Address is the postal address of a user.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Pincode string `json:"pincode,omitempty"`
	Country string `json:"country,omitempty"`
}

// Discount returns the percentage for the named pricing tier, or zero.
func (u *UserProfile) Discount(tier string) float64 {
	if u == nil || u.DynamicPricing == nil {
		return 0
	}
	return u.DynamicPricing[tier]
}
