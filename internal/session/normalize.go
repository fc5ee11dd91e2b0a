package session

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/glazia/storefront/internal/model"
)

// ErrMalformedProfile is returned when the backend document holds no user
// object.
var ErrMalformedProfile = errors.New("malformed user payload")

// Normalize maps a backend profile document onto model.UserProfile. The
// backend names fields inconsistently; the first non-empty candidate wins,
// e.g. name over userName, phone over phoneNumber. Documents may be bare or
// wrapped as {"user": {...}} or {"data": {...}}.
func Normalize(raw json.RawMessage) (*model.UserProfile, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		return nil, ErrMalformedProfile
	}
	for _, wrapper := range []string{"user", "data"} {
		if inner, ok := doc[wrapper].(map[string]any); ok {
			doc = inner
			break
		}
	}
	if len(doc) == 0 {
		return nil, ErrMalformedProfile
	}

	u := &model.UserProfile{
		ID:            firstString(doc, "id", "_id", "userId"),
		Name:          firstString(doc, "name", "userName", "username", "fullName"),
		Email:         firstString(doc, "email"),
		Phone:         firstString(doc, "phone", "phoneNumber", "mobile"),
		CompanyName:   firstString(doc, "companyName", "company"),
		GSTNumber:     firstString(doc, "gstNumber", "gst"),
		Orders:        int(firstNumber(doc, "orders", "ordersCount", "totalOrders")),
		TotalSpent:    firstNumber(doc, "totalSpent", "totalSpend", "spend"),
		LoyaltyPoints: int(firstNumber(doc, "loyaltyPoints", "points")),
		IsAdmin:       asBool(doc["isAdmin"]) || strings.EqualFold(firstString(doc, "role"), "admin"),
	}
	u.Address = normalizeAddress(doc)
	u.DynamicPricing = normalizePricing(doc)
	return u, nil
}

func normalizeAddress(doc map[string]any) model.Address {
	src := doc
	if nested, ok := doc["address"].(map[string]any); ok {
		src = nested
	}
	a := model.Address{
		Street:  firstString(src, "street", "line1", "addressLine"),
		City:    firstString(src, "city"),
		State:   firstString(src, "state"),
		Pincode: firstString(src, "pincode", "pinCode", "zip", "postalCode"),
		Country: firstString(src, "country"),
	}
	// a plain string address is taken as the street line
	if s, ok := doc["address"].(string); ok && a.Street == "" {
		a.Street = strings.TrimSpace(s)
	}
	return a
}

// normalizePricing accepts either {"tier": pct} or [{"name": tier, "percentage": pct}].
func normalizePricing(doc map[string]any) map[string]float64 {
	out := map[string]float64{}
	var v any
	for _, k := range []string{"dynamicPricing", "discounts"} {
		if x, ok := doc[k]; ok && x != nil {
			v = x
			break
		}
	}
	switch t := v.(type) {
	case map[string]any:
		for tier, pct := range t {
			if f, ok := asNumber(pct); ok {
				out[tier] = f
			}
		}
	case []any:
		for _, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			tier := firstString(m, "name", "tier")
			if tier == "" {
				continue
			}
			out[tier] = firstNumber(m, "percentage", "discount", "value")
		}
	}
	return out
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func firstNumber(m map[string]any, keys ...string) float64 {
	for _, k := range keys {
		if f, ok := asNumber(m[k]); ok {
			return f
		}
	}
	return 0
}

func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	case []any:
		// orders is sometimes the order list itself
		return float64(len(t)), true
	}
	return 0, false
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	}
	return false
}
