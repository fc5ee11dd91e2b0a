package model

// Description is a priced line-item definition within a series. Rates is a
// parallel array, one entry per unit of measure or tier, and its order is
// significant.
type Description struct {
	Name               string    `json:"name"`
	HandleTypes        []string  `json:"handleTypes"`
	DefaultHandleCount int       `json:"defaultHandleCount"`
	Rates              []float64 `json:"rates"`
}

// RateOption is a named option carrying a single rate: color finishes, mesh
// types and glass specifications all share this shape.
type RateOption struct {
	Name string  `json:"name"`
	Rate float64 `json:"rate"`
}

// HandleColor is one color variant of a handle option.
type HandleColor struct {
	Name string  `json:"name"`
	Rate float64 `json:"rate"`
}

// HandleOption lists the color variants available for a handle.
type HandleOption struct {
	Name   string        `json:"name"`
	Colors []HandleColor `json:"colors"`
}

// PricingOptions is the option catalog for one system type. The rates are
// combined by the backend pricing engine; this service only relays them.
type PricingOptions struct {
	ColorFinishes []RateOption   `json:"colorFinishes"`
	MeshTypes     []RateOption   `json:"meshTypes"`
	GlassSpecs    []RateOption   `json:"glassSpecs"`
	HandleOptions []HandleOption `json:"handleOptions"`
}

// Normalize replaces nil catalogs with empty ones so clients always see
// arrays in JSON.
func (p *PricingOptions) Normalize() {
	if p.ColorFinishes == nil {
		p.ColorFinishes = []RateOption{}
	}
	if p.MeshTypes == nil {
		p.MeshTypes = []RateOption{}
	}
	if p.GlassSpecs == nil {
		p.GlassSpecs = []RateOption{}
	}
	if p.HandleOptions == nil {
		p.HandleOptions = []HandleOption{}
	}
	for i := range p.HandleOptions {
		if p.HandleOptions[i].Colors == nil {
			p.HandleOptions[i].Colors = []HandleColor{}
		}
	}
}
