// Package carrier defines the carrier model and the registry that owns it.
package carrier

import (
	"time"
)

// Carrier is a shipping provider with a flat per-parcel price.
type Carrier struct {
	// ID is assigned by the registry on creation and never changes.
	ID string `json:"id"`

	// Name is unique across all carriers. Matching is exact and
	// case-sensitive everywhere in the API.
	Name string `json:"name"`

	// PricePerParcel is the flat price for one parcel, in minor currency
	// units (cents).
	PricePerParcel int64 `json:"price"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultCarriers are seeded into an empty store on first start.
var DefaultCarriers = []struct {
	Name           string
	PricePerParcel int64
}{
	{Name: "DPD", PricePerParcel: 1000},
	{Name: "Post", PricePerParcel: 1200},
}
