// Package rating computes delivery quotes from an order's weight and a
// snapshot of configured carriers. The engine is pure: it does no I/O and
// always operates on the carrier list handed to it by the caller.
package rating

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/delivro/rateshop/pkg/carrier"
)

// LineItem is one order line: the unit weight in grams and how many units.
type LineItem struct {
	Grams    int64 `json:"grams"`
	Quantity int64 `json:"quantity"`
}

// Order is the weight descriptor for one incoming order. The engine does not
// validate item values; that is the decoding layer's job.
type Order struct {
	Items    []LineItem `json:"items"`
	Currency string     `json:"currency,omitempty"`
}

// Quote is one computed delivery offer, shaped for the carrier-service wire
// format.
type Quote struct {
	ServiceName     string    `json:"service_name"`
	ServiceCode     string    `json:"service_code"`
	TotalPrice      int64     `json:"total_price"`
	Currency        string    `json:"currency"`
	MinDeliveryDate time.Time `json:"min_delivery_date"`
	MaxDeliveryDate time.Time `json:"max_delivery_date"`
	Description     string    `json:"description"`
}

// Result is the engine's outcome. A structurally invalid order yields
// Success=false with a message; zero carriers or zero weight are successful,
// well-defined outcomes.
type Result struct {
	Success bool    `json:"success"`
	Rates   []Quote `json:"rates"`
	Error   string  `json:"error,omitempty"`
}

// Config holds the engine's tunables. The zero value of any field falls back
// to the matching DefaultConfig value.
type Config struct {
	// MaxParcelWeightKg is the heaviest a single parcel may be.
	MaxParcelWeightKg float64

	// MinDeliveryDays and MaxDeliveryDays are the offsets from quote time
	// used for the delivery window.
	MinDeliveryDays int
	MaxDeliveryDays int

	// DefaultCurrency is used when the order carries no currency code.
	DefaultCurrency string

	// Now supplies the quote timestamp; tests inject a fixed clock.
	Now func() time.Time
}

// DefaultConfig returns the production engine configuration.
func DefaultConfig() Config {
	return Config{
		MaxParcelWeightKg: 31.5,
		MinDeliveryDays:   1,
		MaxDeliveryDays:   5,
		DefaultCurrency:   "EUR",
		Now:               time.Now,
	}
}

// Engine turns (carriers, order) into a ranked quote result.
type Engine struct {
	cfg Config
}

// New creates an engine, filling unset Config fields from DefaultConfig.
func New(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.MaxParcelWeightKg <= 0 {
		cfg.MaxParcelWeightKg = def.MaxParcelWeightKg
	}
	if cfg.MinDeliveryDays == 0 {
		cfg.MinDeliveryDays = def.MinDeliveryDays
	}
	if cfg.MaxDeliveryDays == 0 {
		cfg.MaxDeliveryDays = def.MaxDeliveryDays
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = def.DefaultCurrency
	}
	if cfg.Now == nil {
		cfg.Now = def.Now
	}
	return &Engine{cfg: cfg}
}

// TotalWeightGrams sums grams*quantity over all line items.
func TotalWeightGrams(items []LineItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Grams * item.Quantity
	}
	return total
}

// ParcelCount returns how many parcels an order of the given total weight
// needs under the per-parcel cap. An order always needs at least one parcel,
// including a zero-weight order.
func (e *Engine) ParcelCount(totalGrams int64) int64 {
	totalKg := float64(totalGrams) / 1000
	parcels := int64(math.Ceil(totalKg / e.cfg.MaxParcelWeightKg))
	if parcels < 1 {
		parcels = 1
	}
	return parcels
}

// Quote builds a quote for every carrier, ranks them ascending by total
// price (stable, so ties keep the carrier order of the input list) and
// returns only the single cheapest offer.
func (e *Engine) Quote(carriers []carrier.Carrier, order Order) Result {
	if len(carriers) == 0 {
		// No carriers configured yet is a valid state, not a failure, and
		// it is decided before the order descriptor is even looked at.
		return Result{Success: true, Rates: []Quote{}}
	}
	if order.Items == nil {
		return Result{
			Success: false,
			Rates:   []Quote{},
			Error:   "order descriptor has no items collection",
		}
	}

	parcels := e.ParcelCount(TotalWeightGrams(order.Items))

	currency := order.Currency
	if currency == "" {
		currency = e.cfg.DefaultCurrency
	}

	now := e.cfg.Now()
	minDelivery := now.AddDate(0, 0, e.cfg.MinDeliveryDays)
	maxDelivery := now.AddDate(0, 0, e.cfg.MaxDeliveryDays)

	quotes := make([]Quote, len(carriers))
	for i, c := range carriers {
		quotes[i] = Quote{
			ServiceName:     serviceName(c.Name, parcels),
			ServiceCode:     strings.ToLower(c.Name),
			TotalPrice:      c.PricePerParcel * parcels,
			Currency:        currency,
			MinDeliveryDate: minDelivery,
			MaxDeliveryDate: maxDelivery,
			Description:     fmt.Sprintf("Delivery via %s, split into %d parcel(s)", c.Name, parcels),
		}
	}

	sort.SliceStable(quotes, func(i, j int) bool {
		return quotes[i].TotalPrice < quotes[j].TotalPrice
	})

	return Result{Success: true, Rates: quotes[:1]}
}

func serviceName(name string, parcels int64) string {
	plural := ""
	if parcels > 1 {
		plural = "s"
	}
	return fmt.Sprintf("%s (%d parcel%s)", name, parcels, plural)
}
