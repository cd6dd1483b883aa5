package carrier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Registry is the sole owner of carrier state. It validates mutations and
// delegates persistence, including the name-uniqueness check, to its Store.
type Registry struct {
	store  Store
	logger *otelzap.Logger
	now    func() time.Time
}

// NewRegistry creates a registry backed by the given store.
func NewRegistry(store Store, logger *otelzap.Logger) *Registry {
	return &Registry{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// UpdateResult is the outcome of an update-by-name. Changed is false when no
// carrier matched, which is a normal result rather than an error.
type UpdateResult struct {
	Changed bool
	Carrier *Carrier
}

// List returns all carriers ordered ascending by name.
func (r *Registry) List(ctx context.Context) ([]Carrier, error) {
	return r.store.List(ctx)
}

// Create validates and persists a new carrier. The name is trimmed before
// validation; the id and timestamps are assigned here.
func (r *Registry) Create(ctx context.Context, name string, pricePerParcel int64) (Carrier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Carrier{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if pricePerParcel <= 0 {
		return Carrier{}, &ValidationError{Field: "price", Reason: "must be a positive number of cents"}
	}

	now := r.now().UTC()
	c := Carrier{
		ID:             uuid.NewString(),
		Name:           name,
		PricePerParcel: pricePerParcel,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := r.store.Insert(ctx, c); err != nil {
		return Carrier{}, fmt.Errorf("create carrier %q: %w", name, err)
	}

	r.logger.Ctx(ctx).Info("Carrier created",
		zap.String("name", c.Name),
		zap.Int64("price_cents", c.PricePerParcel),
	)
	return c, nil
}

// UpdatePrice changes the per-parcel price of the named carrier. A missing
// name yields Changed=false, not an error.
func (r *Registry) UpdatePrice(ctx context.Context, name string, pricePerParcel int64) (UpdateResult, error) {
	if pricePerParcel <= 0 {
		return UpdateResult{}, &ValidationError{Field: "price", Reason: "must be a positive number of cents"}
	}

	c, err := r.store.UpdatePrice(ctx, name, pricePerParcel, r.now().UTC())
	if err != nil {
		return UpdateResult{}, fmt.Errorf("update carrier %q: %w", name, err)
	}
	if c == nil {
		return UpdateResult{Changed: false}, nil
	}

	r.logger.Ctx(ctx).Info("Carrier price updated",
		zap.String("name", c.Name),
		zap.Int64("price_cents", c.PricePerParcel),
	)
	return UpdateResult{Changed: true, Carrier: c}, nil
}

// Remove deletes the named carrier. A missing name yields changed=false, not
// an error.
func (r *Registry) Remove(ctx context.Context, name string) (bool, error) {
	changed, err := r.store.Delete(ctx, name)
	if err != nil {
		return false, fmt.Errorf("remove carrier %q: %w", name, err)
	}
	if changed {
		r.logger.Ctx(ctx).Info("Carrier removed", zap.String("name", name))
	}
	return changed, nil
}

// EnsureDefaults seeds DefaultCarriers when the store is empty. It is
// idempotent and safe to call on every process start; a store with any
// carriers at all is left untouched.
func (r *Registry) EnsureDefaults(ctx context.Context) error {
	count, err := r.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count carriers: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, d := range DefaultCarriers {
		_, err := r.Create(ctx, d.Name, d.PricePerParcel)
		if errors.Is(err, ErrDuplicateName) {
			// Another instance seeded concurrently.
			continue
		}
		if err != nil {
			return fmt.Errorf("seed default carriers: %w", err)
		}
	}
	r.logger.Ctx(ctx).Info("Initialized default carriers",
		zap.Int("count", len(DefaultCarriers)))
	return nil
}
