package carrier

import (
	"context"
	"time"
)

// Store is the persistence boundary for carriers. Implementations must
// enforce name uniqueness atomically: two concurrent Insert calls with the
// same name must not both succeed.
type Store interface {
	// List returns all carriers ordered ascending by name.
	List(ctx context.Context) ([]Carrier, error)

	// Insert persists a new carrier. It fails with ErrDuplicateName when a
	// live carrier already has the same name.
	Insert(ctx context.Context, c Carrier) error

	// UpdatePrice sets the price and updatedAt of the carrier with the given
	// name and returns the updated row. A nil carrier with a nil error means
	// no carrier matched.
	UpdatePrice(ctx context.Context, name string, price int64, updatedAt time.Time) (*Carrier, error)

	// Delete removes the carrier with the given name. It reports whether a
	// row was actually deleted.
	Delete(ctx context.Context, name string) (bool, error)

	// Count returns the number of stored carriers.
	Count(ctx context.Context) (int64, error)
}
