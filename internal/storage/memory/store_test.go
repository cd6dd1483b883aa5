package memory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/delivro/rateshop/internal/storage/memory"
	"github.com/delivro/rateshop/pkg/carrier"
)

func TestStore_Insert_Duplicate(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, carrier.Carrier{ID: "1", Name: "DPD"}))

	err := store.Insert(ctx, carrier.Carrier{ID: "2", Name: "DPD"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, carrier.ErrDuplicateName))
}

func TestStore_Insert_ConcurrentSameName(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	const attempts = 16
	errCh := make(chan error, attempts)

	var g errgroup.Group
	for i := 0; i < attempts; i++ {
		id := fmt.Sprintf("id-%d", i)
		g.Go(func() error {
			errCh <- store.Insert(ctx, carrier.Carrier{ID: id, Name: "DPD", PricePerParcel: 1000})
			return nil
		})
	}
	require.NoError(t, g.Wait())
	close(errCh)

	var successes, duplicates int
	for err := range errCh {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, carrier.ErrDuplicateName):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes, "exactly one concurrent create may win")
	assert.Equal(t, attempts-1, duplicates)
}

func TestStore_List_Ordered(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	for i, name := range []string{"Post", "Aramex", "DPD"} {
		require.NoError(t, store.Insert(ctx, carrier.Carrier{ID: fmt.Sprint(i), Name: name}))
	}

	carriers, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, carriers, 3)
	assert.Equal(t, "Aramex", carriers[0].Name)
	assert.Equal(t, "DPD", carriers[1].Name)
	assert.Equal(t, "Post", carriers[2].Name)
}

func TestStore_UpdatePrice_Missing(t *testing.T) {
	store := memory.New()

	c, err := store.UpdatePrice(context.Background(), "missing", 100, time.Now())
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestStore_Delete(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, carrier.Carrier{ID: "1", Name: "DPD"}))

	changed, err := store.Delete(ctx, "DPD")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = store.Delete(ctx, "DPD")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestStore_Count(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, store.Insert(ctx, carrier.Carrier{ID: "1", Name: "DPD"}))

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
