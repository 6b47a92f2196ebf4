package costing

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*PresetStore, *time.Time) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	store := NewPresetStore(client).WithClock(func() time.Time { return now })
	return store, &now
}

func TestPresetStoreUpsertAndList(t *testing.T) {
	store, now := newTestStore(t)
	ctx := context.Background()

	first, err := store.Upsert(ctx, PresetInput{Name: "Cotton 60x60"})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	require.Equal(t, "Cotton 60x60", first.Name)
	require.Equal(t, *now, first.CreatedAt)

	*now = now.Add(time.Hour)
	second, err := store.Upsert(ctx, PresetInput{Name: "Viscose 52 panno"})
	require.NoError(t, err)

	presets, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, presets, 2)
	// Most recently updated first.
	require.Equal(t, second.ID, presets[0].ID)
	require.Equal(t, first.ID, presets[1].ID)
}

func TestPresetStoreUpdatePreservesCreatedAt(t *testing.T) {
	store, now := newTestStore(t)
	ctx := context.Background()

	created, err := store.Upsert(ctx, PresetInput{Name: "Base"})
	require.NoError(t, err)

	*now = now.Add(2 * time.Hour)
	updated, err := store.Upsert(ctx, PresetInput{ID: created.ID, Name: "Base v2", Notes: "tweaked"})
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)
	require.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	presets, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, presets, 1)
	require.Equal(t, "Base v2", presets[0].Name)
}

func TestPresetStoreDefaultsName(t *testing.T) {
	store, _ := newTestStore(t)

	preset, err := store.Upsert(context.Background(), PresetInput{Name: "   "})
	require.NoError(t, err)
	require.Equal(t, "Untitled preset", preset.Name)
}

func TestPresetStoreDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	preset, err := store.Upsert(ctx, PresetInput{Name: "Drop me"})
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, preset.ID))

	presets, err := store.List(ctx)
	require.NoError(t, err)
	require.Empty(t, presets)

	require.Error(t, store.Delete(ctx, preset.ID))
}
