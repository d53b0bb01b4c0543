package audiences

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jd-116/announcement-hub/db"
	"github.com/jd-116/announcement-hub/db/memory"
	"github.com/jd-116/announcement-hub/types"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(memory.NewProvider(), zerolog.Nop())
}

func TestCreateNormalizesChannels(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	created, err := r.Create(ctx, types.AudienceCreate{
		Name:     "  Platform  ",
		Channels: []string{" C1", "C2", "", "C1", "C3 "},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Platform", created.Name)
	assert.Equal(t, []string{"C1", "C2", "C3"}, created.Channels)
	assert.False(t, created.CreatedAt.IsZero())

	fetched, err := r.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Channels, fetched.Channels)
}

func TestCreateAllowsNoChannels(t *testing.T) {
	r := newTestRegistry(t)

	created, err := r.Create(context.Background(), types.AudienceCreate{Name: "Empty"})
	require.NoError(t, err)
	assert.NotNil(t, created.Channels)
	assert.Empty(t, created.Channels)
}

func TestCreateRequiresName(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Create(context.Background(), types.AudienceCreate{Name: "   "})
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "name", validationErr.Field)

	all, err := r.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdateMergesFields(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	created, err := r.Create(ctx, types.AudienceCreate{Name: "Ops", Channels: []string{"C1"}})
	require.NoError(t, err)

	channels := []string{"C2", "C2", "C3"}
	updated, err := r.Update(ctx, created.ID, types.AudiencePatch{Channels: &channels})
	require.NoError(t, err)
	assert.Equal(t, "Ops", updated.Name)
	assert.Equal(t, []string{"C2", "C3"}, updated.Channels)

	blank := ""
	_, err = r.Update(ctx, created.ID, types.AudiencePatch{Name: &blank})
	var validationErr *ValidationError
	assert.True(t, errors.As(err, &validationErr))

	_, err = r.Update(ctx, "missing", types.AudiencePatch{})
	var notFound *db.NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestDelete(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	first, err := r.Create(ctx, types.AudienceCreate{Name: "First"})
	require.NoError(t, err)
	second, err := r.Create(ctx, types.AudienceCreate{Name: "Second"})
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, first.ID))

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, second.ID, all[0].ID)

	var notFound *db.NotFoundError
	assert.True(t, errors.As(r.Delete(ctx, first.ID), &notFound))
}

func TestEnsureDefault(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, r.EnsureDefault(ctx))
	require.NoError(t, r.EnsureDefault(ctx))

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, DefaultID, all[0].ID)
	assert.Equal(t, DefaultName, all[0].Name)
	assert.Empty(t, all[0].Channels)
}

func TestEnsureDefaultSkipsPopulatedStore(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	_, err := r.Create(ctx, types.AudienceCreate{Name: "Existing"})
	require.NoError(t, err)
	require.NoError(t, r.EnsureDefault(ctx))

	_, err = r.Get(ctx, DefaultID)
	var notFound *db.NotFoundError
	assert.True(t, errors.As(err, &notFound))
}
