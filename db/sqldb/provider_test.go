package sqldb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jd-116/announcement-hub/db"
	"github.com/jd-116/announcement-hub/types"
)

func newSQLiteProvider(t *testing.T) *Provider {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "hub.db")
	p, err := NewProviderWithDSN(DriverSQLite, dsn, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, p.Connect(context.Background()))
	t.Cleanup(func() {
		p.Disconnect(context.Background())
	})
	return p
}

func TestUnknownDriver(t *testing.T) {
	_, err := NewProviderWithDSN("mysql", "dsn", zerolog.Nop())

	var unknown *db.UnknownDriverError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "mysql", unknown.Driver)
}

func TestSQLiteRoundTrip(t *testing.T) {
	p := newSQLiteProvider(t)
	ctx := context.Background()

	empty, err := p.LoadAnnouncements(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	createdAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, p.SaveAnnouncements(ctx, []types.Announcement{
		{ID: "a1", Title: "First", Status: types.StatusDraft, CreatedAt: createdAt},
		{ID: "a2", Title: "Second", Status: types.StatusDraft, CreatedAt: createdAt},
	}))

	// A second save replaces the row instead of appending
	require.NoError(t, p.SaveAnnouncements(ctx, []types.Announcement{
		{ID: "a2", Title: "Second", Status: types.StatusClosed, CreatedAt: createdAt},
	}))

	loaded, err := p.LoadAnnouncements(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "a2", loaded[0].ID)
	assert.Equal(t, types.StatusClosed, loaded[0].Status)
	assert.True(t, createdAt.Equal(loaded[0].CreatedAt))
}

func TestSQLiteCollectionsAreIndependent(t *testing.T) {
	p := newSQLiteProvider(t)
	ctx := context.Background()

	require.NoError(t, p.SaveAudiences(ctx, []types.Audience{{ID: "aud", Name: "Ops", Channels: []string{"C1", "C2"}}}))
	require.NoError(t, p.SaveAcknowledgements(ctx, []types.Acknowledgement{{ID: "ack", AnnouncementID: "a1", UserID: "u1"}}))

	audiences, err := p.LoadAudiences(ctx)
	require.NoError(t, err)
	require.Len(t, audiences, 1)
	assert.Equal(t, []string{"C1", "C2"}, audiences[0].Channels)

	acknowledgements, err := p.LoadAcknowledgements(ctx)
	require.NoError(t, err)
	require.Len(t, acknowledgements, 1)
	assert.Equal(t, "u1", acknowledgements[0].UserID)
}

func TestPlaceholders(t *testing.T) {
	sqlite := &Provider{driver: DriverSQLite}
	postgres := &Provider{driver: DriverPostgres}

	assert.Equal(t, "?", sqlite.placeholder(2))
	assert.Equal(t, "$2", postgres.placeholder(2))
}
