package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jd-116/announcement-hub/types"
)

func TestEmptyCollectionsAreNonNil(t *testing.T) {
	p := NewProvider()
	ctx := context.Background()

	announcements, err := p.LoadAnnouncements(ctx)
	require.NoError(t, err)
	assert.NotNil(t, announcements)
	assert.Empty(t, announcements)

	audiences, err := p.LoadAudiences(ctx)
	require.NoError(t, err)
	assert.NotNil(t, audiences)

	acknowledgements, err := p.LoadAcknowledgements(ctx)
	require.NoError(t, err)
	assert.NotNil(t, acknowledgements)
}

func TestSavedCollectionsAreIsolatedFromCallers(t *testing.T) {
	p := NewProvider()
	ctx := context.Background()

	sentAt := time.Now()
	saved := []types.Announcement{{
		ID:           "a1",
		Title:        "Original",
		SentAt:       &sentAt,
		DeliveryRefs: []types.DeliveryRef{{ChannelID: "C1", MessageRef: "1.0"}},
	}}
	require.NoError(t, p.SaveAnnouncements(ctx, saved))

	// Mutating the caller's slice must not leak into the store
	saved[0].Title = "Mutated"
	saved[0].DeliveryRefs[0].ChannelID = "C2"
	*saved[0].SentAt = time.Time{}

	loaded, err := p.LoadAnnouncements(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Original", loaded[0].Title)
	assert.Equal(t, "C1", loaded[0].DeliveryRefs[0].ChannelID)
	assert.False(t, loaded[0].SentAt.IsZero())

	audiences := []types.Audience{{ID: "x", Channels: []string{"C1"}}}
	require.NoError(t, p.SaveAudiences(ctx, audiences))
	audiences[0].Channels[0] = "C9"

	loadedAudiences, err := p.LoadAudiences(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"C1"}, loadedAudiences[0].Channels)
}
