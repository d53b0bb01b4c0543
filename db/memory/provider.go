package memory

import (
	"context"
	"sync"

	"github.com/jd-116/announcement-hub/types"
)

// Provider is an in-process record store.
// Collections are copied on the way in and out
// so callers never share backing arrays with the store
type Provider struct {
	mu               sync.RWMutex
	announcements    []types.Announcement
	audiences        []types.Audience
	acknowledgements []types.Acknowledgement
}

// NewProvider creates an empty in-memory store
func NewProvider() *Provider {
	return &Provider{}
}

// Connect is a no-op
func (p *Provider) Connect(ctx context.Context) error {
	return nil
}

// Disconnect is a no-op
func (p *Provider) Disconnect(ctx context.Context) error {
	return nil
}

// LoadAnnouncements returns a copy of the announcements collection
func (p *Provider) LoadAnnouncements(ctx context.Context) ([]types.Announcement, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return copyAnnouncements(p.announcements), nil
}

// SaveAnnouncements replaces the announcements collection
func (p *Provider) SaveAnnouncements(ctx context.Context, announcements []types.Announcement) error {
	copied := copyAnnouncements(announcements)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.announcements = copied
	return nil
}

// LoadAudiences returns a copy of the audiences collection
func (p *Provider) LoadAudiences(ctx context.Context) ([]types.Audience, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return copyAudiences(p.audiences), nil
}

// SaveAudiences replaces the audiences collection
func (p *Provider) SaveAudiences(ctx context.Context, audiences []types.Audience) error {
	copied := copyAudiences(audiences)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.audiences = copied
	return nil
}

// LoadAcknowledgements returns a copy of the acknowledgements collection
func (p *Provider) LoadAcknowledgements(ctx context.Context) ([]types.Acknowledgement, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]types.Acknowledgement, len(p.acknowledgements))
	copy(out, p.acknowledgements)
	return out, nil
}

// SaveAcknowledgements replaces the acknowledgements collection
func (p *Provider) SaveAcknowledgements(ctx context.Context, acknowledgements []types.Acknowledgement) error {
	copied := make([]types.Acknowledgement, len(acknowledgements))
	copy(copied, acknowledgements)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.acknowledgements = copied
	return nil
}

func copyAnnouncements(in []types.Announcement) []types.Announcement {
	out := make([]types.Announcement, len(in))
	for i, announcement := range in {
		if announcement.SentAt != nil {
			sentAt := *announcement.SentAt
			announcement.SentAt = &sentAt
		}
		if announcement.DeliveryRefs != nil {
			refs := make([]types.DeliveryRef, len(announcement.DeliveryRefs))
			copy(refs, announcement.DeliveryRefs)
			announcement.DeliveryRefs = refs
		}
		out[i] = announcement
	}
	return out
}

func copyAudiences(in []types.Audience) []types.Audience {
	out := make([]types.Audience, len(in))
	for i, audience := range in {
		if audience.Channels != nil {
			channels := make([]string, len(audience.Channels))
			copy(channels, audience.Channels)
			audience.Channels = channels
		}
		out[i] = audience
	}
	return out
}
