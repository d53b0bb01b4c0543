// Package audiences manages the named groups of channels
// that announcements are sent to
package audiences

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/jd-116/announcement-hub/db"
	"github.com/jd-116/announcement-hub/types"
)

// DefaultID is the ID of the audience seeded into an empty store
const DefaultID = "default-all"

// DefaultName is the name of the seeded audience
const DefaultName = "All Teams"

// NotFoundKind names audiences in NotFoundErrors
const NotFoundKind = "audience"

// Registry provides CRUD over the audiences collection.
// Deleting or editing an audience never touches announcements
// that reference it
type Registry struct {
	// Serializes read-modify-write cycles on the collection
	mu       sync.Mutex
	provider db.AudienceProvider
	logger   zerolog.Logger
	now      func() time.Time
}

// NewRegistry creates a registry backed by the given store
func NewRegistry(provider db.AudienceProvider, logger zerolog.Logger) *Registry {
	return &Registry{
		provider: provider,
		logger:   logger.With().Str("component", "audiences").Logger(),
		now:      time.Now,
	}
}

// EnsureDefault seeds the default audience if the collection is empty
func (r *Registry) EnsureDefault(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	audiences, err := r.provider.LoadAudiences(ctx)
	if err != nil {
		return err
	}
	if len(audiences) > 0 {
		return nil
	}

	audiences = append(audiences, types.Audience{
		ID:        DefaultID,
		Name:      DefaultName,
		Channels:  []string{},
		CreatedAt: r.now().UTC(),
	})
	if err := r.provider.SaveAudiences(ctx, audiences); err != nil {
		return err
	}

	r.logger.Info().Str("audience_id", DefaultID).Msg("seeded default audience")
	return nil
}

// GetAll returns every audience in storage order
func (r *Registry) GetAll(ctx context.Context) ([]types.Audience, error) {
	return r.provider.LoadAudiences(ctx)
}

// Get returns a single audience by its ID
func (r *Registry) Get(ctx context.Context, id string) (*types.Audience, error) {
	audiences, err := r.provider.LoadAudiences(ctx)
	if err != nil {
		return nil, err
	}

	i := indexOf(audiences, id)
	if i < 0 {
		return nil, db.NewNotFoundError(NotFoundKind, id)
	}
	return &audiences[i], nil
}

// Create validates and stores a new audience
func (r *Registry) Create(ctx context.Context, create types.AudienceCreate) (*types.Audience, error) {
	name := strings.TrimSpace(create.Name)
	if name == "" {
		return nil, NewValidationError("name", "audience name is required")
	}

	audience := types.Audience{
		ID:        ksuid.New().String(),
		Name:      name,
		Channels:  NormalizeChannels(create.Channels),
		CreatedAt: r.now().UTC(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	audiences, err := r.provider.LoadAudiences(ctx)
	if err != nil {
		return nil, err
	}

	audiences = append(audiences, audience)
	if err := r.provider.SaveAudiences(ctx, audiences); err != nil {
		return nil, err
	}

	r.logger.Info().Str("audience_id", audience.ID).Int("channels", len(audience.Channels)).
		Msg("created audience")
	return &audience, nil
}

// Update merges the patch into an existing audience
func (r *Registry) Update(ctx context.Context, id string, patch types.AudiencePatch) (*types.Audience, error) {
	var name string
	if patch.Name != nil {
		name = strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, NewValidationError("name", "audience name cannot be empty")
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	audiences, err := r.provider.LoadAudiences(ctx)
	if err != nil {
		return nil, err
	}

	i := indexOf(audiences, id)
	if i < 0 {
		return nil, db.NewNotFoundError(NotFoundKind, id)
	}

	if patch.Name != nil {
		audiences[i].Name = name
	}
	if patch.Channels != nil {
		audiences[i].Channels = NormalizeChannels(*patch.Channels)
	}

	if err := r.provider.SaveAudiences(ctx, audiences); err != nil {
		return nil, err
	}

	updated := audiences[i]
	return &updated, nil
}

// Delete removes an audience. Announcements that reference it
// keep the stale reference
func (r *Registry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	audiences, err := r.provider.LoadAudiences(ctx)
	if err != nil {
		return err
	}

	i := indexOf(audiences, id)
	if i < 0 {
		return db.NewNotFoundError(NotFoundKind, id)
	}

	audiences = append(audiences[:i], audiences[i+1:]...)
	if err := r.provider.SaveAudiences(ctx, audiences); err != nil {
		return err
	}

	r.logger.Info().Str("audience_id", id).Msg("deleted audience")
	return nil
}

// NormalizeChannels trims channel identifiers and drops blanks and repeats,
// keeping the first occurrence of each
func NormalizeChannels(channels []string) []string {
	seen := make(map[string]struct{}, len(channels))
	out := make([]string, 0, len(channels))
	for _, channel := range channels {
		channel = strings.TrimSpace(channel)
		if channel == "" {
			continue
		}
		if _, ok := seen[channel]; ok {
			continue
		}
		seen[channel] = struct{}{}
		out = append(out, channel)
	}
	return out
}

func indexOf(audiences []types.Audience, id string) int {
	for i, audience := range audiences {
		if audience.ID == id {
			return i
		}
	}
	return -1
}
