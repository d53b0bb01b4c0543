// Package announcements owns the announcement lifecycle:
// creation and validation, gated edits, and sending to every
// channel of an audience
package announcements

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hako/durafmt"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/jd-116/announcement-hub/db"
	"github.com/jd-116/announcement-hub/dispatch"
	"github.com/jd-116/announcement-hub/locks"
	"github.com/jd-116/announcement-hub/types"
)

// NotFoundKind names announcements in NotFoundErrors
const NotFoundKind = "announcement"

// AudienceSource resolves the audiences announcements point at
type AudienceSource interface {
	Get(ctx context.Context, id string) (*types.Audience, error)
	GetAll(ctx context.Context) ([]types.Audience, error)
}

// AcknowledgementSource lists acknowledgements for enrichment
type AcknowledgementSource interface {
	ListFor(ctx context.Context, announcementID string) ([]types.Acknowledgement, error)
	GroupByAnnouncement(ctx context.Context) (map[string][]types.Acknowledgement, error)
}

// Config holds the dispatch settings of the service
type Config struct {
	// WebAppURL is the base of the acknowledge and detail links
	WebAppURL string

	// Timeout bounds each channel post; zero means no bound
	Timeout time.Duration

	// Concurrency caps parallel channel posts; zero means no cap
	Concurrency int
}

// Service is the announcement lifecycle engine
type Service struct {
	// Serializes read-modify-write cycles on the collection
	mu sync.Mutex
	// Held per announcement ID across status checks and the writes they guard
	ids *locks.KeyedMutex

	provider         db.AnnouncementProvider
	audiences        AudienceSource
	acknowledgements AcknowledgementSource
	poster           dispatch.Poster
	config           Config
	logger           zerolog.Logger
	now              func() time.Time
}

// NewService creates a lifecycle engine over the given collaborators
func NewService(provider db.AnnouncementProvider, audiences AudienceSource,
	acknowledgements AcknowledgementSource, poster dispatch.Poster,
	config Config, logger zerolog.Logger) *Service {
	return &Service{
		ids:              locks.NewKeyedMutex(),
		provider:         provider,
		audiences:        audiences,
		acknowledgements: acknowledgements,
		poster:           poster,
		config:           config,
		logger:           logger.With().Str("component", "announcements").Logger(),
		now:              time.Now,
	}
}

// Create validates a new announcement and stores it as a Draft
func (s *Service) Create(ctx context.Context, create types.AnnouncementCreate) (*types.Announcement, error) {
	if err := Validate(create); err != nil {
		return nil, err
	}

	audienceID := strings.TrimSpace(create.AudienceID)
	if err := s.audienceExists(ctx, audienceID); err != nil {
		return nil, err
	}

	if err := validateUrgent(create); err != nil {
		return nil, err
	}

	announcement := types.Announcement{
		ID:             ksuid.New().String(),
		Title:          strings.TrimSpace(create.Title),
		Body:           create.Body,
		Type:           create.Type,
		ExpectedAction: create.ExpectedAction,
		AudienceID:     audienceID,
		CreatedBy:      strings.TrimSpace(create.CreatedBy),
		CreatedAt:      s.now().UTC(),
		Status:         types.StatusDraft,
		DeliveryRefs:   []types.DeliveryRef{},
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	announcements, err := s.provider.LoadAnnouncements(ctx)
	if err != nil {
		return nil, err
	}

	announcements = append(announcements, announcement)
	if err := s.provider.SaveAnnouncements(ctx, announcements); err != nil {
		return nil, err
	}

	s.logger.Info().Str("announcement_id", announcement.ID).Str("audience_id", audienceID).
		Str("type", string(announcement.Type)).Msg("created announcement")
	return &announcement, nil
}

// Get returns a single announcement by its ID
func (s *Service) Get(ctx context.Context, id string) (*types.Announcement, error) {
	announcements, err := s.provider.LoadAnnouncements(ctx)
	if err != nil {
		return nil, err
	}

	i := indexOf(announcements, id)
	if i < 0 {
		return nil, db.NewNotFoundError(NotFoundKind, id)
	}
	return &announcements[i], nil
}

// List returns the announcements matching the filter, newest first
func (s *Service) List(ctx context.Context, filter types.AnnouncementFilter) ([]types.Announcement, error) {
	announcements, err := s.provider.LoadAnnouncements(ctx)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	matching := []types.Announcement{}
	for _, announcement := range announcements {
		if filter.Type != "" && announcement.Type != filter.Type {
			continue
		}
		if filter.AudienceID != "" && announcement.AudienceID != filter.AudienceID {
			continue
		}
		if filter.Status != "" && announcement.Status != filter.Status {
			continue
		}
		if filter.StartDate != nil && announcement.CreatedAt.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && announcement.CreatedAt.After(*filter.EndDate) {
			continue
		}
		if search != "" &&
			!fuzzy.MatchNormalized(search, strings.ToLower(announcement.Title)) &&
			!fuzzy.MatchNormalized(search, strings.ToLower(announcement.Body)) {
			continue
		}
		matching = append(matching, announcement)
	}

	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].CreatedAt.After(matching[j].CreatedAt)
	})
	return matching, nil
}

// Update merges a patch into an announcement. Drafts may be edited freely;
// once sent, the only allowed patch is one that closes the announcement.
// Field values aren't re-validated
func (s *Service) Update(ctx context.Context, id string, patch types.AnnouncementPatch) (*types.Announcement, error) {
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, NewValidationError("status", "status must be one of Draft, Sent, Closed")
		}
		if *patch.Status == types.StatusSent {
			return nil, NewValidationError("status", "announcements can only be sent with the send action")
		}
	}

	unlock := s.ids.Lock(id)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	announcements, err := s.provider.LoadAnnouncements(ctx)
	if err != nil {
		return nil, err
	}

	i := indexOf(announcements, id)
	if i < 0 {
		return nil, db.NewNotFoundError(NotFoundKind, id)
	}
	current := announcements[i]

	if !patch.OnlyStatus(types.StatusClosed) {
		if _, err := Transition(current, ActionEdit); err != nil {
			return nil, err
		}
	}
	if patch.Status != nil && *patch.Status == types.StatusClosed {
		if _, err := Transition(current, ActionClose); err != nil {
			return nil, err
		}
	}

	patch.Apply(&announcements[i])
	if err := s.provider.SaveAnnouncements(ctx, announcements); err != nil {
		return nil, err
	}

	updated := announcements[i]
	if updated.Status != current.Status {
		s.logger.Info().Str("announcement_id", id).Str("from", string(current.Status)).
			Str("to", string(updated.Status)).Msg("announcement status changed")
	}
	return &updated, nil
}

// Close moves a sent announcement to Closed.
// Closing an already closed announcement changes nothing
func (s *Service) Close(ctx context.Context, id string) (*types.Announcement, error) {
	unlock := s.ids.Lock(id)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	announcements, err := s.provider.LoadAnnouncements(ctx)
	if err != nil {
		return nil, err
	}

	i := indexOf(announcements, id)
	if i < 0 {
		return nil, db.NewNotFoundError(NotFoundKind, id)
	}

	next, err := Transition(announcements[i], ActionClose)
	if err != nil {
		return nil, err
	}
	if next == announcements[i].Status {
		closed := announcements[i]
		return &closed, nil
	}

	announcements[i].Status = next
	if err := s.provider.SaveAnnouncements(ctx, announcements); err != nil {
		return nil, err
	}

	s.logger.Info().Str("announcement_id", id).Msg("closed announcement")
	closed := announcements[i]
	return &closed, nil
}

// Delete removes a Draft announcement.
// Its acknowledgements, if any, are left in place
func (s *Service) Delete(ctx context.Context, id string) error {
	unlock := s.ids.Lock(id)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	announcements, err := s.provider.LoadAnnouncements(ctx)
	if err != nil {
		return err
	}

	i := indexOf(announcements, id)
	if i < 0 {
		return db.NewNotFoundError(NotFoundKind, id)
	}
	if _, err := Transition(announcements[i], ActionDelete); err != nil {
		return err
	}

	announcements = append(announcements[:i], announcements[i+1:]...)
	if err := s.provider.SaveAnnouncements(ctx, announcements); err != nil {
		return err
	}

	s.logger.Info().Str("announcement_id", id).Msg("deleted announcement")
	return nil
}

// Dispatch sends a Draft announcement to every channel of its audience.
// If at least one channel accepts it, the announcement becomes Sent with one
// delivery ref per accepting channel, and the other channels' failures are
// returned alongside it. If every channel fails, a DispatchError is returned
// and the announcement is left untouched
func (s *Service) Dispatch(ctx context.Context, id string) (*types.DispatchResult, error) {
	// Once posting starts the send runs to completion, so that delivered
	// channels are always recorded. Each post is bounded by the timeout instead
	ctx = context.WithoutCancel(ctx)

	// Held across the fan-out so that one announcement is never sent twice
	unlock := s.ids.Lock(id)
	defer unlock()

	announcement, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := Transition(*announcement, ActionDispatch); err != nil {
		return nil, err
	}
	if strings.TrimSpace(announcement.Title) == "" {
		return nil, NewValidationError("title", "title is required")
	}

	audience, err := s.audiences.Get(ctx, announcement.AudienceID)
	if err != nil {
		var notFound *db.NotFoundError
		if errors.As(err, &notFound) {
			return nil, NewInvalidReferenceError(announcement.AudienceID)
		}
		return nil, err
	}
	if len(audience.Channels) == 0 {
		return nil, NewConfigurationError(audience.ID)
	}

	start := time.Now()
	message := dispatch.NewMessage(*announcement, s.config.WebAppURL)
	receipts := fanOut(ctx, s.poster, audience.Channels, message, s.config.Timeout, s.config.Concurrency)

	refs := []types.DeliveryRef{}
	failures := []string{}
	for _, receipt := range receipts {
		if !receipt.Delivered() {
			s.logger.Warn().Str("announcement_id", id).Str("channel_id", receipt.ChannelID).
				Str("reason", receipt.Failure).Msg("channel rejected announcement")
			failures = append(failures, receipt.Failure)
			continue
		}

		refs = append(refs, types.DeliveryRef{
			ChannelID:  receipt.ChannelID,
			MessageRef: receipt.MessageRef,
			Channel:    receipt.Channel,
		})
	}

	elapsed := durafmt.Parse(time.Since(start)).LimitFirstN(2).String()
	if len(refs) == 0 {
		s.logger.Error().Str("announcement_id", id).Int("failed", len(failures)).
			Str("elapsed", elapsed).Msg("announcement reached no channel")
		return nil, NewDispatchError(id, failures)
	}

	sent, err := s.commitSent(ctx, id, refs)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("announcement_id", id).Int("delivered", len(refs)).
		Int("failed", len(failures)).Str("elapsed", elapsed).Msg("sent announcement")
	return &types.DispatchResult{
		Announcement: *sent,
		Errors:       failures,
	}, nil
}

// commitSent records a successful dispatch. The caller holds the ID lock
func (s *Service) commitSent(ctx context.Context, id string, refs []types.DeliveryRef) (*types.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	announcements, err := s.provider.LoadAnnouncements(ctx)
	if err != nil {
		return nil, err
	}

	i := indexOf(announcements, id)
	if i < 0 {
		return nil, db.NewNotFoundError(NotFoundKind, id)
	}

	next, err := Transition(announcements[i], ActionDispatch)
	if err != nil {
		return nil, err
	}

	sentAt := s.now().UTC()
	announcements[i].Status = next
	announcements[i].SentAt = &sentAt
	announcements[i].DeliveryRefs = refs

	if err := s.provider.SaveAnnouncements(ctx, announcements); err != nil {
		return nil, err
	}

	sent := announcements[i]
	return &sent, nil
}

// Details returns one announcement with its audience and acknowledgements.
// The audience is nil when the reference is stale
func (s *Service) Details(ctx context.Context, id string) (*types.AnnouncementDetails, error) {
	announcement, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	audience, err := s.audiences.Get(ctx, announcement.AudienceID)
	if err != nil {
		var notFound *db.NotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		audience = nil
	}

	acknowledgements, err := s.acknowledgements.ListFor(ctx, id)
	if err != nil {
		return nil, err
	}

	return &types.AnnouncementDetails{
		Announcement:         *announcement,
		Audience:             audience,
		AcknowledgementCount: len(acknowledgements),
		Acknowledgements:     acknowledgements,
	}, nil
}

// ListDetails is List with each entry enriched like Details
func (s *Service) ListDetails(ctx context.Context, filter types.AnnouncementFilter) ([]types.AnnouncementDetails, error) {
	announcements, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	audiences, err := s.audiences.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	audiencesByID := make(map[string]types.Audience, len(audiences))
	for _, audience := range audiences {
		audiencesByID[audience.ID] = audience
	}

	grouped, err := s.acknowledgements.GroupByAnnouncement(ctx)
	if err != nil {
		return nil, err
	}

	details := make([]types.AnnouncementDetails, len(announcements))
	for i, announcement := range announcements {
		acknowledgements := grouped[announcement.ID]
		if acknowledgements == nil {
			acknowledgements = []types.Acknowledgement{}
		}

		details[i] = types.AnnouncementDetails{
			Announcement:         announcement,
			AcknowledgementCount: len(acknowledgements),
			Acknowledgements:     acknowledgements,
		}
		if audience, ok := audiencesByID[announcement.AudienceID]; ok {
			details[i].Audience = &audience
		}
	}
	return details, nil
}

func (s *Service) audienceExists(ctx context.Context, id string) error {
	_, err := s.audiences.Get(ctx, id)
	if err == nil {
		return nil
	}

	var notFound *db.NotFoundError
	if errors.As(err, &notFound) {
		return NewInvalidReferenceError(id)
	}
	return err
}

func indexOf(announcements []types.Announcement, id string) int {
	for i, announcement := range announcements {
		if announcement.ID == id {
			return i
		}
	}
	return -1
}
