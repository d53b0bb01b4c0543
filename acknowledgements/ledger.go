// Package acknowledgements records which users have confirmed
// reading which announcements
package acknowledgements

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/jd-116/announcement-hub/db"
	"github.com/jd-116/announcement-hub/locks"
	"github.com/jd-116/announcement-hub/types"
)

// NotFoundKind names acknowledgements in NotFoundErrors
const NotFoundKind = "acknowledgement"

// announcementKind names announcements in NotFoundErrors
const announcementKind = "announcement"

// Ledger is an append-only set of acknowledgements
// holding at most one record per (user, announcement) pair
type Ledger struct {
	// Serializes read-modify-write cycles on the collection
	mu            sync.Mutex
	pairs         *locks.KeyedMutex
	provider      db.AcknowledgementProvider
	announcements db.AnnouncementProvider
	logger        zerolog.Logger
	now           func() time.Time
}

// NewLedger creates a ledger backed by the given store.
// Announcements are only read, to check that acknowledged IDs exist
func NewLedger(provider db.AcknowledgementProvider, announcements db.AnnouncementProvider,
	logger zerolog.Logger) *Ledger {
	return &Ledger{
		pairs:         locks.NewKeyedMutex(),
		provider:      provider,
		announcements: announcements,
		logger:        logger.With().Str("component", "acknowledgements").Logger(),
		now:           time.Now,
	}
}

// Record acknowledges an announcement on behalf of a user.
// The user name defaults to the user ID
func (l *Ledger) Record(ctx context.Context, create types.AcknowledgementCreate) (*types.Acknowledgement, error) {
	announcementID := strings.TrimSpace(create.AnnouncementID)
	userID := strings.TrimSpace(create.UserID)
	if announcementID == "" {
		return nil, NewMissingFieldError("announcementId")
	}
	if userID == "" {
		return nil, NewMissingFieldError("userId")
	}

	userName := strings.TrimSpace(create.UserName)
	if userName == "" {
		userName = userID
	}

	if err := l.announcementExists(ctx, announcementID); err != nil {
		return nil, err
	}

	// Hold the pair key across the duplicate check and the insert
	unlock := l.pairs.Lock(pairKey(userID, announcementID))
	defer unlock()

	if existing, err := l.find(ctx, announcementID, userID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, NewDuplicateError(*existing)
	}

	acknowledgement := types.Acknowledgement{
		ID:             ksuid.New().String(),
		AnnouncementID: announcementID,
		UserID:         userID,
		UserName:       userName,
		AcknowledgedAt: l.now().UTC(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acknowledgements, err := l.provider.LoadAcknowledgements(ctx)
	if err != nil {
		return nil, err
	}

	acknowledgements = append(acknowledgements, acknowledgement)
	if err := l.provider.SaveAcknowledgements(ctx, acknowledgements); err != nil {
		return nil, err
	}

	l.logger.Info().Str("announcement_id", announcementID).Str("user_id", userID).
		Msg("recorded acknowledgement")
	return &acknowledgement, nil
}

// Check reports whether a user has acknowledged an announcement.
// It never fails: store errors are logged and reported as not acknowledged
func (l *Ledger) Check(ctx context.Context, announcementID string, userID string) types.AcknowledgementCheck {
	existing, err := l.find(ctx, announcementID, userID)
	if err != nil {
		l.logger.Warn().Err(err).Str("announcement_id", announcementID).Str("user_id", userID).
			Msg("acknowledgement check failed; reporting not acknowledged")
		return types.AcknowledgementCheck{}
	}
	if existing == nil {
		return types.AcknowledgementCheck{}
	}

	return types.AcknowledgementCheck{
		Acknowledged:    true,
		Acknowledgement: existing,
	}
}

// ListFor returns the acknowledgements of one announcement in insertion order
func (l *Ledger) ListFor(ctx context.Context, announcementID string) ([]types.Acknowledgement, error) {
	acknowledgements, err := l.provider.LoadAcknowledgements(ctx)
	if err != nil {
		return nil, err
	}

	matching := []types.Acknowledgement{}
	for _, acknowledgement := range acknowledgements {
		if acknowledgement.AnnouncementID == announcementID {
			matching = append(matching, acknowledgement)
		}
	}
	return matching, nil
}

// GroupByAnnouncement loads the whole ledger once and groups it
// by announcement ID, keeping insertion order within each group
func (l *Ledger) GroupByAnnouncement(ctx context.Context) (map[string][]types.Acknowledgement, error) {
	acknowledgements, err := l.provider.LoadAcknowledgements(ctx)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]types.Acknowledgement)
	for _, acknowledgement := range acknowledgements {
		grouped[acknowledgement.AnnouncementID] = append(grouped[acknowledgement.AnnouncementID], acknowledgement)
	}
	return grouped, nil
}

// Delete removes a single acknowledgement. This is an administrative
// operation outside the normal acknowledge flow
func (l *Ledger) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acknowledgements, err := l.provider.LoadAcknowledgements(ctx)
	if err != nil {
		return err
	}

	for i, acknowledgement := range acknowledgements {
		if acknowledgement.ID != id {
			continue
		}

		acknowledgements = append(acknowledgements[:i], acknowledgements[i+1:]...)
		if err := l.provider.SaveAcknowledgements(ctx, acknowledgements); err != nil {
			return err
		}

		l.logger.Info().Str("acknowledgement_id", id).
			Str("announcement_id", acknowledgement.AnnouncementID).Msg("deleted acknowledgement")
		return nil
	}

	return db.NewNotFoundError(NotFoundKind, id)
}

func (l *Ledger) announcementExists(ctx context.Context, id string) error {
	announcements, err := l.announcements.LoadAnnouncements(ctx)
	if err != nil {
		return err
	}

	for _, announcement := range announcements {
		if announcement.ID == id {
			return nil
		}
	}
	return db.NewNotFoundError(announcementKind, id)
}

func (l *Ledger) find(ctx context.Context, announcementID string, userID string) (*types.Acknowledgement, error) {
	acknowledgements, err := l.provider.LoadAcknowledgements(ctx)
	if err != nil {
		return nil, err
	}

	for i := range acknowledgements {
		if acknowledgements[i].AnnouncementID == announcementID && acknowledgements[i].UserID == userID {
			return &acknowledgements[i], nil
		}
	}
	return nil, nil
}

func pairKey(userID string, announcementID string) string {
	return userID + "\x00" + announcementID
}
