package db

import (
	"context"

	"github.com/jd-116/announcement-hub/types"
)

// Collection names shared by every backend
const (
	AnnouncementsCollection    = "announcements"
	AudiencesCollection        = "audiences"
	AcknowledgementsCollection = "acknowledgements"
)

// Provider represents a record store implementation.
//
// Collections are read and replaced as a whole: a Save is visible to later
// Loads either completely or not at all. Loading a collection that was never
// saved yields an empty, non-nil slice
type Provider interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error

	AnnouncementProvider
	AudienceProvider
	AcknowledgementProvider
}

// AnnouncementProvider loads and saves the announcements collection
type AnnouncementProvider interface {
	LoadAnnouncements(ctx context.Context) ([]types.Announcement, error)
	SaveAnnouncements(ctx context.Context, announcements []types.Announcement) error
}

// AudienceProvider loads and saves the audiences collection
type AudienceProvider interface {
	LoadAudiences(ctx context.Context) ([]types.Audience, error)
	SaveAudiences(ctx context.Context, audiences []types.Audience) error
}

// AcknowledgementProvider loads and saves the acknowledgements collection
type AcknowledgementProvider interface {
	LoadAcknowledgements(ctx context.Context) ([]types.Acknowledgement, error)
	SaveAcknowledgements(ctx context.Context, acknowledgements []types.Acknowledgement) error
}
