package types

import "time"

// AnnouncementType classifies how an announcement is presented to recipients
type AnnouncementType string

// The allowed announcement types
const (
	TypeInfo        AnnouncementType = "Info"
	TypeOperational AnnouncementType = "Operational"
	TypeUrgent      AnnouncementType = "Urgent"
)

// Valid reports whether the type is one of the allowed values
func (t AnnouncementType) Valid() bool {
	switch t {
	case TypeInfo, TypeOperational, TypeUrgent:
		return true
	}
	return false
}

// ExpectedAction is what recipients are asked to do after reading
type ExpectedAction string

// The allowed expected actions
const (
	ActionNone        ExpectedAction = "None"
	ActionAcknowledge ExpectedAction = "Acknowledge"
)

// Valid reports whether the action is one of the allowed values
func (a ExpectedAction) Valid() bool {
	return a == ActionNone || a == ActionAcknowledge
}

// Status is the lifecycle state of an announcement
type Status string

// Announcement lifecycle states
const (
	StatusDraft  Status = "Draft"
	StatusSent   Status = "Sent"
	StatusClosed Status = "Closed"
)

// Valid reports whether the status is a known lifecycle state
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusClosed:
		return true
	}
	return false
}

// DeliveryRef records a channel that accepted an announcement
type DeliveryRef struct {
	ChannelID  string `json:"channelId" bson:"channelId"`
	MessageRef string `json:"messageRef" bson:"messageRef"`
	// Channel is the channel identifier as resolved by the messaging platform,
	// which may differ from ChannelID (e.g. a user ID resolving to a DM channel)
	Channel string `json:"channel,omitempty" bson:"channel,omitempty"`
}

// Announcement is the stored record for a single announcement
type Announcement struct {
	ID             string           `json:"id" bson:"id"`
	Title          string           `json:"title" bson:"title"`
	Body           string           `json:"body" bson:"body"`
	Type           AnnouncementType `json:"type" bson:"type"`
	ExpectedAction ExpectedAction   `json:"expectedAction" bson:"expectedAction"`
	AudienceID     string           `json:"audienceId" bson:"audienceId"`
	CreatedBy      string           `json:"createdBy" bson:"createdBy"`
	CreatedAt      time.Time        `json:"createdAt" bson:"createdAt"`
	Status         Status           `json:"status" bson:"status"`
	SentAt         *time.Time       `json:"sentAt" bson:"sentAt"`
	DeliveryRefs   []DeliveryRef    `json:"deliveryRefs" bson:"deliveryRefs"`
}

// AnnouncementCreate is supplied by the dashboard and converted into
// an Announcement
type AnnouncementCreate struct {
	Title          string           `json:"title"`
	Body           string           `json:"body"`
	Type           AnnouncementType `json:"type"`
	ExpectedAction ExpectedAction   `json:"expectedAction"`
	AudienceID     string           `json:"audienceId"`
	CreatedBy      string           `json:"createdBy"`
}

// AnnouncementPatch is a partial update of an announcement.
// Nil fields are left untouched; identity, timestamps
// and delivery refs cannot be patched
type AnnouncementPatch struct {
	Title          *string           `json:"title,omitempty"`
	Body           *string           `json:"body,omitempty"`
	Type           *AnnouncementType `json:"type,omitempty"`
	ExpectedAction *ExpectedAction   `json:"expectedAction,omitempty"`
	AudienceID     *string           `json:"audienceId,omitempty"`
	CreatedBy      *string           `json:"createdBy,omitempty"`
	Status         *Status           `json:"status,omitempty"`
}

// OnlyStatus reports whether the patch sets the status to the given value
// and touches nothing else
func (p *AnnouncementPatch) OnlyStatus(status Status) bool {
	if p.Status == nil || *p.Status != status {
		return false
	}

	return p.Title == nil && p.Body == nil && p.Type == nil &&
		p.ExpectedAction == nil && p.AudienceID == nil && p.CreatedBy == nil
}

// Apply merges the patch fields into the announcement
func (p *AnnouncementPatch) Apply(a *Announcement) {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Body != nil {
		a.Body = *p.Body
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.ExpectedAction != nil {
		a.ExpectedAction = *p.ExpectedAction
	}
	if p.AudienceID != nil {
		a.AudienceID = *p.AudienceID
	}
	if p.CreatedBy != nil {
		a.CreatedBy = *p.CreatedBy
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
}

// AnnouncementFilter narrows the announcement list.
// Zero-valued fields do not filter
type AnnouncementFilter struct {
	Type       AnnouncementType
	AudienceID string
	Status     Status
	StartDate  *time.Time
	EndDate    *time.Time
	Search     string
}

// AnnouncementDetails is an announcement enriched with its audience
// and acknowledgements, as returned by the API
type AnnouncementDetails struct {
	Announcement
	Audience             *Audience         `json:"audience"`
	AcknowledgementCount int               `json:"acknowledgementCount"`
	Acknowledgements     []Acknowledgement `json:"acknowledgements"`
}

// DispatchResult is the outcome of sending an announcement: the updated record
// and the per-channel failures that did not prevent the send
type DispatchResult struct {
	Announcement
	Errors []string `json:"errors"`
}
