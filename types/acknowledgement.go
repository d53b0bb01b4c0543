package types

import "time"

// Acknowledgement records that a user confirmed reading an announcement
type Acknowledgement struct {
	ID             string    `json:"id" bson:"id"`
	AnnouncementID string    `json:"announcementId" bson:"announcementId"`
	UserID         string    `json:"userId" bson:"userId"`
	UserName       string    `json:"userName" bson:"userName"`
	AcknowledgedAt time.Time `json:"acknowledgedAt" bson:"acknowledgedAt"`
}

// AcknowledgementCreate is the body of an acknowledge request
type AcknowledgementCreate struct {
	AnnouncementID string `json:"announcementId"`
	UserID         string `json:"userId"`
	UserName       string `json:"userName"`
}

// AcknowledgementCheck is the result of checking whether a user
// has acknowledged an announcement
type AcknowledgementCheck struct {
	Acknowledged    bool             `json:"acknowledged"`
	Acknowledgement *Acknowledgement `json:"acknowledgement"`
}
