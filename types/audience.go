package types

import "time"

// Audience is a named group of channels that announcements are sent to
type Audience struct {
	ID        string    `json:"id" bson:"id"`
	Name      string    `json:"name" bson:"name"`
	Channels  []string  `json:"channels" bson:"channels"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// AudienceCreate is supplied by the dashboard and converted into an Audience
type AudienceCreate struct {
	Name     string   `json:"name"`
	Channels []string `json:"channels"`
}

// AudiencePatch is a partial update of an audience
type AudiencePatch struct {
	Name     *string   `json:"name,omitempty"`
	Channels *[]string `json:"channels,omitempty"`
}
