// Package dispatch defines the channel dispatcher consumed by the
// announcement lifecycle: rendering an announcement into a message
// and posting it to a single channel of the messaging platform.
package dispatch

import (
	"context"
	"net/url"
	"strings"

	"github.com/jd-116/announcement-hub/types"
)

// Message is a rendered announcement, ready to be posted to a channel
type Message struct {
	AnnouncementID string
	Title          string
	Body           string
	Type           types.AnnouncementType
	ExpectedAction types.ExpectedAction

	// AcknowledgeURL is only set when the announcement asks for acknowledgement
	AcknowledgeURL string
	DetailURL      string
}

// NewMessage renders an announcement into a message,
// building the acknowledge and detail links from the web app base URL
func NewMessage(announcement types.Announcement, webAppURL string) Message {
	base := strings.TrimRight(webAppURL, "/")
	id := url.PathEscape(announcement.ID)

	message := Message{
		AnnouncementID: announcement.ID,
		Title:          announcement.Title,
		Body:           ToMrkdwn(announcement.Body),
		Type:           announcement.Type,
		ExpectedAction: announcement.ExpectedAction,
		DetailURL:      base + "/announcements/" + id,
	}
	if announcement.ExpectedAction == types.ActionAcknowledge {
		message.AcknowledgeURL = base + "/acknowledge/" + id
	}

	return message
}

// Receipt is the outcome of posting a message to one channel.
// A failed post is reported through Failure, never as an error
type Receipt struct {
	ChannelID  string
	MessageRef string

	// Channel is the channel as resolved by the platform, if it reported one
	Channel string

	Failure string
}

// Delivered reports whether the channel accepted the message
func (r Receipt) Delivered() bool {
	return r.Failure == ""
}

// Poster posts a message to a single channel
type Poster interface {
	PostMessage(ctx context.Context, channelID string, message Message) Receipt
}

// Provider represents a messaging platform implementation
type Provider interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error

	Poster
}
