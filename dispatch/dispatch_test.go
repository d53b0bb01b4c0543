package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jd-116/announcement-hub/types"
)

func TestNewMessageLinks(t *testing.T) {
	announcement := types.Announcement{
		ID:             "2Aa1",
		Title:          "Deploy freeze",
		Body:           "No deploys on *Friday*",
		Type:           types.TypeOperational,
		ExpectedAction: types.ActionAcknowledge,
	}

	message := NewMessage(announcement, "https://hub.example.com/")
	assert.Equal(t, "https://hub.example.com/acknowledge/2Aa1", message.AcknowledgeURL)
	assert.Equal(t, "https://hub.example.com/announcements/2Aa1", message.DetailURL)
	assert.Equal(t, "No deploys on *Friday*", message.Body)

	announcement.ExpectedAction = types.ActionNone
	message = NewMessage(announcement, "https://hub.example.com")
	assert.Empty(t, message.AcknowledgeURL)
	assert.Equal(t, "https://hub.example.com/announcements/2Aa1", message.DetailURL)
}

func TestToMrkdwn(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "Plain *mrkdwn* & friends", "Plain *mrkdwn* & friends"},
		{"paragraphs and bold", "<p>Hello <b>team</b></p><p>Second</p>", "Hello *team*\n\nSecond"},
		{"italic and strike", "<p><em>soon</em> <del>now</del></p>", "_soon_ ~now~"},
		{"links", `<p>See <a href="https://example.com/doc">the docs</a></p>`, "See <https://example.com/doc|the docs>"},
		{"line breaks", "<p>one<br>two</p>", "one\ntwo"},
		{"lists", "<ul><li>alpha</li><li>beta</li></ul>", "• alpha\n• beta"},
		{"escapes text", "<p>a &lt; b &amp; c</p>", "a &lt; b &amp; c"},
		{"drops scripts", "<p>safe</p><script>alert(1)</script>", "safe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToMrkdwn(tt.in))
		})
	}
}

func TestDisabledAlwaysFails(t *testing.T) {
	receipt := Disabled{}.PostMessage(context.Background(), "C1", Message{})
	assert.False(t, receipt.Delivered())
	assert.Equal(t, "C1", receipt.ChannelID)
	assert.Equal(t, NotConfiguredReason, receipt.Failure)
}
