package dispatch

import "context"

// NotConfiguredReason is reported for every post when no messaging
// platform credentials were supplied
const NotConfiguredReason = "Slack integration not configured. Please set SLACK_BOT_TOKEN."

// Disabled is the provider used when the messaging platform isn't configured.
// Every post fails, so dispatches fail as a whole and leave announcements in Draft
type Disabled struct{}

// Connect is a no-op
func (Disabled) Connect(ctx context.Context) error {
	return nil
}

// Disconnect is a no-op
func (Disabled) Disconnect(ctx context.Context) error {
	return nil
}

// PostMessage always fails
func (Disabled) PostMessage(ctx context.Context, channelID string, message Message) Receipt {
	return Receipt{
		ChannelID: channelID,
		Failure:   NotConfiguredReason,
	}
}
