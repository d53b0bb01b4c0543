package slack

import (
	"fmt"
	"unicode/utf8"

	"github.com/jd-116/announcement-hub/dispatch"
)

// Block Kit limits on header and section text
const (
	maxHeaderLength  = 150
	maxSectionLength = 3000
)

type textObject struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

type buttonElement struct {
	Type     string     `json:"type"`
	Text     textObject `json:"text"`
	Style    string     `json:"style,omitempty"`
	URL      string     `json:"url,omitempty"`
	ActionID string     `json:"action_id,omitempty"`
}

type block struct {
	Type      string         `json:"type"`
	Text      *textObject    `json:"text,omitempty"`
	Elements  []textObject   `json:"elements,omitempty"`
	Accessory *buttonElement `json:"accessory,omitempty"`
}

// buildBlocks lays out a message as Block Kit blocks:
// header, body, type/action footer, an optional acknowledge button
// and a link back to the announcement
func buildBlocks(message dispatch.Message, appName string) []block {
	blocks := []block{
		{
			Type: "header",
			Text: &textObject{Type: "plain_text", Text: truncate(message.Title, maxHeaderLength), Emoji: true},
		},
		{Type: "divider"},
		{
			Type: "section",
			Text: &textObject{Type: "mrkdwn", Text: truncate(message.Body, maxSectionLength)},
		},
		{
			Type: "context",
			Elements: []textObject{{
				Type: "mrkdwn",
				Text: fmt.Sprintf("*Type:* %s | *Action Required:* %s", message.Type, message.ExpectedAction),
			}},
		},
	}

	if message.AcknowledgeURL != "" {
		blocks = append(blocks,
			block{Type: "divider"},
			block{
				Type: "section",
				Text: &textObject{Type: "mrkdwn", Text: "Please acknowledge this announcement:"},
				Accessory: &buttonElement{
					Type:     "button",
					Text:     textObject{Type: "plain_text", Text: "Acknowledge", Emoji: true},
					Style:    "primary",
					URL:      message.AcknowledgeURL,
					ActionID: "acknowledge_button",
				},
			})
	}

	if message.DetailURL != "" {
		blocks = append(blocks,
			block{Type: "divider"},
			block{
				Type: "section",
				Text: &textObject{Type: "mrkdwn", Text: fmt.Sprintf("View in <%s|%s>", message.DetailURL, appName)},
			})
	}

	return blocks
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}

	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}
