package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jd-116/announcement-hub/dispatch"
	"github.com/jd-116/announcement-hub/env"
)

// DefaultBaseURL is the Slack Web API root
const DefaultBaseURL = "https://slack.com/api"

// DefaultAppName is the link label used in the "View in" footer
const DefaultAppName = "Announcement Hub"

// Provider posts messages through the Slack Web API
// using a bot token
type Provider struct {
	Team    string
	BotUser string

	baseURL string
	token   string
	appName string
	client  *http.Client
	logger  zerolog.Logger
}

// NewProvider loads the bot token and API URL from the environment
func NewProvider(logger zerolog.Logger) (*Provider, error) {
	token, err := env.GetEnv("Slack bot token", "SLACK_BOT_TOKEN")
	if err != nil {
		return nil, err
	}

	baseURL := env.GetEnvDefault("SLACK_API_URL", DefaultBaseURL)
	return NewClient(baseURL, token, &http.Client{}, logger), nil
}

// NewClient creates a provider against the given API root.
// Requests are bounded by the caller's context rather than a client timeout
func NewClient(baseURL string, token string, client *http.Client, logger zerolog.Logger) *Provider {
	return &Provider{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		appName: DefaultAppName,
		client:  client,
		logger:  logger,
	}
}

// Expected JSON from auth.test
type authTestResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Team  string `json:"team"`
	User  string `json:"user"`
}

// Connect verifies the token with auth.test
func (p *Provider) Connect(ctx context.Context) error {
	var response authTestResponse
	status, err := p.call(ctx, "auth.test", struct{}{}, &response)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("Slack auth.test returned HTTP %d", status)
	}
	if !response.OK {
		return fmt.Errorf("Slack auth.test failed: %s", response.Error)
	}

	p.Team = response.Team
	p.BotUser = response.User
	return nil
}

// Disconnect is a no-op
func (p *Provider) Disconnect(ctx context.Context) error {
	return nil
}

type postMessageRequest struct {
	Channel     string  `json:"channel"`
	Text        string  `json:"text"`
	Blocks      []block `json:"blocks"`
	UnfurlLinks bool    `json:"unfurl_links"`
	UnfurlMedia bool    `json:"unfurl_media"`
}

// Expected JSON from chat.postMessage
type postMessageResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Channel string `json:"channel"`
	TS      string `json:"ts"`
}

// PostMessage posts the rendered message to one channel with chat.postMessage.
// API rejections and transport errors are both reported in the receipt
func (p *Provider) PostMessage(ctx context.Context, channelID string, message dispatch.Message) dispatch.Receipt {
	request := postMessageRequest{
		Channel:     channelID,
		Text:        message.Title,
		Blocks:      buildBlocks(message, p.appName),
		UnfurlLinks: false,
		UnfurlMedia: false,
	}

	var response postMessageResponse
	status, err := p.call(ctx, "chat.postMessage", request, &response)
	if err != nil {
		return dispatch.Receipt{
			ChannelID: channelID,
			Failure:   fmt.Sprintf("Error sending to channel %s: %s", channelID, err),
		}
	}

	if status != http.StatusOK {
		return dispatch.Receipt{
			ChannelID: channelID,
			Failure:   fmt.Sprintf("Failed to send to channel %s: HTTP %d %s", channelID, status, http.StatusText(status)),
		}
	}

	if !response.OK {
		return dispatch.Receipt{
			ChannelID: channelID,
			Failure:   fmt.Sprintf("Failed to send to channel %s: %s", channelID, response.Error),
		}
	}

	p.logger.Debug().Str("channel_id", channelID).Str("ts", response.TS).
		Str("announcement_id", message.AnnouncementID).Msg("posted message to Slack")

	return dispatch.Receipt{
		ChannelID:  channelID,
		MessageRef: response.TS,
		Channel:    response.Channel,
	}
}

// call POSTs a JSON payload to a Web API method and decodes the reply.
// The HTTP status is returned so that callers can report non-200 replies,
// which carry no usable JSON body (e.g. rate limiting)
func (p *Provider) call(ctx context.Context, method string, payload interface{}, out interface{}) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}

	req.Header.Add("Content-Type", "application/json; charset=utf-8")
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", p.token))

	res, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return res.StatusCode, nil
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return res.StatusCode, err
	}

	return res.StatusCode, nil
}
