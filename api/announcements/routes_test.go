package announcements

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jd-116/announcement-hub/acknowledgements"
	lifecycle "github.com/jd-116/announcement-hub/announcements"
	"github.com/jd-116/announcement-hub/audiences"
	"github.com/jd-116/announcement-hub/db/memory"
	"github.com/jd-116/announcement-hub/dispatch"
	"github.com/jd-116/announcement-hub/types"
)

// rejectingPoster accepts every channel whose name doesn't start with "bad"
type rejectingPoster struct{}

func (rejectingPoster) PostMessage(ctx context.Context, channelID string, message dispatch.Message) dispatch.Receipt {
	if strings.HasPrefix(channelID, "bad") {
		return dispatch.Receipt{ChannelID: channelID, Failure: "Failed to send to channel " + channelID + ": channel_not_found"}
	}
	return dispatch.Receipt{ChannelID: channelID, MessageRef: "ts-" + channelID}
}

type testServer struct {
	*httptest.Server
	registry *audiences.Registry
	ledger   *acknowledgements.Ledger
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.NewProvider()
	registry := audiences.NewRegistry(store, zerolog.Nop())
	ledger := acknowledgements.NewLedger(store, store, zerolog.Nop())
	service := lifecycle.NewService(store, registry, ledger, rejectingPoster{}, lifecycle.Config{
		WebAppURL: "https://hub.example.com",
		Timeout:   time.Second,
	}, zerolog.Nop())

	server := httptest.NewServer(Routes(service, 1<<20))
	t.Cleanup(server.Close)
	return &testServer{server, registry, ledger}
}

func (s *testServer) audience(t *testing.T, channels ...string) string {
	t.Helper()
	audience, err := s.registry.Create(context.Background(), types.AudienceCreate{Name: "Team", Channels: channels})
	require.NoError(t, err)
	return audience.ID
}

func (s *testServer) do(t *testing.T, method string, path string, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, s.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	res, err := s.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func decode(t *testing.T, res *http.Response, value interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(res.Body).Decode(value))
}

func (s *testServer) create(t *testing.T, audienceID string) types.Announcement {
	t.Helper()

	res := s.do(t, http.MethodPost, "/", `{"title":"Release 4.2","body":"<p>Ships <b>today</b></p>","type":"Info","expectedAction":"Acknowledge","audienceId":"`+audienceID+`","createdBy":"release-bot"}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var announcement types.Announcement
	decode(t, res, &announcement)
	return announcement
}

func TestCreateAndGet(t *testing.T) {
	s := newTestServer(t)
	announcement := s.create(t, s.audience(t, "C1"))
	assert.Equal(t, types.StatusDraft, announcement.Status)

	res := s.do(t, http.MethodGet, "/"+announcement.ID, "")
	require.Equal(t, http.StatusOK, res.StatusCode)

	var details types.AnnouncementDetails
	decode(t, res, &details)
	assert.Equal(t, announcement.ID, details.ID)
	require.NotNil(t, details.Audience)
	assert.Equal(t, 0, details.AcknowledgementCount)
	assert.NotNil(t, details.Acknowledgements)
}

func TestCreateErrors(t *testing.T) {
	s := newTestServer(t)

	res := s.do(t, http.MethodPost, "/", `{"title":"","body":"x","type":"Info","expectedAction":"None","audienceId":"a"}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	var response types.ErrorResponse
	decode(t, res, &response)
	assert.Equal(t, "ValidationError", response.Kind)

	res = s.do(t, http.MethodPost, "/", `{"title":"t","body":"x","type":"Info","expectedAction":"None","audienceId":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	response = types.ErrorResponse{}
	decode(t, res, &response)
	assert.Equal(t, "InvalidReferenceError", response.Kind)

	res = s.do(t, http.MethodPost, "/", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = s.do(t, http.MethodGet, "/missing", "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestSendPartialFailure(t *testing.T) {
	s := newTestServer(t)
	announcement := s.create(t, s.audience(t, "C1", "bad-1", "C2"))

	res := s.do(t, http.MethodPost, "/"+announcement.ID+"/send", "")
	require.Equal(t, http.StatusOK, res.StatusCode)

	var result types.DispatchResult
	decode(t, res, &result)
	assert.Equal(t, types.StatusSent, result.Status)
	require.Len(t, result.DeliveryRefs, 2)
	assert.Equal(t, "C1", result.DeliveryRefs[0].ChannelID)
	assert.Equal(t, "C2", result.DeliveryRefs[1].ChannelID)
	assert.Len(t, result.Errors, 1)

	res = s.do(t, http.MethodPost, "/"+announcement.ID+"/send", "")
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	res = s.do(t, http.MethodPut, "/"+announcement.ID, `{"title":"changed"}`)
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	res = s.do(t, http.MethodDelete, "/"+announcement.ID, "")
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	res = s.do(t, http.MethodPut, "/"+announcement.ID, `{"status":"Closed"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var closed types.Announcement
	decode(t, res, &closed)
	assert.Equal(t, types.StatusClosed, closed.Status)
}

func TestSendFailures(t *testing.T) {
	s := newTestServer(t)

	empty := s.create(t, s.audience(t))
	res := s.do(t, http.MethodPost, "/"+empty.ID+"/send", "")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	var response types.ErrorResponse
	decode(t, res, &response)
	assert.Equal(t, "ConfigurationError", response.Kind)

	failing := s.create(t, s.audience(t, "bad-1", "bad-2"))
	res = s.do(t, http.MethodPost, "/"+failing.ID+"/send", "")
	assert.Equal(t, http.StatusBadGateway, res.StatusCode)
	response = types.ErrorResponse{}
	decode(t, res, &response)
	assert.Equal(t, "DispatchError", response.Kind)
	assert.Len(t, response.Errors, 2)
}

func TestCloseAndDelete(t *testing.T) {
	s := newTestServer(t)
	audienceID := s.audience(t, "C1")

	draft := s.create(t, audienceID)
	res := s.do(t, http.MethodPost, "/"+draft.ID+"/close", "")
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	res = s.do(t, http.MethodDelete, "/"+draft.ID, "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var message types.MessageResponse
	decode(t, res, &message)
	assert.Equal(t, "Announcement deleted", message.Message)

	sent := s.create(t, audienceID)
	res = s.do(t, http.MethodPost, "/"+sent.ID+"/send", "")
	require.Equal(t, http.StatusOK, res.StatusCode)

	res = s.do(t, http.MethodPost, "/"+sent.ID+"/close", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var closed types.Announcement
	decode(t, res, &closed)
	assert.Equal(t, types.StatusClosed, closed.Status)
}

func TestListFilters(t *testing.T) {
	s := newTestServer(t)
	audienceID := s.audience(t, "C1")

	first := s.create(t, audienceID)
	second := s.create(t, audienceID)
	res := s.do(t, http.MethodPost, "/"+second.ID+"/send", "")
	require.Equal(t, http.StatusOK, res.StatusCode)

	_, err := s.ledger.Record(context.Background(), types.AcknowledgementCreate{AnnouncementID: second.ID, UserID: "u1"})
	require.NoError(t, err)

	res = s.do(t, http.MethodGet, "/?status=Sent", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var sent []types.AnnouncementDetails
	decode(t, res, &sent)
	require.Len(t, sent, 1)
	assert.Equal(t, second.ID, sent[0].ID)
	assert.Equal(t, 1, sent[0].AcknowledgementCount)

	res = s.do(t, http.MethodGet, "/?status=Draft&audienceId="+audienceID, "")
	var drafts []types.AnnouncementDetails
	decode(t, res, &drafts)
	require.Len(t, drafts, 1)
	assert.Equal(t, first.ID, drafts[0].ID)

	res = s.do(t, http.MethodGet, "/?startDate=2000-01-01&endDate="+url.QueryEscape(time.Now().Add(time.Hour).Format(time.RFC3339)), "")
	var all []types.AnnouncementDetails
	decode(t, res, &all)
	assert.Len(t, all, 2)

	res = s.do(t, http.MethodGet, "/?startDate=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = s.do(t, http.MethodGet, "/?type=Urgent", "")
	var none []types.AnnouncementDetails
	decode(t, res, &none)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestParseFilter(t *testing.T) {
	filter, err := ParseFilter(url.Values{
		"type":      {"Urgent"},
		"startDate": {"2024-05-01"},
		"endDate":   {"2024-05-31T23:59:59Z"},
		"search":    {" outage "},
	})
	require.NoError(t, err)
	assert.Equal(t, types.TypeUrgent, filter.Type)
	assert.Equal(t, "outage", filter.Search)
	require.NotNil(t, filter.StartDate)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), *filter.StartDate)
	require.NotNil(t, filter.EndDate)
	assert.Equal(t, 31, filter.EndDate.Day())
	assert.Empty(t, filter.Status)
}
