package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jd-116/announcement-hub/audiences"
	"github.com/jd-116/announcement-hub/db"
	"github.com/jd-116/announcement-hub/dispatch"
	"github.com/jd-116/announcement-hub/types"
)

func newTestAPIServer(t *testing.T) *APIServer {
	t.Helper()

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("SLACK_BOT_TOKEN", "")
	t.Setenv("REQUEST_MAX_SIZE", "64KB")

	server, err := NewAPIServer(zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, server.Connect(context.Background()))
	t.Cleanup(func() {
		assert.NoError(t, server.Disconnect(context.Background()))
	})
	return server
}

func TestNewAPIServerConfiguration(t *testing.T) {
	server := newTestAPIServer(t)

	assert.Equal(t, int64(64*1024), server.maxBodySize)
	assert.IsType(t, dispatch.Disabled{}, server.dispatchProvider)
}

func TestNewAPIServerUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "floppy")

	_, err := NewAPIServer(zerolog.Nop())
	var unknown *db.UnknownDriverError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "floppy", unknown.Driver)
}

func TestRoutesEndToEnd(t *testing.T) {
	server := newTestAPIServer(t)
	router := server.routes()

	serve := func(method string, path string, body string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(method, path, strings.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		return w
	}

	w := serve(http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	var health types.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)

	// The default audience is seeded on connect
	w = serve(http.MethodGet, "/api/audiences/"+audiences.DefaultID, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(http.MethodPut, "/api/audiences/"+audiences.DefaultID, `{"channels":["C1"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(http.MethodPost, "/api/announcements", `{"title":"Hello","body":"World","type":"Info","expectedAction":"None","audienceId":"`+audiences.DefaultID+`"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var announcement types.Announcement
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &announcement))

	// Without a bot token every channel fails and the announcement stays a draft
	w = serve(http.MethodPost, "/api/announcements/"+announcement.ID+"/send", "")
	require.Equal(t, http.StatusBadGateway, w.Code)
	var response types.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, []string{dispatch.NotConfiguredReason}, response.Errors)

	w = serve(http.MethodGet, "/api/acknowledgements/check/"+announcement.ID+"/u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"acknowledged":false`)

	// Acknowledgements are only deleted under the admin prefix
	w = serve(http.MethodDelete, "/api/acknowledgements/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), "NotFoundError")

	w = serve(http.MethodDelete, "/api/admin/acknowledgements/missing", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	response = types.ErrorResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "NotFoundError", response.Kind)
}

func TestNewLogger(t *testing.T) {
	var out bytes.Buffer
	logger, err := newLogger("json", &out)
	require.NoError(t, err)

	logger.Info().Str("announcement_id", "a1").Msg("hello")
	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &line))
	assert.Equal(t, "a1", line["announcement_id"])

	_, err = newLogger("xml", &out)
	assert.Error(t, err)
}
