package audiences

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	registry "github.com/jd-116/announcement-hub/audiences"
	"github.com/jd-116/announcement-hub/db/memory"
	"github.com/jd-116/announcement-hub/types"
)

func serve(t *testing.T, method string, path string, body string, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()

	r := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func TestAudienceCRUD(t *testing.T) {
	router := Routes(registry.NewRegistry(memory.NewProvider(), zerolog.Nop()), 1<<20)

	w := serve(t, http.MethodPost, "/", `{"name":"Support","channels":["C1","C1","C2"]}`, router)
	require.Equal(t, http.StatusCreated, w.Code)
	var created types.Audience
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, []string{"C1", "C2"}, created.Channels)

	w = serve(t, http.MethodGet, "/"+created.ID, "", router)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(t, http.MethodPut, "/"+created.ID, `{"name":"Customer Support"}`, router)
	require.Equal(t, http.StatusOK, w.Code)
	var updated types.Audience
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Customer Support", updated.Name)
	assert.Equal(t, []string{"C1", "C2"}, updated.Channels)

	w = serve(t, http.MethodGet, "/", "", router)
	require.Equal(t, http.StatusOK, w.Code)
	var all []types.Audience
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, 1)

	w = serve(t, http.MethodDelete, "/"+created.ID, "", router)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(t, http.MethodGet, "/"+created.ID, "", router)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAudienceValidation(t *testing.T) {
	router := Routes(registry.NewRegistry(memory.NewProvider(), zerolog.Nop()), 64)

	w := serve(t, http.MethodPost, "/", `{"name":" "}`, router)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var response types.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ValidationError", response.Kind)

	w = serve(t, http.MethodPost, "/", `{"name":"`+strings.Repeat("x", 100)+`"}`, router)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(t, http.MethodPut, "/missing", `{"name":"x"}`, router)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
