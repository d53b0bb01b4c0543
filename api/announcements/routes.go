package announcements

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi"

	"github.com/jd-116/announcement-hub/types"
	"github.com/jd-116/announcement-hub/util"
)

// Service is the part of the lifecycle engine the handlers use
type Service interface {
	Create(ctx context.Context, create types.AnnouncementCreate) (*types.Announcement, error)
	Update(ctx context.Context, id string, patch types.AnnouncementPatch) (*types.Announcement, error)
	Dispatch(ctx context.Context, id string) (*types.DispatchResult, error)
	Close(ctx context.Context, id string) (*types.Announcement, error)
	Delete(ctx context.Context, id string) error
	Details(ctx context.Context, id string) (*types.AnnouncementDetails, error)
	ListDetails(ctx context.Context, filter types.AnnouncementFilter) ([]types.AnnouncementDetails, error)
}

// Routes creates a new Chi router with all of the routes for the announcement resource,
// at the root level
func Routes(service Service, maxBodySize int64) *chi.Mux {
	router := chi.NewRouter()
	router.Get("/", GetAll(service))
	router.Get("/{id}", GetSingle(service))
	router.Post("/", Create(service, maxBodySize))
	router.Put("/{id}", Update(service, maxBodySize))
	router.Delete("/{id}", Delete(service))
	router.Post("/{id}/send", Send(service))
	router.Post("/{id}/close", Close(service))
	return router
}

// GetAll lists announcements matching the query filters, newest first
func GetAll(service Service) http.HandlerFunc {
	// Use a closure to inject the service
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := ParseFilter(r.URL.Query())
		if err != nil {
			util.Error(w, err)
			return
		}

		announcements, err := service.ListDetails(r.Context(), filter)
		if err != nil {
			util.Error(w, err)
			return
		}

		// Return the bare list as the top-level JSON
		util.JSON(w, http.StatusOK, announcements)
	}
}

// GetSingle gets a single announcement with its audience and acknowledgements
func GetSingle(service Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}

		details, err := service.Details(r.Context(), id)
		if err != nil {
			util.Error(w, err)
			return
		}

		util.JSON(w, http.StatusOK, details)
	}
}

// Create creates a new Draft announcement
func Create(service Service, maxBodySize int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var create types.AnnouncementCreate
		if err := util.DecodeJSON(w, r, maxBodySize, &create); err != nil {
			util.Error(w, err)
			return
		}

		announcement, err := service.Create(r.Context(), create)
		if err != nil {
			util.Error(w, err)
			return
		}

		util.JSON(w, http.StatusCreated, announcement)
	}
}

// Update applies a partial update to an announcement
func Update(service Service, maxBodySize int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}

		var patch types.AnnouncementPatch
		if err := util.DecodeJSON(w, r, maxBodySize, &patch); err != nil {
			util.Error(w, err)
			return
		}

		updated, err := service.Update(r.Context(), id, patch)
		if err != nil {
			util.Error(w, err)
			return
		}

		util.JSON(w, http.StatusOK, updated)
	}
}

// Delete deletes a Draft announcement
func Delete(service Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}

		if err := service.Delete(r.Context(), id); err != nil {
			util.Error(w, err)
			return
		}

		util.JSON(w, http.StatusOK, types.MessageResponse{Message: "Announcement deleted"})
	}
}

// Send dispatches an announcement to its audience's channels.
// Channels that failed while others succeeded are listed in the response
func Send(service Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}

		result, err := service.Dispatch(r.Context(), id)
		if err != nil {
			util.Error(w, err)
			return
		}

		util.JSON(w, http.StatusOK, result)
	}
}

// Close closes a sent announcement
func Close(service Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}

		closed, err := service.Close(r.Context(), id)
		if err != nil {
			util.Error(w, err)
			return
		}

		util.JSON(w, http.StatusOK, closed)
	}
}

// ParseFilter reads the list filters from a query string.
// Dates may be RFC 3339 timestamps or plain YYYY-MM-DD dates (midnight UTC)
func ParseFilter(query url.Values) (types.AnnouncementFilter, error) {
	filter := types.AnnouncementFilter{
		Type:       types.AnnouncementType(strings.TrimSpace(query.Get("type"))),
		AudienceID: strings.TrimSpace(query.Get("audienceId")),
		Status:     types.Status(strings.TrimSpace(query.Get("status"))),
		Search:     strings.TrimSpace(query.Get("search")),
	}

	for _, param := range []struct {
		name string
		dest **time.Time
	}{
		{"startDate", &filter.StartDate},
		{"endDate", &filter.EndDate},
	} {
		value := strings.TrimSpace(query.Get(param.name))
		if value == "" {
			continue
		}

		parsed, err := parseDate(value)
		if err != nil {
			return filter, util.NewBadRequestError(fmt.Errorf("%s '%s' is not a valid date", param.name, value))
		}
		*param.dest = &parsed
	}

	return filter, nil
}

func parseDate(value string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	return time.ParseInLocation("2006-01-02", value, time.UTC)
}

func idParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		util.ErrorWithCode(w, util.NewBadRequestError(errors.New("the URL parameter is empty")),
			http.StatusBadRequest)
		return "", false
	}
	return id, true
}
