package acknowledgements

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/jd-116/announcement-hub/types"
	"github.com/jd-116/announcement-hub/util"
)

// Ledger is the part of the acknowledgement ledger the handlers use
type Ledger interface {
	Record(ctx context.Context, create types.AcknowledgementCreate) (*types.Acknowledgement, error)
	Check(ctx context.Context, announcementID string, userID string) types.AcknowledgementCheck
	ListFor(ctx context.Context, announcementID string) ([]types.Acknowledgement, error)
	Delete(ctx context.Context, id string) error
}

// Routes creates a new Chi router with all of the routes for the acknowledgement resource,
// at the root level
func Routes(ledger Ledger, maxBodySize int64) *chi.Mux {
	router := chi.NewRouter()
	router.Post("/", Create(ledger, maxBodySize))
	router.Get("/announcement/{id}", GetForAnnouncement(ledger))
	router.Get("/check/{announcementId}/{userId}", Check(ledger))
	return router
}

// AdminRoutes creates a new Chi router with the administrative acknowledgement routes,
// kept apart from the routes end users call
func AdminRoutes(ledger Ledger) *chi.Mux {
	router := chi.NewRouter()
	router.Delete("/{id}", Delete(ledger))
	return router
}

// Create acknowledges an announcement on behalf of a user.
// Duplicates are rejected with the existing record attached
func Create(ledger Ledger, maxBodySize int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var create types.AcknowledgementCreate
		if err := util.DecodeJSON(w, r, maxBodySize, &create); err != nil {
			util.Error(w, err)
			return
		}

		acknowledgement, err := ledger.Record(r.Context(), create)
		if err != nil {
			util.Error(w, err)
			return
		}

		util.JSON(w, http.StatusCreated, acknowledgement)
	}
}

// GetForAnnouncement lists the acknowledgements of one announcement
func GetForAnnouncement(ledger Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			util.ErrorWithCode(w, errors.New("the URL parameter is empty"),
				http.StatusBadRequest)
			return
		}

		acknowledgements, err := ledger.ListFor(r.Context(), id)
		if err != nil {
			util.Error(w, err)
			return
		}

		util.JSON(w, http.StatusOK, acknowledgements)
	}
}

// Check reports whether a user has acknowledged an announcement
func Check(ledger Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		announcementID := chi.URLParam(r, "announcementId")
		userID := chi.URLParam(r, "userId")
		if announcementID == "" || userID == "" {
			util.ErrorWithCode(w, errors.New("the URL parameters are empty"),
				http.StatusBadRequest)
			return
		}

		util.JSON(w, http.StatusOK, ledger.Check(r.Context(), announcementID, userID))
	}
}

// Delete removes a single acknowledgement
func Delete(ledger Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			util.ErrorWithCode(w, errors.New("the URL parameter is empty"),
				http.StatusBadRequest)
			return
		}

		if err := ledger.Delete(r.Context(), id); err != nil {
			util.Error(w, err)
			return
		}

		util.JSON(w, http.StatusOK, types.MessageResponse{Message: "Acknowledgement deleted"})
	}
}
