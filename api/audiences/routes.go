package audiences

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/jd-116/announcement-hub/types"
	"github.com/jd-116/announcement-hub/util"
)

// Registry is the part of the audience registry the handlers use
type Registry interface {
	GetAll(ctx context.Context) ([]types.Audience, error)
	Get(ctx context.Context, id string) (*types.Audience, error)
	Create(ctx context.Context, create types.AudienceCreate) (*types.Audience, error)
	Update(ctx context.Context, id string, patch types.AudiencePatch) (*types.Audience, error)
	Delete(ctx context.Context, id string) error
}

// Routes creates a new Chi router with all of the routes for the audience resource,
// at the root level
func Routes(registry Registry, maxBodySize int64) *chi.Mux {
	router := chi.NewRouter()
	router.Get("/", GetAll(registry))
	router.Get("/{id}", GetSingle(registry))
	router.Post("/", Create(registry, maxBodySize))
	router.Put("/{id}", Update(registry, maxBodySize))
	router.Delete("/{id}", Delete(registry))
	return router
}

// GetAll gets all audiences
func GetAll(registry Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		audiences, err := registry.GetAll(r.Context())
		if err != nil {
			util.Error(w, err)
			return
		}

		util.JSON(w, http.StatusOK, audiences)
	}
}

// GetSingle gets a single audience by its ID
func GetSingle(registry Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			util.ErrorWithCode(w, errors.New("the URL parameter is empty"),
				http.StatusBadRequest)
			return
		}

		audience, err := registry.Get(r.Context(), id)
		if err != nil {
			util.Error(w, err)
			return
		}

		util.JSON(w, http.StatusOK, audience)
	}
}

// Create creates a new audience
func Create(registry Registry, maxBodySize int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var create types.AudienceCreate
		if err := util.DecodeJSON(w, r, maxBodySize, &create); err != nil {
			util.Error(w, err)
			return
		}

		audience, err := registry.Create(r.Context(), create)
		if err != nil {
			util.Error(w, err)
			return
		}

		util.JSON(w, http.StatusCreated, audience)
	}
}

// Update merges a partial update into an audience
func Update(registry Registry, maxBodySize int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			util.ErrorWithCode(w, errors.New("the URL parameter is empty"),
				http.StatusBadRequest)
			return
		}

		var patch types.AudiencePatch
		if err := util.DecodeJSON(w, r, maxBodySize, &patch); err != nil {
			util.Error(w, err)
			return
		}

		updated, err := registry.Update(r.Context(), id, patch)
		if err != nil {
			util.Error(w, err)
			return
		}

		util.JSON(w, http.StatusOK, updated)
	}
}

// Delete deletes an audience, whether or not announcements still reference it
func Delete(registry Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			util.ErrorWithCode(w, errors.New("the URL parameter is empty"),
				http.StatusBadRequest)
			return
		}

		if err := registry.Delete(r.Context(), id); err != nil {
			util.Error(w, err)
			return
		}

		util.JSON(w, http.StatusOK, types.MessageResponse{Message: "Audience deleted"})
	}
}
