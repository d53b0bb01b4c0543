package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/render"

	"github.com/jd-116/announcement-hub/acknowledgements"
	"github.com/jd-116/announcement-hub/announcements"
	"github.com/jd-116/announcement-hub/audiences"
	"github.com/jd-116/announcement-hub/db"
	"github.com/jd-116/announcement-hub/types"
)

// Error kinds reported alongside the message in error responses
const (
	KindValidation       = "ValidationError"
	KindNotFound         = "NotFoundError"
	KindInvalidReference = "InvalidReferenceError"
	KindInvalidState     = "InvalidStateError"
	KindDuplicate        = "DuplicateError"
	KindConfiguration    = "ConfigurationError"
	KindDispatch         = "DispatchError"
	KindBadRequest       = "BadRequestError"
	KindInternal         = "InternalError"
)

// BadRequestError is an error used to encode a request
// that couldn't be read at all, such as malformed JSON
type BadRequestError struct {
	Err error
}

// NewBadRequestError constructs a new BadRequestError
func NewBadRequestError(err error) *BadRequestError {
	return &BadRequestError{
		Err: err,
	}
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("malformed request: %s", e.Err)
}

func (e *BadRequestError) Unwrap() error {
	return e.Err
}

// Resolves a status code and error kind from an error
func ResponseCodeFromError(err error) (int, string) {
	var (
		announcementValidation *announcements.ValidationError
		audienceValidation     *audiences.ValidationError
		missingField           *acknowledgements.MissingFieldError
		notFound               *db.NotFoundError
		invalidReference       *announcements.InvalidReferenceError
		invalidState           *announcements.InvalidStateError
		duplicate              *acknowledgements.DuplicateError
		configuration          *announcements.ConfigurationError
		dispatchFailure        *announcements.DispatchError
		badRequest             *BadRequestError
	)

	switch {
	case errors.As(err, &announcementValidation),
		errors.As(err, &audienceValidation),
		errors.As(err, &missingField):
		return http.StatusBadRequest, KindValidation
	case errors.As(err, &notFound):
		return http.StatusNotFound, KindNotFound
	case errors.As(err, &invalidReference):
		return http.StatusBadRequest, KindInvalidReference
	case errors.As(err, &invalidState):
		return http.StatusConflict, KindInvalidState
	case errors.As(err, &duplicate):
		return http.StatusBadRequest, KindDuplicate
	case errors.As(err, &configuration):
		return http.StatusBadRequest, KindConfiguration
	case errors.As(err, &dispatchFailure):
		return http.StatusBadGateway, KindDispatch
	case errors.As(err, &badRequest):
		return http.StatusBadRequest, KindBadRequest
	}
	return http.StatusInternalServerError, KindInternal
}

// Creates a standardized error response
func Error(w http.ResponseWriter, originalError error) {
	statusCode, kind := ResponseCodeFromError(originalError)
	response := types.ErrorResponse{
		Message: fmt.Sprint(originalError),
		Kind:    kind,
	}

	var dispatchFailure *announcements.DispatchError
	if errors.As(originalError, &dispatchFailure) {
		response.Errors = dispatchFailure.Errors
	}

	var duplicate *acknowledgements.DuplicateError
	if errors.As(originalError, &duplicate) {
		existing := duplicate.Existing
		response.Acknowledgement = &existing
	}

	JSON(w, statusCode, response)
}

// Creates a standardized error response with a status code
func ErrorWithCode(w http.ResponseWriter, originalError error, statusCode int) {
	_, kind := ResponseCodeFromError(originalError)
	JSON(w, statusCode, types.ErrorResponse{
		Message: fmt.Sprint(originalError),
		Kind:    kind,
	})
}

// JSON writes the value as the top-level JSON response
func JSON(w http.ResponseWriter, statusCode int, value interface{}) {
	jsonResponse, err := json.Marshal(value)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(jsonResponse)
}

// DecodeJSON reads the request body into the value, capped at maxBytes.
// Failures are returned as BadRequestErrors
func DecodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, value interface{}) error {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	if err := render.DecodeJSON(r.Body, value); err != nil {
		if errors.Is(err, io.EOF) {
			return NewBadRequestError(errors.New("request body is empty"))
		}
		return NewBadRequestError(err)
	}
	return nil
}
