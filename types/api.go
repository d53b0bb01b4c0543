package types

import "time"

// ErrorResponse is the generic error JSON shape returned by the API
type ErrorResponse struct {
	Message string `json:"error"`
	Kind    string `json:"kind"`

	// Errors lists the per-channel failures of a dispatch that reached no channel
	Errors []string `json:"errors,omitempty"`

	// Acknowledgement is the existing record when an acknowledgement is a duplicate
	Acknowledgement *Acknowledgement `json:"acknowledgement,omitempty"`
}

// MessageResponse is returned by operations that have no record to return
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is returned by the health check route
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
