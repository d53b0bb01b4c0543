package announcements

import (
	"strings"

	"github.com/jd-116/announcement-hub/types"
)

// Validate checks a creation request against the announcement rules
// in order, returning the first failure. Whether the audience exists
// is checked separately by the caller
func Validate(create types.AnnouncementCreate) error {
	if strings.TrimSpace(create.Title) == "" {
		return NewValidationError("title", "title is required")
	}
	if strings.TrimSpace(create.Body) == "" {
		return NewValidationError("body", "body is required")
	}
	if !create.Type.Valid() {
		return NewValidationError("type", "type must be one of Info, Operational, Urgent")
	}
	if !create.ExpectedAction.Valid() {
		return NewValidationError("expectedAction", "expectedAction must be one of None, Acknowledge")
	}
	if strings.TrimSpace(create.AudienceID) == "" {
		return NewValidationError("audienceId", "audienceId is required")
	}
	return nil
}

// validateUrgent requires urgent announcements to carry a title
func validateUrgent(create types.AnnouncementCreate) error {
	if create.Type == types.TypeUrgent && strings.TrimSpace(create.Title) == "" {
		return NewValidationError("title", "urgent announcements must have a title")
	}
	return nil
}
