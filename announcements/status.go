package announcements

import "github.com/jd-116/announcement-hub/types"

// Action is something done to an announcement that may change its status
type Action string

// Actions checked against the transition table
const (
	ActionEdit     Action = "edit"
	ActionDispatch Action = "send"
	ActionClose    Action = "close"
	ActionDelete   Action = "delete"
)

// statusRemoved is the target of a delete
const statusRemoved types.Status = ""

// transitions maps each status and action to the resulting status.
// Missing entries are illegal
var transitions = map[types.Status]map[Action]types.Status{
	types.StatusDraft: {
		ActionEdit:     types.StatusDraft,
		ActionDispatch: types.StatusSent,
		ActionDelete:   statusRemoved,
	},
	types.StatusSent: {
		ActionClose: types.StatusClosed,
	},
	types.StatusClosed: {
		ActionClose: types.StatusClosed,
	},
}

// Transition returns the status an announcement moves to when the action
// is applied, or an InvalidStateError if the action isn't allowed
func Transition(announcement types.Announcement, action Action) (types.Status, error) {
	next, ok := transitions[announcement.Status][action]
	if !ok {
		return announcement.Status, NewInvalidStateError(announcement.ID, announcement.Status, action)
	}
	return next, nil
}
