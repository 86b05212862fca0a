package model

import "time"

// MaxActivityEntries is how many activity entries the store retains.
const MaxActivityEntries = 50

// Activity is one operator action recorded in the activity log.
type Activity struct {
	// ID is the unique identifier for this entry.
	ID string `json:"id" db:"id"`

	// Action is the short verb describing what happened (e.g. "Import").
	Action string `json:"action" db:"action"`

	// Details is the human-readable description of the action.
	Details string `json:"details" db:"details"`

	// CreatedAt is when the action was performed.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
