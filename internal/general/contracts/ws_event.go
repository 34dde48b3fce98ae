package contracts

import "time"

// Console view frame types (server -> view).
const (
	WSFrameAuthOK    = "auth_success"
	WSFrameAuthError = "auth_error"
	WSFrameRender    = "render"
	WSFrameRides     = "rides"
	WSFrameSelection = "selection"
	WSFrameSummary   = "summary"
	WSFrameWarning   = "warning"
	WSFrameError     = "error"
)

// Console view intent types (view -> server).
const (
	WSIntentClick  = "click"
	WSIntentSelect = "select"
)

// WSViewIntent is a click on a map entity or a row in the list panel.
type WSViewIntent struct {
	Type     string `json:"type"`                // "click" | "select"
	EntityID string `json:"entity_id,omitempty"` // map entity id, for "click"
	RideID   string `json:"ride_id,omitempty"`   // ride id, for "select"
}

// WSSelection announces the current selection; RideID is "" when nothing is selected.
type WSSelection struct {
	Type   string `json:"type"` // "selection"
	RideID string `json:"ride_id"`
}

// WSWarning is a transient, non-blocking notice (e.g. a failed poll).
type WSWarning struct {
	Type      string    `json:"type"` // "warning"
	Source    string    `json:"source"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// WSError is sent back for malformed view frames.
type WSError struct {
	Type  string `json:"type"` // "error"
	Error string `json:"error"`
}
