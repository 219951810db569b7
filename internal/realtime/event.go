package realtime

import "time"

const EventVersionCreated = "canvas.version_created"

// Event announces a committed change to a project's canvas.
type Event struct {
	Type       string    `json:"type"`
	ProjectID  int64     `json:"project_id"`
	EditID     int64     `json:"edit_id"`
	Version    int       `json:"version"`
	Provenance string    `json:"provenance"`
	UserID     int64     `json:"user_id"`
	At         time.Time `json:"at"`
}
