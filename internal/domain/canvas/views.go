package canvas

import "time"

// VersionDetail is an EditRecord joined with its payload.
type VersionDetail struct {
	EditID         int64      `json:"edit_id"`
	ProjectID      int64      `json:"project_id"`
	ProjectName    string     `json:"project_name"`
	Version        int        `json:"version"`
	UserID         int64      `json:"user_id"`
	LastUpdated    time.Time  `json:"last_updated"`
	UpdateCategory Provenance `json:"update_category"`
	UpdateComment  *string    `json:"update_comment,omitempty"`
	Fields         Fields     `json:"fields"`
}

// HistoryEntry summarises one version for history listings.
type HistoryEntry struct {
	EditID         int64      `json:"edit_id"`
	Version        int        `json:"version"`
	LastUpdated    time.Time  `json:"last_updated"`
	UpdateCategory Provenance `json:"update_category"`
	UpdateComment  *string    `json:"update_comment,omitempty"`
	UserEmail      string     `json:"user_email"`
}

// ProjectSummary is one row of a user's project list.
type ProjectSummary struct {
	ProjectID      int64     `json:"project_id"`
	ProjectName    string    `json:"project_name"`
	Role           Role      `json:"role"`
	CurrentVersion int       `json:"current_version"`
	LastUpdated    time.Time `json:"last_updated"`
	CreatedAt      time.Time `json:"created_at"`
}

// VersionHandle identifies a freshly written version.
type VersionHandle struct {
	EditID     int64      `json:"edit_id"`
	ProjectID  int64      `json:"project_id"`
	Version    int        `json:"version"`
	Provenance Provenance `json:"update_category"`
	CreatedAt  time.Time  `json:"last_updated"`
}
