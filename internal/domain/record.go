package domain

import "time"

type Status string

const (
	StatusIdea      Status = "idea"
	StatusScripting Status = "scripting"
	StatusReview    Status = "review"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Statuses lists the workflow states in pipeline order.
var Statuses = []Status{StatusIdea, StatusScripting, StatusReview, StatusPublished, StatusArchived}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// Record is one page of the video planning database.
type Record struct {
	ID                string
	Title             string
	Status            Status
	Description       *string
	ScriptGeneratedAt *time.Time
	URL               string
}

// DescriptionText returns the description or an empty string.
func (r Record) DescriptionText() string {
	if r.Description == nil {
		return ""
	}
	return *r.Description
}

// Script is the raw markdown returned by the language model.
type Script struct {
	Markdown     string
	Model        string
	FinishReason string
	PromptTokens int
	OutputTokens int
}

// Generation is the audit row written after a record reaches review.
type Generation struct {
	ID           string    `db:"id"`
	Job          string    `db:"job"`
	PageID       string    `db:"page_id"`
	Title        string    `db:"title"`
	Model        string    `db:"model"`
	PromptTokens int       `db:"prompt_tokens"`
	OutputTokens int       `db:"output_tokens"`
	BlockCount   int       `db:"block_count"`
	ScriptChars  int       `db:"script_chars"`
	GeneratedAt  time.Time `db:"generated_at"`
}

type SyncState struct {
	ID             int64     `db:"id"`
	Job            string    `db:"job"`
	LastSyncedAt   time.Time `db:"last_synced_at"`
	LastPageID     string    `db:"last_page_id"`
	TotalCompleted int64     `db:"total_completed"`
}

// ScriptReady announces that a record's script was written and the record
// moved to review.
type ScriptReady struct {
	PageID      string    `json:"page_id"`
	Title       string    `json:"title"`
	URL         string    `json:"url,omitempty"`
	Status      Status    `json:"status"`
	Model       string    `json:"model"`
	BlockCount  int       `json:"block_count"`
	GeneratedAt time.Time `json:"generated_at"`
}
