package model

import "time"

// RunStatus represents the current state of a catalog build.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunOptions records the parameters a build was started with.
type RunOptions struct {
	FeedURL      string     `json:"feed_url"`
	ProductClass string     `json:"product_class"`
	Since        *time.Time `json:"since,omitempty"`
	Enrich       bool       `json:"enrich"`
}

// Run is one execution of the catalog pipeline.
type Run struct {
	ID        string     `json:"id"`
	Options   RunOptions `json:"options"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult holds the counts of a completed build.
type RunResult struct {
	Records    int           `json:"records"`
	Products   int           `json:"products"`
	Enriched   int           `json:"enriched"`
	Duration   time.Duration `json:"duration_ns"`
	FinishedAt time.Time     `json:"finished_at"`
}
