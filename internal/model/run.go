package model

import "time"

// RunStatus tracks the lifecycle of an ingest run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunStats aggregates per-unit counters for one ingest run. Every failure
// in the pipeline is per-unit and lands in a counter here; nothing aborts
// the batch.
type RunStats struct {
	FilesProcessed int `json:"files_processed"`
	FilesFailed    int `json:"files_failed"`
	BlocksSeen     int `json:"blocks_seen"`
	Parsed         int `json:"parsed"`
	Rejected       int `json:"rejected"`
	Duplicates     int `json:"duplicates"`
	TaggedRule     int `json:"tagged_rule"`
	TaggedFallback int `json:"tagged_fallback"`
	TaggedDefault  int `json:"tagged_default"`
	Stored         int `json:"stored"`
}

// Add merges counters from another stats instance.
func (s *RunStats) Add(other RunStats) {
	s.FilesProcessed += other.FilesProcessed
	s.FilesFailed += other.FilesFailed
	s.BlocksSeen += other.BlocksSeen
	s.Parsed += other.Parsed
	s.Rejected += other.Rejected
	s.Duplicates += other.Duplicates
	s.TaggedRule += other.TaggedRule
	s.TaggedFallback += other.TaggedFallback
	s.TaggedDefault += other.TaggedDefault
	s.Stored += other.Stored
}

// IngestRun is the persisted record of one pipeline execution.
type IngestRun struct {
	ID        string    `json:"id"`
	SourceDir string    `json:"source_dir"`
	Status    RunStatus `json:"status"`
	Stats     *RunStats `json:"stats,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
