package domain

import "time"

const (
	// JobID 固定的 job 識別，也是 single-flight 鎖的 key
	JobID = "trending:recompute"

	// PlayWeight engagement weight of one play
	PlayWeight = 1.0
	// ShareWeight engagement weight of one share
	ShareWeight = 2.0
	// DecayPerDay decay = 1 / (1 + days × DecayPerDay)
	DecayPerDay = 0.1
)

// Trigger what started a run
type Trigger string

const (
	// TriggerSchedule cron tick
	TriggerSchedule Trigger = "schedule"
	// TriggerManual admin endpoint or CLI
	TriggerManual Trigger = "manual"
)

// Candidate live item read at the start of a run
type Candidate struct {
	ItemID      string
	PlayCount   int64
	ShareCount  int64
	PublishedAt *time.Time
}

// TrendingScore 一個 live item 的分數與排名，每次執行整批覆寫
type TrendingScore struct {
	ItemID     string    `json:"item_id"`
	Score      float64   `json:"score"`
	Rank       int       `json:"rank"`
	ComputedAt time.Time `json:"computed_at"`
}

// Result outcome of one run, returned instead of an error
type Result struct {
	Success    bool   `json:"success"`
	Skipped    bool   `json:"skipped,omitempty"`
	ItemCount  int    `json:"item_count"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// RunReport appended after every run for operators
type RunReport struct {
	RunID      string    `bson:"run_id" json:"run_id"`
	Trigger    Trigger   `bson:"trigger" json:"trigger"`
	StartedAt  time.Time `bson:"started_at" json:"started_at"`
	Success    bool      `bson:"success" json:"success"`
	Skipped    bool      `bson:"skipped" json:"skipped"`
	ItemCount  int       `bson:"item_count" json:"item_count"`
	DurationMs int64     `bson:"duration_ms" json:"duration_ms"`
	Error      string    `bson:"error,omitempty" json:"error,omitempty"`
}
