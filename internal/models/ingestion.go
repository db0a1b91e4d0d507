package models

import (
	"time"

	"github.com/lib/pq"
)

type IngestionStatus string

const (
	IngestionRunning IngestionStatus = "running"
	IngestionDone    IngestionStatus = "done"
	IngestionFailed  IngestionStatus = "failed"
)

// IngestionRun records one wipe-and-reload pass over the source documents.
type IngestionRun struct {
	ID         string          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Kind       string          `gorm:"column:kind;type:text" json:"kind"` // pdf|csv
	Sources    pq.StringArray  `gorm:"column:sources;type:text[]" json:"sources"`
	ChunkCount int             `gorm:"column:chunk_count;type:integer" json:"chunk_count"`
	Status     IngestionStatus `gorm:"column:status;type:text" json:"status"`
	Error      string          `gorm:"column:error;type:text" json:"error,omitempty"`
	StartedAt  time.Time       `gorm:"column:started_at;type:timestamptz;index" json:"started_at"`
	FinishedAt *time.Time      `gorm:"column:finished_at;type:timestamptz" json:"finished_at,omitempty"`
}

func (IngestionRun) TableName() string { return "ingestion_runs" }
