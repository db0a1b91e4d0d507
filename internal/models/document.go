package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// Document is one embedded chunk of a source file. Rows are immutable and
// replaced wholesale on re-ingestion.
type Document struct {
	ID        string          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Source    string          `gorm:"column:source;type:text;index" json:"source"`
	Topic     string          `gorm:"column:topic;type:text" json:"topic,omitempty"`
	Position  int             `gorm:"column:position;type:integer" json:"position"`
	Content   string          `gorm:"column:content;type:text;not null" json:"content"`
	Embedding pgvector.Vector `gorm:"column:embedding;type:vector(768)" json:"-"`
	CreatedAt time.Time       `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (Document) TableName() string { return "documents" }

// Vector exposes the raw embedding for ranking.
func (d Document) Vector() []float32 { return d.Embedding.Slice() }
