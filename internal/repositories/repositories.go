// Package repositories declares the storage contracts the services depend
// on. Implementations live in the postgres and mongo subpackages.
package repositories

import (
	"context"

	"github.com/yoockh/careerguide/internal/models"
)

type DocumentRepository interface {
	CreateMany(ctx context.Context, docs []models.Document) error
	// ListAll returns every document in insertion order.
	ListAll(ctx context.Context) ([]models.Document, error)
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
	// ReplaceAll swaps the whole document set for docs in one unit.
	ReplaceAll(ctx context.Context, docs []models.Document) error
	// ReplaceSources deletes the documents of the named sources and inserts
	// docs in one unit.
	ReplaceSources(ctx context.Context, sources []string, docs []models.Document) error
}

type ConversationRepository interface {
	Create(ctx context.Context, conv *models.Conversation) error
	// CreateWithHistory stores a new conversation together with its first turn.
	CreateWithHistory(ctx context.Context, conv *models.Conversation, entry *models.ConversationHistory) error
	// GetWithHistory loads a conversation and its history oldest first.
	// A missing conversation yields utils.ErrNotFound.
	GetWithHistory(ctx context.Context, id string) (*models.Conversation, error)
	AppendHistory(ctx context.Context, entry *models.ConversationHistory) error
	ListHistory(ctx context.Context, conversationID string) ([]models.ConversationHistory, error)
	GetHistoryEntry(ctx context.Context, conversationID, historyID string) (*models.ConversationHistory, error)
	// ListIDsByUser returns conversation ids newest first.
	ListIDsByUser(ctx context.Context, userID string) ([]string, error)
}

type IngestionRunRepository interface {
	Create(ctx context.Context, run *models.IngestionRun) error
	Finish(ctx context.Context, run *models.IngestionRun) error
	Latest(ctx context.Context) (*models.IngestionRun, error)
}
