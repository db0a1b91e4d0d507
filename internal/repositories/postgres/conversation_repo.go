package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yoockh/careerguide/internal/models"
	"github.com/yoockh/careerguide/internal/repositories"
	"github.com/yoockh/careerguide/internal/utils"
)

type conversationRepo struct {
	db *gorm.DB
}

func NewConversationRepo(db *gorm.DB) repositories.ConversationRepository {
	return &conversationRepo{db: db}
}

func (r *conversationRepo) Create(ctx context.Context, conv *models.Conversation) error {
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now().UTC()
	}
	err := r.db.WithContext(ctx).Omit("History").Create(conv).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return utils.ErrAlreadyExists
	}
	return err
}

func (r *conversationRepo) CreateWithHistory(ctx context.Context, conv *models.Conversation, entry *models.ConversationHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if conv.CreatedAt.IsZero() {
			conv.CreatedAt = time.Now().UTC()
		}
		if err := tx.Omit("History").Create(conv).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return utils.ErrAlreadyExists
			}
			return err
		}
		entry.ConversationID = conv.ID
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now().UTC()
		}
		return tx.Create(entry).Error
	})
}

func (r *conversationRepo) GetWithHistory(ctx context.Context, id string) (*models.Conversation, error) {
	var row models.Conversation
	err := r.db.WithContext(ctx).
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		Where("id = ?", id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *conversationRepo) AppendHistory(ctx context.Context, entry *models.ConversationHistory) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *conversationRepo) ListHistory(ctx context.Context, conversationID string) ([]models.ConversationHistory, error) {
	var rows []models.ConversationHistory
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *conversationRepo) GetHistoryEntry(ctx context.Context, conversationID, historyID string) (*models.ConversationHistory, error) {
	var row models.ConversationHistory
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND id = ?", conversationID, historyID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *conversationRepo) ListIDsByUser(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("id", &ids).Error
	return ids, err
}
