package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yoockh/careerguide/internal/models"
	"github.com/yoockh/careerguide/internal/repositories"
)

const insertBatchSize = 200

type documentRepo struct {
	db *gorm.DB
}

func NewDocumentRepo(db *gorm.DB) repositories.DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) CreateMany(ctx context.Context, docs []models.Document) error {
	if len(docs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(docs, insertBatchSize).Error
}

func (r *documentRepo) ListAll(ctx context.Context) ([]models.Document, error) {
	var rows []models.Document
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("position ASC").
		Find(&rows).Error
	return rows, err
}

func (r *documentRepo) DeleteAll(ctx context.Context) error {
	return deleteAll(r.db.WithContext(ctx))
}

func deleteAll(db *gorm.DB) error {
	return db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Document{}).Error
}

func (r *documentRepo) ReplaceAll(ctx context.Context, docs []models.Document) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteAll(tx); err != nil {
			return err
		}
		if len(docs) == 0 {
			return nil
		}
		return tx.CreateInBatches(docs, insertBatchSize).Error
	})
}

func (r *documentRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Document{}).Count(&n).Error
	return n, err
}

func (r *documentRepo) ReplaceSources(ctx context.Context, sources []string, docs []models.Document) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(sources) > 0 {
			if err := tx.Where("source IN ?", sources).Delete(&models.Document{}).Error; err != nil {
				return err
			}
		}
		if len(docs) == 0 {
			return nil
		}
		return tx.CreateInBatches(docs, insertBatchSize).Error
	})
}
