package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/yoockh/careerguide/internal/models"
	"github.com/yoockh/careerguide/internal/repositories"
	"github.com/yoockh/careerguide/internal/utils"
)

type ingestionRunRepo struct {
	db *gorm.DB
}

func NewIngestionRunRepo(db *gorm.DB) repositories.IngestionRunRepository {
	return &ingestionRunRepo{db: db}
}

func (r *ingestionRunRepo) Create(ctx context.Context, run *models.IngestionRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *ingestionRunRepo) Finish(ctx context.Context, run *models.IngestionRun) error {
	return r.db.WithContext(ctx).
		Model(&models.IngestionRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]any{
			"status":      run.Status,
			"chunk_count": run.ChunkCount,
			"error":       run.Error,
			"finished_at": run.FinishedAt,
		}).Error
}

func (r *ingestionRunRepo) Latest(ctx context.Context) (*models.IngestionRun, error) {
	var row models.IngestionRun
	err := r.db.WithContext(ctx).Order("started_at DESC").Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
