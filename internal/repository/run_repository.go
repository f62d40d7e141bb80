package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/straye-as/preflight/internal/domain"
	"gorm.io/gorm"
)

type RunRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) Create(ctx context.Context, run *domain.DiagnosticRun) error {
	// sqlite has no gen_random_uuid, assign here
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *RunRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DiagnosticRun, error) {
	var run domain.DiagnosticRun
	err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *RunRepository) List(ctx context.Context, limit, offset int, status domain.RunStatus) ([]domain.DiagnosticRun, int64, error) {
	var runs []domain.DiagnosticRun
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.DiagnosticRun{})

	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Offset(offset).Limit(limit).Order("started_at DESC").Find(&runs).Error

	return runs, total, err
}

func (r *RunRepository) Latest(ctx context.Context) (*domain.DiagnosticRun, error) {
	var run domain.DiagnosticRun
	err := r.db.WithContext(ctx).Order("started_at DESC").First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}
