package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"facelyze-api/internal/model"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type AnalysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Create inserts the record. A record whose public id already exists is left
// alone so redelivered queue messages do not fail.
func (r *AnalysisRepository) Create(analysis *model.Analysis) error {
	var existing int64
	if err := r.db.Model(&model.Analysis{}).Where("public_id = ?", analysis.PublicID).Count(&existing).Error; err != nil {
		return fmt.Errorf("check analysis failed: %w", err)
	}
	if existing > 0 {
		return nil
	}
	if err := r.db.Create(analysis).Error; err != nil {
		return fmt.Errorf("create analysis failed: %w", err)
	}
	return nil
}

func (r *AnalysisRepository) GetByPublicIDAndUserID(publicID string, userID uint) (*model.Analysis, error) {
	var analysis model.Analysis
	if err := r.db.Where("public_id = ? AND user_id = ?", publicID, userID).First(&analysis).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get analysis failed: %w", err)
	}
	return &analysis, nil
}

// ListByUserID returns newest first without the photo column.
func (r *AnalysisRepository) ListByUserID(userID uint, limit int) ([]model.Analysis, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	var list []model.Analysis
	err := r.db.
		Select("id", "public_id", "user_id", "goal", "aesthetic_score", "created_at").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list analyses failed: %w", err)
	}
	return list, nil
}

func (r *AnalysisRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Analysis{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count analyses failed: %w", err)
	}
	return count, nil
}
