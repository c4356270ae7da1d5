package repository

import (
	"fmt"

	"gorm.io/gorm"

	"facelyze-api/internal/model"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) List() ([]model.Product, error) {
	var products []model.Product
	if err := r.db.Order("id ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products failed: %w", err)
	}
	return products, nil
}

// SeedIfEmpty inserts products only when the table has none.
func (r *ProductRepository) SeedIfEmpty(products []model.Product) error {
	var count int64
	if err := r.db.Model(&model.Product{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count products failed: %w", err)
	}
	if count > 0 || len(products) == 0 {
		return nil
	}
	if err := r.db.Create(&products).Error; err != nil {
		return fmt.Errorf("seed products failed: %w", err)
	}
	return nil
}
