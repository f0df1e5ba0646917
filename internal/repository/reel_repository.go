package repository

import (
	"context"

	"gorm.io/gorm"

	"fablefeed-backend/internal/model"
)

type ReelRepository interface {
	ListActive(ctx context.Context) ([]model.Reel, error)
}

type reelRepository struct {
	db *gorm.DB
}

func NewReelRepository(db *gorm.DB) ReelRepository {
	return &reelRepository{db: db}
}

func (r *reelRepository) ListActive(ctx context.Context) ([]model.Reel, error) {
	var reels []model.Reel
	if err := r.db.WithContext(ctx).
		Preload("Categories").
		Where("active = ?", true).
		Order("created_at DESC, id DESC").
		Find(&reels).Error; err != nil {
		return nil, err
	}
	return reels, nil
}
