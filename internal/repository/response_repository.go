package repository

import (
	"context"

	"gorm.io/gorm"

	"fablefeed-backend/internal/model"
)

type ResponseRepository interface {
	Create(ctx context.Context, response *model.Response) error
	GetByUser(ctx context.Context, userID uint, limit int) ([]model.Response, error)
	GetUnclaimedByGuest(ctx context.Context, tx *gorm.DB, guestID string) ([]model.Response, error)
	// ClaimGuest rewrites ownership of guest responses with no owning user
	// onto userID; metadata keeps the guest identifier as provenance.
	ClaimGuest(ctx context.Context, tx *gorm.DB, guestID string, userID uint) (int64, error)
}

type responseRepository struct {
	db *gorm.DB
}

func NewResponseRepository(db *gorm.DB) ResponseRepository {
	return &responseRepository{db: db}
}

func (r *responseRepository) Create(ctx context.Context, response *model.Response) error {
	return r.db.WithContext(ctx).Create(response).Error
}

func (r *responseRepository) GetByUser(ctx context.Context, userID uint, limit int) ([]model.Response, error) {
	var rows []model.Response
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *responseRepository) GetUnclaimedByGuest(ctx context.Context, tx *gorm.DB, guestID string) ([]model.Response, error) {
	conn := tx
	if conn == nil {
		conn = r.db
	}
	var rows []model.Response
	if err := conn.WithContext(ctx).
		Where("guest_id = ? AND user_id IS NULL", guestID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *responseRepository) ClaimGuest(ctx context.Context, tx *gorm.DB, guestID string, userID uint) (int64, error) {
	conn := tx
	if conn == nil {
		conn = r.db
	}
	res := conn.WithContext(ctx).
		Model(&model.Response{}).
		Where("guest_id = ? AND user_id IS NULL", guestID).
		Update("user_id", userID)
	return res.RowsAffected, res.Error
}
