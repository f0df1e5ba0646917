package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"fablefeed-backend/internal/model"
)

type PasswordResetRepository interface {
	// Issue replaces any outstanding code for the email with a fresh one.
	Issue(ctx context.Context, email, code string, ttl time.Duration) error
	// Consume validates and deletes the code; expired or unknown codes fail.
	Consume(ctx context.Context, email, code string) error
}

type passwordResetRepository struct {
	db *gorm.DB
}

func NewPasswordResetRepository(db *gorm.DB) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) Issue(ctx context.Context, email, code string, ttl time.Duration) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).Delete(&model.PasswordReset{}).Error; err != nil {
			return err
		}
		return tx.Create(&model.PasswordReset{
			Email:     email,
			Code:      code,
			ExpiresAt: time.Now().Add(ttl),
		}).Error
	})
}

func (r *passwordResetRepository) Consume(ctx context.Context, email, code string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reset model.PasswordReset
		if err := tx.Where("email = ? AND code = ?", email, code).First(&reset).Error; err != nil {
			return err
		}
		if time.Now().After(reset.ExpiresAt) {
			_ = tx.Delete(&reset).Error
			return gorm.ErrRecordNotFound
		}
		return tx.Delete(&reset).Error
	})
}
