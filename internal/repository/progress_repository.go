package repository

import (
	"context"

	"gorm.io/gorm"

	"fablefeed-backend/internal/model"
)

type ProgressRepository interface {
	// Upsert stores rec for its (identity, chapter, book) key, overwriting the
	// mutable fields of an existing row in place. Returns the persisted row.
	Upsert(ctx context.Context, identity model.Identity, rec *model.ChapterProgress) (*model.ChapterProgress, error)
	GetForIdentity(ctx context.Context, identity model.Identity) ([]model.ChapterProgress, error)
	GetForIdentityAndBook(ctx context.Context, identity model.Identity, bookID uint) ([]model.ChapterProgress, error)
	GetForIdentityAndChapter(ctx context.Context, identity model.Identity, bookID, chapterID uint) (*model.ChapterProgress, error)
	// ClaimGuest rewrites ownership of guest rows with no owning user yet onto
	// userID, keeping the guest identifier as provenance.
	ClaimGuest(ctx context.Context, tx *gorm.DB, guestID string, userID uint) (int64, error)
}

type progressRepository struct {
	db *gorm.DB
}

func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

// identityScope restricts a query to rows owned by the identity. Guest rows
// already claimed by a user stay invisible to the bare guest identifier.
func identityScope(identity model.Identity) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if identity.IsUser() {
			return q.Where("user_id = ?", identity.UserID())
		}
		return q.Where("guest_id = ? AND user_id IS NULL", identity.Guest())
	}
}

func (r *progressRepository) Upsert(ctx context.Context, identity model.Identity, rec *model.ChapterProgress) (*model.ChapterProgress, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.ChapterProgress
		err := tx.Scopes(identityScope(identity)).
			Where("chapter_id = ? AND book_id = ?", rec.ChapterID, rec.BookID).
			First(&existing).Error
		switch {
		case err == nil:
			return tx.Model(&existing).Updates(map[string]interface{}{
				"played_seconds":   rec.PlayedSeconds,
				"duration_seconds": rec.DurationSeconds,
				"percent":          rec.Percent,
				"completed":        rec.Completed,
			}).Error
		case err == gorm.ErrRecordNotFound:
			return tx.Create(rec).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	var saved model.ChapterProgress
	if err := r.db.WithContext(ctx).Scopes(identityScope(identity)).
		Where("chapter_id = ? AND book_id = ?", rec.ChapterID, rec.BookID).
		First(&saved).Error; err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *progressRepository) GetForIdentity(ctx context.Context, identity model.Identity) ([]model.ChapterProgress, error) {
	var rows []model.ChapterProgress
	if err := r.db.WithContext(ctx).Scopes(identityScope(identity)).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *progressRepository) GetForIdentityAndBook(ctx context.Context, identity model.Identity, bookID uint) ([]model.ChapterProgress, error) {
	var rows []model.ChapterProgress
	if err := r.db.WithContext(ctx).Scopes(identityScope(identity)).
		Where("book_id = ?", bookID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *progressRepository) GetForIdentityAndChapter(ctx context.Context, identity model.Identity, bookID, chapterID uint) (*model.ChapterProgress, error) {
	var row model.ChapterProgress
	if err := r.db.WithContext(ctx).Scopes(identityScope(identity)).
		Where("book_id = ? AND chapter_id = ?", bookID, chapterID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *progressRepository) ClaimGuest(ctx context.Context, tx *gorm.DB, guestID string, userID uint) (int64, error) {
	conn := tx
	if conn == nil {
		conn = r.db
	}
	res := conn.WithContext(ctx).
		Model(&model.ChapterProgress{}).
		Where("guest_id = ? AND user_id IS NULL", guestID).
		Update("user_id", userID)
	return res.RowsAffected, res.Error
}
