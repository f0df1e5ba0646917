package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fablefeed-backend/internal/model"
)

type TagRepository interface {
	// GetOrCreate resolves a tag name to its canonical row, creating it when
	// absent. Concurrent first-uses of the same name both resolve to the row
	// that won the insert.
	GetOrCreate(ctx context.Context, name string) (*model.Tag, error)
	GetByIDs(ctx context.Context, ids []uint) ([]model.Tag, error)
	GetByNames(ctx context.Context, names []string) ([]model.Tag, error)
}

type tagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) GetOrCreate(ctx context.Context, name string) (*model.Tag, error) {
	tag := model.Tag{
		Name: name,
		Slug: slugify(name),
	}

	// Insert-if-absent keeps the lazy-create path race free: the losing insert
	// is a no-op and the follow-up fetch returns the winner's row.
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(&tag).Error; err != nil {
		return nil, err
	}

	var saved model.Tag
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&saved).Error; err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *tagRepository) GetByIDs(ctx context.Context, ids []uint) ([]model.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tags []model.Tag
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) GetByNames(ctx context.Context, names []string) ([]model.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var tags []model.Tag
	if err := r.db.WithContext(ctx).Where("name IN ?", names).Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}
