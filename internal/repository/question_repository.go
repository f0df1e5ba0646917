package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"fablefeed-backend/internal/model"
)

// QuestionFilter narrows the public question listing.
type QuestionFilter struct {
	Section string
	Search  string
}

type QuestionRepository interface {
	ListActive(ctx context.Context, filter QuestionFilter) ([]model.Question, error)
	GetByIDs(ctx context.Context, ids []uint) ([]model.Question, error)
}

type questionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) ListActive(ctx context.Context, filter QuestionFilter) ([]model.Question, error) {
	q := r.db.WithContext(ctx).
		Preload("Options", func(q *gorm.DB) *gorm.DB {
			return q.Order("ordering ASC, id ASC")
		}).
		Where("active = ?", true)

	if filter.Section != "" {
		q = q.Where("section = ?", filter.Section)
	}
	if filter.Search != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}

	var questions []model.Question
	if err := q.Order("ordering ASC, id ASC").Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepository) GetByIDs(ctx context.Context, ids []uint) ([]model.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var questions []model.Question
	if err := r.db.WithContext(ctx).
		Preload("Options", func(q *gorm.DB) *gorm.DB {
			return q.Order("ordering ASC, id ASC")
		}).
		Where("id IN ?", ids).
		Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}
