package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"fablefeed-backend/internal/model"
)

// BookFilter carries the listing filters shared by every book query.
type BookFilter struct {
	Search     string
	Author     string
	CategoryID uint
	SortBy     string
	SortAsc    bool
}

type BookRepository interface {
	GetByID(ctx context.Context, id uint) (*model.Book, error)
	List(ctx context.Context, filter BookFilter, offset, limit int) ([]model.Book, int64, error)
	ListByIDs(ctx context.Context, ids []uint, filter BookFilter) ([]model.Book, error)
	GetChapter(ctx context.Context, chapterID uint) (*model.Chapter, error)
	GetChaptersByBook(ctx context.Context, bookID uint) ([]model.Chapter, error)
	GetChaptersByBooks(ctx context.Context, bookIDs []uint) ([]model.Chapter, error)
	ChapterCounts(ctx context.Context, bookIDs []uint) (map[uint]int, error)
}

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) GetByID(ctx context.Context, id uint) (*model.Book, error) {
	var book model.Book
	if err := r.db.WithContext(ctx).
		Preload("Categories").
		First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) List(ctx context.Context, filter BookFilter, offset, limit int) ([]model.Book, int64, error) {
	q := r.applyFilter(r.db.WithContext(ctx).Model(&model.Book{}), filter)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var books []model.Book
	if err := q.Order(orderClause(filter)).
		Offset(offset).
		Limit(limit).
		Find(&books).Error; err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

func (r *bookRepository) ListByIDs(ctx context.Context, ids []uint, filter BookFilter) ([]model.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var books []model.Book
	q := r.applyFilter(r.db.WithContext(ctx).Model(&model.Book{}), filter)
	if err := q.Where("books.id IN ?", ids).
		Order(orderClause(filter)).
		Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

func (r *bookRepository) GetChapter(ctx context.Context, chapterID uint) (*model.Chapter, error) {
	var chapter model.Chapter
	if err := r.db.WithContext(ctx).First(&chapter, chapterID).Error; err != nil {
		return nil, err
	}
	return &chapter, nil
}

func (r *bookRepository) GetChaptersByBook(ctx context.Context, bookID uint) ([]model.Chapter, error) {
	var chapters []model.Chapter
	if err := r.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("created_at ASC, id ASC").
		Find(&chapters).Error; err != nil {
		return nil, err
	}
	return chapters, nil
}

func (r *bookRepository) GetChaptersByBooks(ctx context.Context, bookIDs []uint) ([]model.Chapter, error) {
	if len(bookIDs) == 0 {
		return nil, nil
	}
	var chapters []model.Chapter
	if err := r.db.WithContext(ctx).
		Where("book_id IN ?", bookIDs).
		Order("created_at ASC, id ASC").
		Find(&chapters).Error; err != nil {
		return nil, err
	}
	return chapters, nil
}

func (r *bookRepository) ChapterCounts(ctx context.Context, bookIDs []uint) (map[uint]int, error) {
	counts := make(map[uint]int, len(bookIDs))
	if len(bookIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		BookID uint
		N      int
	}
	if err := r.db.WithContext(ctx).
		Model(&model.Chapter{}).
		Select("book_id, COUNT(*) AS n").
		Where("book_id IN ?", bookIDs).
		Group("book_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.BookID] = row.N
	}
	return counts, nil
}

func (r *bookRepository) applyFilter(q *gorm.DB, filter BookFilter) *gorm.DB {
	q = q.Where("books.active = ?", true)
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where(
			"LOWER(books.title) LIKE ? OR LOWER(books.short_desc) LIKE ? OR LOWER(books.long_desc) LIKE ? OR LOWER(books.author) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
	if filter.Author != "" {
		q = q.Where("books.author = ?", filter.Author)
	}
	if filter.CategoryID != 0 {
		q = q.Joins("JOIN book_categories bc ON bc.book_id = books.id").
			Where("bc.category_id = ?", filter.CategoryID)
	}
	return q
}

func orderClause(filter BookFilter) string {
	col := "created_at"
	switch filter.SortBy {
	case "title", "author", "created_at", "updated_at":
		col = filter.SortBy
	}
	// Newest first unless ascending is asked for.
	dir := "DESC"
	if filter.SortAsc {
		dir = "ASC"
	}
	return "books." + col + " " + dir
}
