package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"fablefeed-backend/internal/model"
	"fablefeed-backend/internal/repository"
	"fablefeed-backend/utilities"
)

// Listing types mirroring the public query parameter.
const (
	ListTypeRelated    = "related_books"
	ListTypeInProgress = "book_progress"
	ListTypeCompleted  = "completed_books"
)

type BookListQuery struct {
	Search     string
	Author     string
	CategoryID uint
	SortBy     string
	SortAsc    bool
	Page       int
	PerPage    int
	Type       string
	// TagNames are the already-resolved tag names from the request; for
	// related listings an empty list falls back to the user's chosen tags.
	TagNames []string
}

type BookListItem struct {
	model.Book
	ChapterCount int          `json:"chapterCount"`
	Progress     *BookSummary `json:"progress,omitempty"`
	MatchedTags  []string     `json:"matchedTags"`
}

type BookList struct {
	Items       []BookListItem `json:"items"`
	Total       int64          `json:"total"`
	PerPage     int            `json:"perPage"`
	CurrentPage int            `json:"currentPage"`
	RelatedTags []string       `json:"relatedTags,omitempty"`
}

type ChapterDetail struct {
	model.Chapter
	DurationSeconds   int                 `json:"durationSeconds"`
	DurationFormatted string              `json:"durationFormatted"`
	Progress          ChapterProgressView `json:"progress"`
}

type BookDetails struct {
	model.Book
	Chapters        []ChapterDetail `json:"chapters"`
	ChapterCount    int             `json:"chapterCount"`
	OverallProgress BookSummary     `json:"overallProgress"`
}

type BookService interface {
	List(ctx context.Context, identity model.Identity, q BookListQuery) (*BookList, error)
	GetDetails(ctx context.Context, identity model.Identity, bookID uint) (*BookDetails, error)
}

type bookService struct {
	bookRepo        repository.BookRepository
	progress        ProgressService
	personalization PersonalizationService
	maxPerPage      int
}

func NewBookService(
	bookRepo repository.BookRepository,
	progress ProgressService,
	personalization PersonalizationService,
	maxPerPage int,
) BookService {
	return &bookService{
		bookRepo:        bookRepo,
		progress:        progress,
		personalization: personalization,
		maxPerPage:      maxPerPage,
	}
}

func (s *bookService) List(ctx context.Context, identity model.Identity, q BookListQuery) (*BookList, error) {
	page, perPage := s.clampPaging(q.Page, q.PerPage)
	filter := repository.BookFilter{
		Search:     q.Search,
		Author:     q.Author,
		CategoryID: q.CategoryID,
		SortBy:     q.SortBy,
		SortAsc:    q.SortAsc,
	}

	switch q.Type {
	case ListTypeInProgress:
		return s.listClassified(ctx, identity, filter, page, perPage, false)
	case ListTypeCompleted:
		return s.listClassified(ctx, identity, filter, page, perPage, true)
	case ListTypeRelated:
		names := q.TagNames
		if len(names) == 0 && identity.IsUser() {
			chosen, err := s.personalization.ChosenTagNames(ctx, identity.UserID())
			if err != nil {
				return nil, err
			}
			names = chosen
		}
		if len(names) > 0 {
			return s.listRelated(ctx, filter, names, page, perPage)
		}
		fallthrough
	default:
		return s.listDefault(ctx, filter, page, perPage)
	}
}

func (s *bookService) listDefault(ctx context.Context, filter repository.BookFilter, page, perPage int) (*BookList, error) {
	books, total, err := s.bookRepo.List(ctx, filter, (page-1)*perPage, perPage)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	items, err := s.decorate(ctx, books, nil, nil)
	if err != nil {
		return nil, err
	}
	return &BookList{Items: items, Total: total, PerPage: perPage, CurrentPage: page}, nil
}

// listRelated prioritizes tag matches over the full filtered set, so the page
// slice is taken only after the partitioning.
func (s *bookService) listRelated(ctx context.Context, filter repository.BookFilter, tagNames []string, page, perPage int) (*BookList, error) {
	books, _, err := s.bookRepo.List(ctx, filter, 0, -1)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	ordered := s.personalization.PrioritizeBooks(books, tagNames)
	total := int64(len(ordered))
	slice := pageSlice(ordered, page, perPage)

	items, err := s.decorate(ctx, slice, nil, tagNames)
	if err != nil {
		return nil, err
	}
	return &BookList{
		Items:       items,
		Total:       total,
		PerPage:     perPage,
		CurrentPage: page,
		RelatedTags: tagNames,
	}, nil
}

// listClassified serves the continue-reading and completed listings. The
// classification runs over the identity's full progress set before any page
// slice is taken; the two listings are mutually exclusive by construction.
func (s *bookService) listClassified(ctx context.Context, identity model.Identity, filter repository.BookFilter, page, perPage int, wantCompleted bool) (*BookList, error) {
	if identity.IsZero() {
		return nil, fmt.Errorf("%w: identity required for this listing", ErrUnauthorized)
	}

	summaries, err := s.progress.Classify(ctx, identity, nil)
	if err != nil {
		return nil, err
	}

	candidates := make([]uint, 0, len(summaries))
	for bid, sum := range summaries {
		if wantCompleted == sum.IsCompleted() {
			candidates = append(candidates, bid)
		}
	}
	if len(candidates) == 0 {
		return &BookList{Items: []BookListItem{}, PerPage: perPage, CurrentPage: page}, nil
	}

	books, err := s.bookRepo.ListByIDs(ctx, candidates, filter)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	total := int64(len(books))
	slice := pageSlice(books, page, perPage)
	items, err := s.decorate(ctx, slice, summaries, nil)
	if err != nil {
		return nil, err
	}
	return &BookList{Items: items, Total: total, PerPage: perPage, CurrentPage: page}, nil
}

// decorate attaches chapter counts, progress summaries and matched tags.
func (s *bookService) decorate(ctx context.Context, books []model.Book, summaries map[uint]BookSummary, tagNames []string) ([]BookListItem, error) {
	ids := make([]uint, 0, len(books))
	for _, b := range books {
		ids = append(ids, b.ID)
	}
	counts, err := s.bookRepo.ChapterCounts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count chapters: %w", err)
	}

	items := make([]BookListItem, 0, len(books))
	for _, b := range books {
		item := BookListItem{
			Book:         b,
			ChapterCount: counts[b.ID],
			MatchedTags:  MatchedTagNames(b, tagNames),
		}
		if summaries != nil {
			if sum, ok := summaries[b.ID]; ok {
				sumCopy := sum
				item.Progress = &sumCopy
				item.ChapterCount = sum.TotalChapters
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *bookService) GetDetails(ctx context.Context, identity model.Identity, bookID uint) (*BookDetails, error) {
	if bookID == 0 {
		return nil, fmt.Errorf("%w: book id required", ErrInvalidArgument)
	}
	book, err := s.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: book %d", ErrNotFound, bookID)
		}
		return nil, fmt.Errorf("load book: %w", err)
	}

	chapters, err := s.bookRepo.GetChaptersByBook(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("load chapters: %w", err)
	}

	var progress *BookProgress
	if !identity.IsZero() {
		progress, err = s.progress.GetBookProgress(ctx, identity, bookID)
		if err != nil {
			return nil, err
		}
	}
	viewByChapter := make(map[uint]ChapterProgressView)
	if progress != nil {
		for _, v := range progress.PerChapter {
			viewByChapter[v.ChapterID] = v
		}
	}

	details := &BookDetails{
		Book:         *book,
		Chapters:     make([]ChapterDetail, 0, len(chapters)),
		ChapterCount: len(chapters),
	}
	for _, ch := range chapters {
		dur := utilities.ParseDurationSeconds(ch.Duration)
		view, started := viewByChapter[ch.ID]
		if started && dur == 0 {
			dur = view.DurationSeconds
		}
		if !started {
			view = ChapterProgressView{ChapterID: ch.ID, Title: ch.Title, DurationSeconds: dur}
		}
		details.Chapters = append(details.Chapters, ChapterDetail{
			Chapter:           ch,
			DurationSeconds:   dur,
			DurationFormatted: utilities.FormatSeconds(dur),
			Progress:          view,
		})
	}
	if progress != nil {
		details.OverallProgress = progress.Overall
	} else {
		details.OverallProgress = BookSummary{TotalChapters: len(chapters)}
	}
	return details, nil
}

func (s *bookService) clampPaging(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > s.maxPerPage {
		perPage = s.maxPerPage
	}
	return page, perPage
}

func pageSlice[T any](items []T, page, perPage int) []T {
	start := (page - 1) * perPage
	if start >= len(items) {
		return nil
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
