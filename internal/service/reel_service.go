package service

import (
	"context"
	"fmt"

	"fablefeed-backend/internal/model"
	"fablefeed-backend/internal/repository"
)

// DefaultReelTag seeds the priority ordering for anonymous viewers and for
// users with no chosen tags.
const DefaultReelTag = "Reels"

type ReelItem struct {
	model.Reel
	Book    *model.Book    `json:"book,omitempty"`
	Chapter *model.Chapter `json:"chapter,omitempty"`
}

type ReelFeed struct {
	Items        []ReelItem `json:"items"`
	Total        int64      `json:"total"`
	PerPage      int        `json:"perPage"`
	CurrentPage  int        `json:"currentPage"`
	PriorityTags []string   `json:"priorityTags"`
}

type ReelService interface {
	Feed(ctx context.Context, identity model.Identity, page, perPage int) (*ReelFeed, error)
}

type reelService struct {
	reelRepo        repository.ReelRepository
	bookRepo        repository.BookRepository
	personalization PersonalizationService
	maxPerPage      int
}

func NewReelService(
	reelRepo repository.ReelRepository,
	bookRepo repository.BookRepository,
	personalization PersonalizationService,
	maxPerPage int,
) ReelService {
	return &reelService{
		reelRepo:        reelRepo,
		bookRepo:        bookRepo,
		personalization: personalization,
		maxPerPage:      maxPerPage,
	}
}

// Feed returns active reels with the viewer's chosen tags floated to the top.
// The priority partition spans the whole active set, so pagination is applied
// to the reordered slice.
func (s *reelService) Feed(ctx context.Context, identity model.Identity, page, perPage int) (*ReelFeed, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > s.maxPerPage {
		perPage = s.maxPerPage
	}

	names := []string{DefaultReelTag}
	if identity.IsUser() {
		chosen, err := s.personalization.ChosenTagNames(ctx, identity.UserID())
		if err != nil {
			return nil, err
		}
		if len(chosen) > 0 {
			names = chosen
		}
	}

	reels, err := s.reelRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reels: %w", err)
	}
	ordered := s.personalization.PrioritizeReels(reels, names)
	total := int64(len(ordered))
	slice := pageSlice(ordered, page, perPage)

	items, err := s.enrich(ctx, slice)
	if err != nil {
		return nil, err
	}
	return &ReelFeed{
		Items:        items,
		Total:        total,
		PerPage:      perPage,
		CurrentPage:  page,
		PriorityTags: names,
	}, nil
}

// enrich resolves each reel's book and chapter references in two batched
// lookups instead of per-reel queries.
func (s *reelService) enrich(ctx context.Context, reels []model.Reel) ([]ReelItem, error) {
	bookIDs := make([]uint, 0, len(reels))
	seen := make(map[uint]struct{}, len(reels))
	for _, r := range reels {
		if r.BookID == nil {
			continue
		}
		if _, ok := seen[*r.BookID]; ok {
			continue
		}
		seen[*r.BookID] = struct{}{}
		bookIDs = append(bookIDs, *r.BookID)
	}

	booksByID := make(map[uint]model.Book, len(bookIDs))
	chaptersByID := make(map[uint]model.Chapter)
	if len(bookIDs) > 0 {
		books, err := s.bookRepo.ListByIDs(ctx, bookIDs, repository.BookFilter{})
		if err != nil {
			return nil, fmt.Errorf("load reel books: %w", err)
		}
		for _, b := range books {
			booksByID[b.ID] = b
		}
		chapters, err := s.bookRepo.GetChaptersByBooks(ctx, bookIDs)
		if err != nil {
			return nil, fmt.Errorf("load reel chapters: %w", err)
		}
		for _, ch := range chapters {
			chaptersByID[ch.ID] = ch
		}
	}

	items := make([]ReelItem, 0, len(reels))
	for _, r := range reels {
		item := ReelItem{Reel: r}
		if r.BookID != nil {
			if b, ok := booksByID[*r.BookID]; ok {
				bCopy := b
				item.Book = &bCopy
			}
		}
		if r.ChapterID != nil {
			if ch, ok := chaptersByID[*r.ChapterID]; ok {
				chCopy := ch
				item.Chapter = &chCopy
			}
		}
		items = append(items, item)
	}
	return items, nil
}
