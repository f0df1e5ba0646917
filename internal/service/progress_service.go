package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"fablefeed-backend/internal/model"
	"fablefeed-backend/internal/repository"
	"fablefeed-backend/utilities"
)

// A chapter counts as finished at 95 percent, or within one second of the end.
const completionThreshold = 95.0

// ChapterProgressView is the per-chapter slice of a book progress readout;
// chapters the identity never started carry zeros.
type ChapterProgressView struct {
	ChapterID       uint       `json:"chapterId"`
	Title           string     `json:"title"`
	DurationSeconds int        `json:"durationSeconds"`
	PlayedSeconds   int        `json:"playedSeconds"`
	Percent         float64    `json:"percent"`
	Completed       bool       `json:"completed"`
	UpdatedAt       *time.Time `json:"updatedAt"`
}

// BookSummary aggregates an identity's progress across one book. Percent is
// the mean per-chapter percent over every chapter of the book, started or not.
type BookSummary struct {
	TotalChapters     int     `json:"totalChapters"`
	CompletedChapters int     `json:"completedChapters"`
	Percent           float64 `json:"percent"`
}

type BookProgress struct {
	PerChapter []ChapterProgressView `json:"perChapter"`
	Overall    BookSummary           `json:"overall"`
}

type ProgressService interface {
	// RecordProgress upserts the playback watermark for (identity, chapter).
	// playedSeconds is the current playhead, not a delta; last write wins.
	RecordProgress(ctx context.Context, identity model.Identity, bookID, chapterID uint, playedSeconds, durationOverride int) (*model.ChapterProgress, error)
	GetBookProgress(ctx context.Context, identity model.Identity, bookID uint) (*BookProgress, error)
	// Classify summarizes the identity's progress per book. With nil bookIDs
	// it covers every book the identity has progress in.
	Classify(ctx context.Context, identity model.Identity, bookIDs []uint) (map[uint]BookSummary, error)
}

type progressService struct {
	bookRepo     repository.BookRepository
	progressRepo repository.ProgressRepository
}

func NewProgressService(bookRepo repository.BookRepository, progressRepo repository.ProgressRepository) ProgressService {
	return &progressService{bookRepo: bookRepo, progressRepo: progressRepo}
}

func (s *progressService) RecordProgress(ctx context.Context, identity model.Identity, bookID, chapterID uint, playedSeconds, durationOverride int) (*model.ChapterProgress, error) {
	if identity.IsZero() {
		return nil, fmt.Errorf("%w: identity required", ErrUnauthorized)
	}
	if bookID == 0 || chapterID == 0 {
		return nil, fmt.Errorf("%w: bookId and chapterId are required", ErrInvalidArgument)
	}

	chapter, err := s.bookRepo.GetChapter(ctx, chapterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: chapter %d", ErrNotFound, chapterID)
		}
		return nil, fmt.Errorf("load chapter: %w", err)
	}
	if chapter.BookID != bookID {
		return nil, fmt.Errorf("%w: chapter %d does not belong to book %d", ErrNotFound, chapterID, bookID)
	}

	if playedSeconds < 0 {
		playedSeconds = 0
	}

	prev, err := s.progressRepo.GetForIdentityAndChapter(ctx, identity, bookID, chapterID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load prior progress: %w", err)
	}

	// Authoritative duration: explicit override, else the chapter's stored
	// duration, else whatever a previous report established. Never invented.
	durationSeconds := 0
	switch {
	case durationOverride > 0:
		durationSeconds = durationOverride
	default:
		if parsed := utilities.ParseDurationSeconds(chapter.Duration); parsed > 0 {
			durationSeconds = parsed
		} else if prev != nil {
			durationSeconds = prev.DurationSeconds
		}
	}

	percent, completed := progressState(playedSeconds, durationSeconds)

	rec := &model.ChapterProgress{
		BookID:          bookID,
		ChapterID:       chapterID,
		PlayedSeconds:   playedSeconds,
		DurationSeconds: durationSeconds,
		Percent:         percent,
		Completed:       completed,
	}
	if identity.IsUser() {
		uid := identity.UserID()
		rec.UserID = &uid
	} else {
		rec.GuestID = identity.Guest()
	}

	saved, err := s.progressRepo.Upsert(ctx, identity, rec)
	if err != nil {
		return nil, fmt.Errorf("store progress: %w", err)
	}

	if completed && (prev == nil || !prev.Completed) {
		utilities.GlobalEventBus.Publish(utilities.EventChapterCompleted, saved)
	}
	return saved, nil
}

func (s *progressService) GetBookProgress(ctx context.Context, identity model.Identity, bookID uint) (*BookProgress, error) {
	if identity.IsZero() {
		return nil, fmt.Errorf("%w: identity required", ErrUnauthorized)
	}
	if bookID == 0 {
		return nil, fmt.Errorf("%w: bookId is required", ErrInvalidArgument)
	}
	if _, err := s.bookRepo.GetByID(ctx, bookID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: book %d", ErrNotFound, bookID)
		}
		return nil, fmt.Errorf("load book: %w", err)
	}

	chapters, err := s.bookRepo.GetChaptersByBook(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("load chapters: %w", err)
	}

	rows, err := s.progressRepo.GetForIdentityAndBook(ctx, identity, bookID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	byChapter := make(map[uint]*model.ChapterProgress, len(rows))
	for i := range rows {
		byChapter[rows[i].ChapterID] = &rows[i]
	}

	perChapter := make([]ChapterProgressView, 0, len(chapters))
	sumPercent := 0.0
	completedCount := 0
	for _, ch := range chapters {
		view := ChapterProgressView{
			ChapterID:       ch.ID,
			Title:           ch.Title,
			DurationSeconds: utilities.ParseDurationSeconds(ch.Duration),
		}
		if p, ok := byChapter[ch.ID]; ok {
			if view.DurationSeconds == 0 {
				view.DurationSeconds = p.DurationSeconds
			}
			view.PlayedSeconds = p.PlayedSeconds
			view.Percent = round2(p.Percent)
			view.Completed = p.Completed
			updated := p.UpdatedAt
			view.UpdatedAt = &updated
		}
		if view.Completed {
			completedCount++
		}
		sumPercent += view.Percent
		perChapter = append(perChapter, view)
	}

	overall := BookSummary{
		TotalChapters:     len(perChapter),
		CompletedChapters: completedCount,
	}
	if len(perChapter) > 0 {
		overall.Percent = round2(sumPercent / float64(len(perChapter)))
	}

	return &BookProgress{PerChapter: perChapter, Overall: overall}, nil
}

func (s *progressService) Classify(ctx context.Context, identity model.Identity, bookIDs []uint) (map[uint]BookSummary, error) {
	if identity.IsZero() {
		return nil, fmt.Errorf("%w: identity required", ErrUnauthorized)
	}

	rows, err := s.progressRepo.GetForIdentity(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}

	byBook := make(map[uint][]model.ChapterProgress)
	for _, row := range rows {
		byBook[row.BookID] = append(byBook[row.BookID], row)
	}

	candidates := bookIDs
	if candidates == nil {
		for bid := range byBook {
			candidates = append(candidates, bid)
		}
	}

	chapters, err := s.bookRepo.GetChaptersByBooks(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("load chapters: %w", err)
	}
	chaptersByBook := make(map[uint][]model.Chapter)
	for _, ch := range chapters {
		chaptersByBook[ch.BookID] = append(chaptersByBook[ch.BookID], ch)
	}

	summaries := make(map[uint]BookSummary, len(candidates))
	for _, bid := range candidates {
		progress := byBook[bid]
		if len(progress) == 0 {
			// Books the identity never touched have no summary; they belong to
			// neither the continue-reading nor the completed listing.
			continue
		}
		byChapter := make(map[uint]*model.ChapterProgress, len(progress))
		for i := range progress {
			byChapter[progress[i].ChapterID] = &progress[i]
		}

		chs := chaptersByBook[bid]
		sumPercent := 0.0
		completedCount := 0
		for _, ch := range chs {
			if p, ok := byChapter[ch.ID]; ok {
				sumPercent += p.Percent
				if p.Completed {
					completedCount++
				}
			}
		}

		summary := BookSummary{
			TotalChapters:     len(chs),
			CompletedChapters: completedCount,
		}
		if len(chs) > 0 {
			summary.Percent = round2(sumPercent / float64(len(chs)))
		}
		summaries[bid] = summary
	}
	return summaries, nil
}

// InProgress reports whether a summarized book belongs to the continue-reading
// listing. The 95 boundary belongs to Completed, never both.
func (sum BookSummary) InProgress() bool {
	return sum.Percent < completionThreshold
}

func (sum BookSummary) IsCompleted() bool {
	return sum.Percent >= completionThreshold
}

func progressState(playedSeconds, durationSeconds int) (float64, bool) {
	percent := 0.0
	if durationSeconds > 0 {
		percent = math.Min(100, float64(playedSeconds)/float64(durationSeconds)*100)
	}
	completed := percent >= completionThreshold ||
		(durationSeconds > 0 && playedSeconds+1 >= durationSeconds)
	return round2(percent), completed
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
