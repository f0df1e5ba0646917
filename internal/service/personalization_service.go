package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"fablefeed-backend/internal/model"
	"fablefeed-backend/internal/repository"
)

type PersonalizationService interface {
	// ExtractTags resolves every answer value against its question's options
	// and returns the union of tag ids for the matched options' tag names.
	// Unknown tag names are created lazily.
	ExtractTags(ctx context.Context, responses []model.Response) ([]uint, error)
	// MergeGuestHistory claims the guest's unowned progress and response rows
	// for the user, then folds the tags derived from the migrated responses
	// into the user's chosen tags. A guest with no history is a no-op.
	MergeGuestHistory(ctx context.Context, userID uint, guestIdentifier string) error
	// AbsorbResponse folds the tags derived from one freshly submitted
	// response into the user's chosen tags.
	AbsorbResponse(ctx context.Context, userID uint, response model.Response) error
	// ChosenTagNames resolves the user's accumulated tag ids to names.
	ChosenTagNames(ctx context.Context, userID uint) ([]string, error)
	PrioritizeBooks(books []model.Book, matchTagNames []string) []model.Book
	PrioritizeReels(reels []model.Reel, matchTagNames []string) []model.Reel
}

type personalizationService struct {
	db           *gorm.DB
	questionRepo repository.QuestionRepository
	tagRepo      repository.TagRepository
	userRepo     repository.UserRepository
	responseRepo repository.ResponseRepository
	progressRepo repository.ProgressRepository
}

func NewPersonalizationService(
	db *gorm.DB,
	questionRepo repository.QuestionRepository,
	tagRepo repository.TagRepository,
	userRepo repository.UserRepository,
	responseRepo repository.ResponseRepository,
	progressRepo repository.ProgressRepository,
) PersonalizationService {
	return &personalizationService{
		db:           db,
		questionRepo: questionRepo,
		tagRepo:      tagRepo,
		userRepo:     userRepo,
		responseRepo: responseRepo,
		progressRepo: progressRepo,
	}
}

func (s *personalizationService) ExtractTags(ctx context.Context, responses []model.Response) ([]uint, error) {
	questionIDs := make([]uint, 0)
	seenQuestion := make(map[uint]bool)
	for _, resp := range responses {
		for _, ans := range resp.Answers {
			if ans.QuestionID != 0 && !seenQuestion[ans.QuestionID] {
				seenQuestion[ans.QuestionID] = true
				questionIDs = append(questionIDs, ans.QuestionID)
			}
		}
	}
	if len(questionIDs) == 0 {
		return nil, nil
	}

	questions, err := s.questionRepo.GetByIDs(ctx, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	questionByID := make(map[uint]*model.Question, len(questions))
	for i := range questions {
		questionByID[questions[i].ID] = &questions[i]
	}

	tagNames := make(map[string]bool)
	for _, resp := range responses {
		for _, ans := range resp.Answers {
			q, ok := questionByID[ans.QuestionID]
			if !ok {
				continue
			}
			for _, value := range ans.Values {
				opt := matchOption(q.Options, value)
				if opt == nil {
					continue
				}
				for _, name := range opt.Tags {
					if trimmed := strings.TrimSpace(name); trimmed != "" {
						tagNames[trimmed] = true
					}
				}
			}
		}
	}
	if len(tagNames) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(tagNames))
	for name := range tagNames {
		tag, err := s.tagRepo.GetOrCreate(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolve tag %q: %w", name, err)
		}
		ids = append(ids, tag.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// matchOption resolves a submitted value to an option by trying, in order,
// option-id, option-value and option-text equality. Exact, case-sensitive.
func matchOption(options []model.Option, value string) *model.Option {
	for i := range options {
		if strconv.FormatUint(uint64(options[i].ID), 10) == value {
			return &options[i]
		}
	}
	for i := range options {
		if options[i].Value != "" && options[i].Value == value {
			return &options[i]
		}
	}
	for i := range options {
		if options[i].Text != "" && options[i].Text == value {
			return &options[i]
		}
	}
	return nil
}

func (s *personalizationService) MergeGuestHistory(ctx context.Context, userID uint, guestIdentifier string) error {
	if userID == 0 || guestIdentifier == "" {
		return nil
	}

	var migrated []model.Response
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		responses, err := s.responseRepo.GetUnclaimedByGuest(ctx, tx, guestIdentifier)
		if err != nil {
			return fmt.Errorf("load guest responses: %w", err)
		}
		migrated = responses

		if _, err := s.progressRepo.ClaimGuest(ctx, tx, guestIdentifier, userID); err != nil {
			return fmt.Errorf("claim guest progress: %w", err)
		}
		if _, err := s.responseRepo.ClaimGuest(ctx, tx, guestIdentifier, userID); err != nil {
			return fmt.Errorf("claim guest responses: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(migrated) == 0 {
		return nil
	}

	tagIDs, err := s.ExtractTags(ctx, migrated)
	if err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	return s.appendChosenTags(ctx, userID, tagIDs)
}

func (s *personalizationService) AbsorbResponse(ctx context.Context, userID uint, response model.Response) error {
	if userID == 0 {
		return nil
	}
	tagIDs, err := s.ExtractTags(ctx, []model.Response{response})
	if err != nil {
		return err
	}
	return s.appendChosenTags(ctx, userID, tagIDs)
}

// appendChosenTags unions tag ids into the user's chosen set; ids already
// present are skipped so repeated merges never duplicate.
func (s *personalizationService) appendChosenTags(ctx context.Context, userID uint, tagIDs []uint) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return fmt.Errorf("load user: %w", err)
	}

	present := make(map[uint]bool, len(user.ChosenTags))
	merged := make([]uint, 0, len(user.ChosenTags)+len(tagIDs))
	for _, id := range user.ChosenTags {
		present[id] = true
		merged = append(merged, id)
	}
	added := false
	for _, id := range tagIDs {
		if !present[id] {
			present[id] = true
			merged = append(merged, id)
			added = true
		}
	}
	if !added {
		return nil
	}
	return s.userRepo.UpdateChosenTags(ctx, nil, userID, merged)
}

func (s *personalizationService) ChosenTagNames(ctx context.Context, userID uint) ([]string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(user.ChosenTags) == 0 {
		return nil, nil
	}
	tags, err := s.tagRepo.GetByIDs(ctx, user.ChosenTags)
	if err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		if name := strings.TrimSpace(t.Name); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// PrioritizeBooks moves books whose tag list intersects matchTagNames ahead of
// the rest. Matching is exact and case-sensitive; both partitions order by
// creation time descending, ties keeping retrieval order. Empty matchTagNames
// skips the partitioning entirely.
func (s *personalizationService) PrioritizeBooks(books []model.Book, matchTagNames []string) []model.Book {
	if len(matchTagNames) == 0 {
		return books
	}
	wanted := make(map[string]bool, len(matchTagNames))
	for _, n := range matchTagNames {
		wanted[n] = true
	}

	matched := make([]model.Book, 0, len(books))
	others := make([]model.Book, 0, len(books))
	for _, b := range books {
		hit := false
		for _, t := range b.Tags {
			if wanted[t] {
				hit = true
				break
			}
		}
		if hit {
			matched = append(matched, b)
		} else {
			others = append(others, b)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	sort.SliceStable(others, func(i, j int) bool { return others[i].CreatedAt.After(others[j].CreatedAt) })
	return append(matched, others...)
}

// PrioritizeReels is the reel-side variant; reel tag matching is
// case-insensitive.
func (s *personalizationService) PrioritizeReels(reels []model.Reel, matchTagNames []string) []model.Reel {
	if len(matchTagNames) == 0 {
		return reels
	}

	matched := make([]model.Reel, 0, len(reels))
	others := make([]model.Reel, 0, len(reels))
	for _, r := range reels {
		hit := false
	scan:
		for _, t := range r.Tags {
			for _, n := range matchTagNames {
				if strings.EqualFold(t, n) {
					hit = true
					break scan
				}
			}
		}
		if hit {
			matched = append(matched, r)
		} else {
			others = append(others, r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	sort.SliceStable(others, func(i, j int) bool { return others[i].CreatedAt.After(others[j].CreatedAt) })
	return append(matched, others...)
}

// MatchedTagNames reports which of matchTagNames appear on the book, for the
// listing payload's matchedTags field.
func MatchedTagNames(book model.Book, matchTagNames []string) []string {
	out := []string{}
	for _, t := range book.Tags {
		for _, n := range matchTagNames {
			if t == n {
				out = append(out, t)
				break
			}
		}
	}
	return out
}
