package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"fablefeed-backend/internal/model"
	"fablefeed-backend/internal/repository"
)

func newPersonalization(db *gorm.DB) PersonalizationService {
	return NewPersonalizationService(
		db,
		repository.NewQuestionRepository(db),
		repository.NewTagRepository(db),
		repository.NewUserRepository(db),
		repository.NewResponseRepository(db),
		repository.NewProgressRepository(db),
	)
}

func createQuestion(t *testing.T, db *gorm.DB, options ...model.Option) model.Question {
	t.Helper()
	q := model.Question{
		Title:   "What draws you in?",
		Type:    "multi",
		Section: "onboarding",
		Active:  true,
		Options: options,
	}
	require.NoError(t, db.Create(&q).Error)
	return q
}

func TestExtractTagsMatchesByValueBeforeText(t *testing.T) {
	db := newTestDB(t)
	svc := newPersonalization(db)
	q := createQuestion(t, db,
		model.Option{Value: "storms", Text: "Wild weather", Tags: datatypes.NewJSONSlice([]string{"Adventure"})},
		model.Option{Value: "", Text: "storms", Tags: datatypes.NewJSONSlice([]string{"Calm"})},
	)

	ids, err := svc.ExtractTags(context.Background(), []model.Response{{
		Answers: []model.AnswerItem{{QuestionID: q.ID, Values: []string{"storms"}}},
	}})
	require.NoError(t, err)
	require.Len(t, ids, 1)

	var tag model.Tag
	require.NoError(t, db.First(&tag, ids[0]).Error)
	assert.Equal(t, "Adventure", tag.Name)
}

func TestExtractTagsMatchesByOptionID(t *testing.T) {
	db := newTestDB(t)
	svc := newPersonalization(db)
	q := createQuestion(t, db,
		model.Option{Value: "a", Tags: datatypes.NewJSONSlice([]string{"First"})},
		model.Option{Value: "b", Tags: datatypes.NewJSONSlice([]string{"Second"})},
	)

	ids, err := svc.ExtractTags(context.Background(), []model.Response{{
		Answers: []model.AnswerItem{{QuestionID: q.ID, Values: []string{fmt.Sprint(q.Options[1].ID)}}},
	}})
	require.NoError(t, err)
	require.Len(t, ids, 1)

	var tag model.Tag
	require.NoError(t, db.First(&tag, ids[0]).Error)
	assert.Equal(t, "Second", tag.Name)
}

func TestExtractTagsCreatesUnknownTagsOnce(t *testing.T) {
	db := newTestDB(t)
	svc := newPersonalization(db)
	q := createQuestion(t, db,
		model.Option{Value: "x", Tags: datatypes.NewJSONSlice([]string{"Fresh", "  Fresh  "})},
	)
	resp := model.Response{Answers: []model.AnswerItem{{QuestionID: q.ID, Values: []string{"x"}}}}

	ids, err := svc.ExtractTags(context.Background(), []model.Response{resp})
	require.NoError(t, err)
	require.Len(t, ids, 1)

	// A second extraction resolves to the same row instead of creating another.
	again, err := svc.ExtractTags(context.Background(), []model.Response{resp})
	require.NoError(t, err)
	assert.Equal(t, ids, again)

	var count int64
	require.NoError(t, db.Model(&model.Tag{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestExtractTagsUnmatchedValues(t *testing.T) {
	db := newTestDB(t)
	svc := newPersonalization(db)
	q := createQuestion(t, db,
		model.Option{Value: "known", Tags: datatypes.NewJSONSlice([]string{"Known"})},
	)

	ids, err := svc.ExtractTags(context.Background(), []model.Response{{
		Answers: []model.AnswerItem{{QuestionID: q.ID, Values: []string{"unknown"}}},
	}})
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestMergeGuestHistoryClaimsRowsAndFoldsTags(t *testing.T) {
	db := newTestDB(t)
	svc := newPersonalization(db)
	user := createUser(t, db, "merger@example.com")
	q := createQuestion(t, db,
		model.Option{Value: "calm", Tags: datatypes.NewJSONSlice([]string{"Mindfulness"})},
	)
	const guestID = "abc123"

	require.NoError(t, db.Create(&model.ChapterProgress{
		GuestID: guestID, BookID: 1, ChapterID: 1, PlayedSeconds: 40, DurationSeconds: 100, Percent: 40,
	}).Error)
	require.NoError(t, db.Create(&model.Response{
		GuestID: guestID,
		Answers: []model.AnswerItem{{QuestionID: q.ID, Values: []string{"calm"}}},
	}).Error)

	require.NoError(t, svc.MergeGuestHistory(context.Background(), user.ID, guestID))

	var progress model.ChapterProgress
	require.NoError(t, db.First(&progress).Error)
	require.NotNil(t, progress.UserID)
	assert.Equal(t, user.ID, *progress.UserID)
	// The guest identifier survives the rewrite as provenance.
	assert.Equal(t, guestID, progress.GuestID)

	var response model.Response
	require.NoError(t, db.First(&response).Error)
	require.NotNil(t, response.UserID)
	assert.Equal(t, user.ID, *response.UserID)

	var fresh model.User
	require.NoError(t, db.First(&fresh, user.ID).Error)
	require.Len(t, fresh.ChosenTags, 1)

	var tag model.Tag
	require.NoError(t, db.First(&tag, fresh.ChosenTags[0]).Error)
	assert.Equal(t, "Mindfulness", tag.Name)
}

func TestMergeGuestHistoryIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := newPersonalization(db)
	user := createUser(t, db, "repeat@example.com")
	q := createQuestion(t, db,
		model.Option{Value: "calm", Tags: datatypes.NewJSONSlice([]string{"Mindfulness"})},
	)
	const guestID = "repeat-guest"

	require.NoError(t, db.Create(&model.Response{
		GuestID: guestID,
		Answers: []model.AnswerItem{{QuestionID: q.ID, Values: []string{"calm"}}},
	}).Error)

	require.NoError(t, svc.MergeGuestHistory(context.Background(), user.ID, guestID))
	require.NoError(t, svc.MergeGuestHistory(context.Background(), user.ID, guestID))

	var fresh model.User
	require.NoError(t, db.First(&fresh, user.ID).Error)
	assert.Len(t, fresh.ChosenTags, 1)
}

func TestMergeGuestHistoryDoesNotTouchOwnedRows(t *testing.T) {
	db := newTestDB(t)
	svc := newPersonalization(db)
	owner := createUser(t, db, "owner@example.com")
	claimer := createUser(t, db, "claimer@example.com")
	const guestID = "shared-guest"

	require.NoError(t, db.Create(&model.ChapterProgress{
		UserID: &owner.ID, GuestID: guestID, BookID: 1, ChapterID: 1, Percent: 50,
	}).Error)

	require.NoError(t, svc.MergeGuestHistory(context.Background(), claimer.ID, guestID))

	var progress model.ChapterProgress
	require.NoError(t, db.First(&progress).Error)
	assert.Equal(t, owner.ID, *progress.UserID)
}

func TestMergeGuestHistoryEmptyArgsNoOp(t *testing.T) {
	db := newTestDB(t)
	svc := newPersonalization(db)

	assert.NoError(t, svc.MergeGuestHistory(context.Background(), 0, "guest"))
	assert.NoError(t, svc.MergeGuestHistory(context.Background(), 1, ""))
}

func TestPrioritizeBooksIsCaseSensitive(t *testing.T) {
	db := newTestDB(t)
	svc := newPersonalization(db)
	now := time.Now()

	books := []model.Book{
		{ID: 1, Title: "Old Match", Tags: datatypes.NewJSONSlice([]string{"Adventure"}), CreatedAt: now.Add(-2 * time.Hour)},
		{ID: 2, Title: "Lowercase", Tags: datatypes.NewJSONSlice([]string{"adventure"}), CreatedAt: now.Add(-time.Hour)},
		{ID: 3, Title: "New Match", Tags: datatypes.NewJSONSlice([]string{"Adventure"}), CreatedAt: now},
	}

	ordered := svc.PrioritizeBooks(books, []string{"Adventure"})
	require.Len(t, ordered, 3)
	assert.Equal(t, "New Match", ordered[0].Title)
	assert.Equal(t, "Old Match", ordered[1].Title)
	assert.Equal(t, "Lowercase", ordered[2].Title)
}

func TestPrioritizeBooksEmptyTagsShortCircuits(t *testing.T) {
	db := newTestDB(t)
	svc := newPersonalization(db)
	books := []model.Book{{ID: 2}, {ID: 1}}

	ordered := svc.PrioritizeBooks(books, nil)
	assert.Equal(t, books, ordered)
}

func TestPrioritizeReelsIsCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	svc := newPersonalization(db)
	now := time.Now()

	reels := []model.Reel{
		{ID: 1, Title: "Plain", CreatedAt: now},
		{ID: 2, Title: "Tagged", Tags: datatypes.NewJSONSlice([]string{"REELS"}), CreatedAt: now.Add(-time.Hour)},
	}

	ordered := svc.PrioritizeReels(reels, []string{"Reels"})
	require.Len(t, ordered, 2)
	assert.Equal(t, "Tagged", ordered[0].Title)
	assert.Equal(t, "Plain", ordered[1].Title)
}

func TestMatchedTagNames(t *testing.T) {
	book := model.Book{Tags: datatypes.NewJSONSlice([]string{"Adventure", "Classics", "Quiet"})}
	assert.Equal(t, []string{"Adventure", "Classics"}, MatchedTagNames(book, []string{"Classics", "Adventure"}))
	assert.Empty(t, MatchedTagNames(book, []string{"adventure"}))
}
