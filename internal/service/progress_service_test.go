package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fablefeed-backend/internal/model"
	"fablefeed-backend/internal/repository"
)

func TestRecordProgressPercentAndCompletion(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressService(repository.NewBookRepository(db), repository.NewProgressRepository(db))
	book, chapters := createBook(t, db, "Percent", "100", "100", "")
	guest := model.GuestIdentity("guest-1")
	ctx := context.Background()

	rec, err := svc.RecordProgress(ctx, guest, book.ID, chapters[0].ID, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, 50.0, rec.Percent)
	assert.False(t, rec.Completed)

	// 95 percent marks the chapter completed.
	rec, err = svc.RecordProgress(ctx, guest, book.ID, chapters[0].ID, 95, 0)
	require.NoError(t, err)
	assert.Equal(t, 95.0, rec.Percent)
	assert.True(t, rec.Completed)

	// Within one second of the end counts as completed too.
	rec, err = svc.RecordProgress(ctx, guest, book.ID, chapters[1].ID, 99, 0)
	require.NoError(t, err)
	assert.True(t, rec.Completed)

	// Unknown duration yields zero percent and no completion.
	rec, err = svc.RecordProgress(ctx, guest, book.ID, chapters[2].ID, 500, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rec.Percent)
	assert.False(t, rec.Completed)
	assert.Equal(t, 500, rec.PlayedSeconds)
}

func TestRecordProgressCapsAtHundred(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressService(repository.NewBookRepository(db), repository.NewProgressRepository(db))
	book, chapters := createBook(t, db, "Cap", "100")
	ctx := context.Background()

	rec, err := svc.RecordProgress(ctx, model.GuestIdentity("g"), book.ID, chapters[0].ID, 250, 0)
	require.NoError(t, err)
	assert.Equal(t, 100.0, rec.Percent)
	assert.True(t, rec.Completed)
}

func TestRecordProgressLastWriteWins(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressService(repository.NewBookRepository(db), repository.NewProgressRepository(db))
	book, chapters := createBook(t, db, "Rewind", "100")
	guest := model.GuestIdentity("guest-rewind")
	ctx := context.Background()

	_, err := svc.RecordProgress(ctx, guest, book.ID, chapters[0].ID, 80, 0)
	require.NoError(t, err)

	// A rewind overwrites; the watermark is the playhead, not a high-water mark.
	rec, err := svc.RecordProgress(ctx, guest, book.ID, chapters[0].ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 10.0, rec.Percent)

	var count int64
	require.NoError(t, db.Model(&model.ChapterProgress{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRecordProgressDurationFallback(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressService(repository.NewBookRepository(db), repository.NewProgressRepository(db))
	book, chapters := createBook(t, db, "Fallback", "")
	guest := model.GuestIdentity("guest-fb")
	ctx := context.Background()

	// Client override establishes the duration.
	rec, err := svc.RecordProgress(ctx, guest, book.ID, chapters[0].ID, 30, 200)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.DurationSeconds)
	assert.Equal(t, 15.0, rec.Percent)

	// Later writes without an override reuse the established duration.
	rec, err = svc.RecordProgress(ctx, guest, book.ID, chapters[0].ID, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.DurationSeconds)
	assert.Equal(t, 50.0, rec.Percent)
}

func TestRecordProgressClampsNegativePlayed(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressService(repository.NewBookRepository(db), repository.NewProgressRepository(db))
	book, chapters := createBook(t, db, "Clamp", "100")

	rec, err := svc.RecordProgress(context.Background(), model.GuestIdentity("g"), book.ID, chapters[0].ID, -20, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.PlayedSeconds)
	assert.Equal(t, 0.0, rec.Percent)
}

func TestRecordProgressErrors(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressService(repository.NewBookRepository(db), repository.NewProgressRepository(db))
	book, chapters := createBook(t, db, "Errors", "100")
	other, _ := createBook(t, db, "Other", "100")
	ctx := context.Background()

	_, err := svc.RecordProgress(ctx, model.Identity{}, book.ID, chapters[0].ID, 10, 0)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.RecordProgress(ctx, model.GuestIdentity("g"), book.ID, 0, 10, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.RecordProgress(ctx, model.GuestIdentity("g"), book.ID, 9999, 10, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	// Chapter belongs to a different book.
	_, err = svc.RecordProgress(ctx, model.GuestIdentity("g"), other.ID, chapters[0].ID, 10, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordProgressSeparatesIdentities(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressService(repository.NewBookRepository(db), repository.NewProgressRepository(db))
	book, chapters := createBook(t, db, "Identities", "100")
	user := createUser(t, db, "listener@example.com")
	ctx := context.Background()

	_, err := svc.RecordProgress(ctx, model.UserIdentity(user.ID), book.ID, chapters[0].ID, 90, 0)
	require.NoError(t, err)
	_, err = svc.RecordProgress(ctx, model.GuestIdentity("guest-x"), book.ID, chapters[0].ID, 10, 0)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&model.ChapterProgress{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	userProgress, err := svc.GetBookProgress(ctx, model.UserIdentity(user.ID), book.ID)
	require.NoError(t, err)
	assert.Equal(t, 90.0, userProgress.PerChapter[0].Percent)

	guestProgress, err := svc.GetBookProgress(ctx, model.GuestIdentity("guest-x"), book.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, guestProgress.PerChapter[0].Percent)
}

func TestGetBookProgressAveragesOverAllChapters(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressService(repository.NewBookRepository(db), repository.NewProgressRepository(db))
	book, chapters := createBook(t, db, "Average", "100", "100", "100", "100")
	guest := model.GuestIdentity("guest-avg")
	ctx := context.Background()

	_, err := svc.RecordProgress(ctx, guest, book.ID, chapters[0].ID, 100, 0)
	require.NoError(t, err)
	_, err = svc.RecordProgress(ctx, guest, book.ID, chapters[1].ID, 100, 0)
	require.NoError(t, err)

	progress, err := svc.GetBookProgress(ctx, guest, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, progress.Overall.TotalChapters)
	assert.Equal(t, 2, progress.Overall.CompletedChapters)
	// Unstarted chapters drag the mean down: (100+100+0+0)/4.
	assert.Equal(t, 50.0, progress.Overall.Percent)
	assert.Len(t, progress.PerChapter, 4)
	assert.Nil(t, progress.PerChapter[3].UpdatedAt)
}

func TestGetBookProgressUnknownBook(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressService(repository.NewBookRepository(db), repository.NewProgressRepository(db))

	_, err := svc.GetBookProgress(context.Background(), model.GuestIdentity("g"), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClassifySplitsInProgressAndCompleted(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressService(repository.NewBookRepository(db), repository.NewProgressRepository(db))
	guest := model.GuestIdentity("guest-classify")
	ctx := context.Background()

	done, doneChapters := createBook(t, db, "Done", "100", "100")
	partial, partialChapters := createBook(t, db, "Partial", "100", "100")
	createBook(t, db, "Untouched", "100")

	for _, ch := range doneChapters {
		_, err := svc.RecordProgress(ctx, guest, done.ID, ch.ID, 100, 0)
		require.NoError(t, err)
	}
	_, err := svc.RecordProgress(ctx, guest, partial.ID, partialChapters[0].ID, 40, 0)
	require.NoError(t, err)

	summaries, err := svc.Classify(ctx, guest, nil)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.True(t, summaries[done.ID].IsCompleted())
	assert.False(t, summaries[done.ID].InProgress())

	assert.True(t, summaries[partial.ID].InProgress())
	assert.False(t, summaries[partial.ID].IsCompleted())
	assert.Equal(t, 20.0, summaries[partial.ID].Percent)
}

func TestClassifyBoundaryBelongsToCompleted(t *testing.T) {
	sum := BookSummary{Percent: 95.0}
	assert.True(t, sum.IsCompleted())
	assert.False(t, sum.InProgress())

	sum = BookSummary{Percent: 94.99}
	assert.False(t, sum.IsCompleted())
	assert.True(t, sum.InProgress())
}

func TestProgressStateRounding(t *testing.T) {
	// 2849 of 3000 seconds is 94.9666...; completion checks the unrounded
	// value, so rounding to 94.97 must not tip it over the threshold.
	percent, completed := progressState(2849, 3000)
	assert.Equal(t, 94.97, percent)
	assert.False(t, completed)

	percent, completed = progressState(2850, 3000)
	assert.Equal(t, 95.0, percent)
	assert.True(t, completed)
}
