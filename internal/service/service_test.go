package service

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"fablefeed-backend/internal/model"
)

var testDBSeq atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// A named shared-cache database so every pooled connection sees the same
	// tables; the counter keeps tests isolated from each other.
	dsn := fmt.Sprintf("file:svc%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Book{},
		&model.Chapter{},
		&model.Reel{},
		&model.Tag{},
		&model.Question{},
		&model.Option{},
		&model.Response{},
		&model.ChapterProgress{},
		&model.PasswordReset{},
	))
	return db
}

func createBook(t *testing.T, db *gorm.DB, title string, chapterDurations ...string) (model.Book, []model.Chapter) {
	t.Helper()
	book := model.Book{Title: title, Author: "tester", Active: true}
	require.NoError(t, db.Create(&book).Error)

	chapters := make([]model.Chapter, 0, len(chapterDurations))
	for i, dur := range chapterDurations {
		ch := model.Chapter{
			BookID:   book.ID,
			Title:    fmt.Sprintf("%s chapter %d", title, i+1),
			Duration: dur,
			Active:   true,
		}
		require.NoError(t, db.Create(&ch).Error)
		chapters = append(chapters, ch)
	}
	return book, chapters
}

func createUser(t *testing.T, db *gorm.DB, email string) model.User {
	t.Helper()
	user := model.User{FullName: "Test User", Email: email, Password: "hash", Status: true}
	require.NoError(t, db.Create(&user).Error)
	return user
}
