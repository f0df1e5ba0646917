package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"fablefeed-backend/internal/model"
	"fablefeed-backend/internal/repository"
)

func newQuestionService(db *gorm.DB) QuestionService {
	return NewQuestionService(
		repository.NewQuestionRepository(db),
		repository.NewResponseRepository(db),
		newPersonalization(db),
	)
}

func TestListActiveMarksAnsweredQuestions(t *testing.T) {
	db := newTestDB(t)
	svc := newQuestionService(db)
	ctx := context.Background()

	answeredQ := createQuestion(t, db, model.Option{Value: "a"})
	openQ := createQuestion(t, db, model.Option{Value: "b"})
	user := createUser(t, db, "asker@example.com")

	require.NoError(t, db.Create(&model.Response{
		UserID:  &user.ID,
		Answers: []model.AnswerItem{{QuestionID: answeredQ.ID, Values: []string{"a"}}},
	}).Error)

	views, err := svc.ListActive(ctx, model.UserIdentity(user.ID), repository.QuestionFilter{})
	require.NoError(t, err)
	require.Len(t, views, 2)

	byID := make(map[uint]QuestionView, len(views))
	for _, v := range views {
		byID[v.ID] = v
	}
	assert.True(t, byID[answeredQ.ID].Answered)
	assert.False(t, byID[openQ.ID].Answered)
}

func TestListActiveAttachesLatestAnswer(t *testing.T) {
	db := newTestDB(t)
	svc := newQuestionService(db)
	ctx := context.Background()

	q := createQuestion(t, db, model.Option{Value: "a"}, model.Option{Value: "b"})
	open := createQuestion(t, db, model.Option{Value: "c"})
	user := createUser(t, db, "repeat@example.com")

	first := model.Response{
		UserID:  &user.ID,
		Answers: []model.AnswerItem{{QuestionID: q.ID, Values: []string{"a"}, Text: "old"}},
	}
	require.NoError(t, db.Create(&first).Error)
	require.NoError(t, db.Model(&model.Response{}).Where("id = ?", first.ID).
		Update("created_at", time.Now().Add(-time.Hour)).Error)
	second := model.Response{
		UserID:  &user.ID,
		Answers: []model.AnswerItem{{QuestionID: q.ID, Values: []string{"b"}, Text: "new"}},
	}
	require.NoError(t, db.Create(&second).Error)

	views, err := svc.ListActive(ctx, model.UserIdentity(user.ID), repository.QuestionFilter{})
	require.NoError(t, err)

	byID := make(map[uint]QuestionView, len(views))
	for _, v := range views {
		byID[v.ID] = v
	}
	answer := byID[q.ID].LatestAnswer
	require.NotNil(t, answer)
	assert.Equal(t, []string{"b"}, answer.Values)
	assert.Equal(t, "new", answer.Text)
	assert.Equal(t, second.ID, answer.ResponseID)
	assert.False(t, answer.RespondedAt.IsZero())
	assert.Nil(t, byID[open.ID].LatestAnswer)
}

func TestListActiveSkipsInactive(t *testing.T) {
	db := newTestDB(t)
	svc := newQuestionService(db)

	createQuestion(t, db, model.Option{Value: "a"})
	inactive := createQuestion(t, db, model.Option{Value: "b"})
	require.NoError(t, db.Model(&model.Question{}).Where("id = ?", inactive.ID).Update("active", false).Error)

	views, err := svc.ListActive(context.Background(), model.Identity{}, repository.QuestionFilter{})
	require.NoError(t, err)
	assert.Len(t, views, 1)
}

func TestSubmitResponseAsUserAbsorbsTags(t *testing.T) {
	db := newTestDB(t)
	svc := newQuestionService(db)
	ctx := context.Background()

	q := createQuestion(t, db,
		model.Option{Value: "calm", Tags: datatypes.NewJSONSlice([]string{"Mindfulness"})},
	)
	user := createUser(t, db, "submitter@example.com")

	resp, err := svc.SubmitResponse(ctx, model.UserIdentity(user.ID), SubmitResponseInput{
		Answers: []model.AnswerItem{{QuestionID: q.ID, Values: []string{"calm"}}},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.UserID)
	assert.Equal(t, user.ID, *resp.UserID)
	assert.NotEmpty(t, resp.SessionID)

	var fresh model.User
	require.NoError(t, db.First(&fresh, user.ID).Error)
	assert.Len(t, fresh.ChosenTags, 1)
}

func TestSubmitResponseAsGuestKeepsTagsPending(t *testing.T) {
	db := newTestDB(t)
	svc := newQuestionService(db)
	ctx := context.Background()

	q := createQuestion(t, db,
		model.Option{Value: "calm", Tags: datatypes.NewJSONSlice([]string{"Mindfulness"})},
	)

	resp, err := svc.SubmitResponse(ctx, model.GuestIdentity("guest-q"), SubmitResponseInput{
		Answers:   []model.AnswerItem{{QuestionID: q.ID, Values: []string{"calm"}}},
		SessionID: "session-1",
		Metadata:  map[string]any{"source": "onboarding"},
	})
	require.NoError(t, err)
	assert.Nil(t, resp.UserID)
	assert.Equal(t, "guest-q", resp.GuestID)
	assert.Equal(t, "session-1", resp.SessionID)
	assert.Equal(t, "guest-q", resp.Metadata["userIdentifier"])
	assert.Equal(t, "onboarding", resp.Metadata["source"])

	// Guest submissions never create chosen tags until a merge happens.
	var tagCount int64
	require.NoError(t, db.Model(&model.Tag{}).Count(&tagCount).Error)
	assert.Equal(t, int64(0), tagCount)
}

func TestSubmitResponseValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newQuestionService(db)
	ctx := context.Background()

	_, err := svc.SubmitResponse(ctx, model.Identity{}, SubmitResponseInput{
		Answers: []model.AnswerItem{{QuestionID: 1}},
	})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.SubmitResponse(ctx, model.GuestIdentity("g"), SubmitResponseInput{})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.SubmitResponse(ctx, model.GuestIdentity("g"), SubmitResponseInput{
		Answers: []model.AnswerItem{{QuestionID: 0, Values: []string{"x"}}},
	})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestMyResponses(t *testing.T) {
	db := newTestDB(t)
	svc := newQuestionService(db)
	ctx := context.Background()

	q := createQuestion(t, db, model.Option{Value: "a"})
	user := createUser(t, db, "mine@example.com")

	_, err := svc.SubmitResponse(ctx, model.UserIdentity(user.ID), SubmitResponseInput{
		Answers: []model.AnswerItem{{QuestionID: q.ID, Values: []string{"a"}}},
	})
	require.NoError(t, err)
	_, err = svc.SubmitResponse(ctx, model.GuestIdentity("someone-else"), SubmitResponseInput{
		Answers: []model.AnswerItem{{QuestionID: q.ID, Values: []string{"a"}}},
	})
	require.NoError(t, err)

	mine, err := svc.MyResponses(ctx, user.ID, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	_, err = svc.MyResponses(ctx, 0, 0)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
