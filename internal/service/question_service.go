package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"fablefeed-backend/internal/model"
	"fablefeed-backend/internal/repository"
	"fablefeed-backend/utilities"
)

type QuestionView struct {
	model.Question
	Answered     bool          `json:"answered"`
	LatestAnswer *LatestAnswer `json:"latestAnswer,omitempty"`
}

// LatestAnswer is the user's most recent answer to a question, carried on the
// listing so clients can pre-fill previously answered questions.
type LatestAnswer struct {
	Values      []string  `json:"values"`
	Text        string    `json:"text"`
	RespondedAt time.Time `json:"respondedAt"`
	ResponseID  uint      `json:"responseId"`
}

type SubmitResponseInput struct {
	Answers   []model.AnswerItem
	SessionID string
	Metadata  map[string]any
}

type QuestionService interface {
	// ListActive returns active questions. When the identity is a user, each
	// view carries the user's latest known answer and an Answered flag.
	ListActive(ctx context.Context, identity model.Identity, filter repository.QuestionFilter) ([]QuestionView, error)
	SubmitResponse(ctx context.Context, identity model.Identity, in SubmitResponseInput) (*model.Response, error)
	MyResponses(ctx context.Context, userID uint, limit int) ([]model.Response, error)
}

type questionService struct {
	questionRepo    repository.QuestionRepository
	responseRepo    repository.ResponseRepository
	personalization PersonalizationService
}

func NewQuestionService(
	questionRepo repository.QuestionRepository,
	responseRepo repository.ResponseRepository,
	personalization PersonalizationService,
) QuestionService {
	return &questionService{
		questionRepo:    questionRepo,
		responseRepo:    responseRepo,
		personalization: personalization,
	}
}

func (s *questionService) ListActive(ctx context.Context, identity model.Identity, filter repository.QuestionFilter) ([]QuestionView, error) {
	questions, err := s.questionRepo.ListActive(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	latest := make(map[uint]*LatestAnswer)
	if identity.IsUser() {
		responses, err := s.responseRepo.GetByUser(ctx, identity.UserID(), 0)
		if err != nil {
			return nil, fmt.Errorf("load responses: %w", err)
		}
		// Responses arrive newest first, so the first hit per question wins.
		for _, resp := range responses {
			for _, ans := range resp.Answers {
				if _, seen := latest[ans.QuestionID]; seen {
					continue
				}
				latest[ans.QuestionID] = &LatestAnswer{
					Values:      ans.Values,
					Text:        ans.Text,
					RespondedAt: resp.CreatedAt,
					ResponseID:  resp.ID,
				}
			}
		}
	}

	views := make([]QuestionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, QuestionView{
			Question:     q,
			Answered:     latest[q.ID] != nil,
			LatestAnswer: latest[q.ID],
		})
	}
	return views, nil
}

func (s *questionService) SubmitResponse(ctx context.Context, identity model.Identity, in SubmitResponseInput) (*model.Response, error) {
	if identity.IsZero() {
		return nil, fmt.Errorf("%w: user or guest identity required", ErrUnauthorized)
	}
	if len(in.Answers) == 0 {
		return nil, fmt.Errorf("%w: answers required", ErrInvalidArgument)
	}
	for _, ans := range in.Answers {
		if ans.QuestionID == 0 {
			return nil, fmt.Errorf("%w: answer without question id", ErrInvalidArgument)
		}
	}

	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	metadata := datatypes.JSONMap{}
	for k, v := range in.Metadata {
		metadata[k] = v
	}
	metadata["submittedAt"] = time.Now().UTC().Format(time.RFC3339)

	response := &model.Response{
		SessionID: sessionID,
		Answers:   in.Answers,
		Metadata:  metadata,
	}
	if identity.IsUser() {
		uid := identity.UserID()
		response.UserID = &uid
	} else {
		response.GuestID = identity.Guest()
		metadata["userIdentifier"] = identity.Guest()
	}

	if err := s.responseRepo.Create(ctx, response); err != nil {
		return nil, fmt.Errorf("save response: %w", err)
	}

	// A logged-in submitter picks up the derived tags immediately; for guests
	// the tags are folded in later at merge time.
	if identity.IsUser() {
		if err := s.personalization.AbsorbResponse(ctx, identity.UserID(), *response); err != nil {
			utilities.Error("absorb response %d tags for user %d: %v", response.ID, identity.UserID(), err)
		}
	}
	return response, nil
}

func (s *questionService) MyResponses(ctx context.Context, userID uint, limit int) ([]model.Response, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%w: login required", ErrUnauthorized)
	}
	return s.responseRepo.GetByUser(ctx, userID, limit)
}
