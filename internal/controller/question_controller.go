package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fablefeed-backend/internal/model"
	"fablefeed-backend/internal/repository"
	"fablefeed-backend/internal/service"
	"fablefeed-backend/pkg/middleware"
	"fablefeed-backend/utilities"
)

type QuestionController struct {
	QuestionService service.QuestionService
}

func NewQuestionController(questionService service.QuestionService) *QuestionController {
	return &QuestionController{QuestionService: questionService}
}

func (qc *QuestionController) List(c *gin.Context) {
	identity := middleware.ResolveIdentity(c, c.Query("guest_id"))
	filter := repository.QuestionFilter{
		Section: strings.TrimSpace(c.Query("section")),
		Search:  strings.TrimSpace(c.Query("search")),
	}
	questions, err := qc.QuestionService.ListActive(c.Request.Context(), identity, filter)
	if err != nil {
		fail(c, err)
		return
	}
	utilities.OK(c, "questions", questions)
}

type submitResponseRequest struct {
	Answers         []model.AnswerItem `json:"answers" binding:"required"`
	SessionID       string             `json:"sessionId"`
	Metadata        map[string]any     `json:"metadata"`
	GuestIdentifier string             `json:"guestIdentifier"`
}

// Submit handles POST /questions/responses. Anonymous submitters get a minted
// guest identifier back for later merging.
func (qc *QuestionController) Submit(c *gin.Context) {
	var req submitResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utilities.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	identity, minted := middleware.ResolveOrCreateIdentity(c, req.GuestIdentifier)

	response, err := qc.QuestionService.SubmitResponse(c.Request.Context(), identity, service.SubmitResponseInput{
		Answers:   req.Answers,
		SessionID: req.SessionID,
		Metadata:  req.Metadata,
	})
	if err != nil {
		fail(c, err)
		return
	}

	payload := gin.H{"response": response}
	if minted {
		payload["guestIdentifier"] = identity.Guest()
	}
	utilities.OK(c, "response recorded", payload)
}

func (qc *QuestionController) MyResponses(c *gin.Context) {
	userID, ok := middleware.AuthedUserID(c)
	if !ok {
		utilities.Fail(c, http.StatusUnauthorized, "login required")
		return
	}
	responses, err := qc.QuestionService.MyResponses(c.Request.Context(), userID, intQuery(c, "limit", 0))
	if err != nil {
		fail(c, err)
		return
	}
	utilities.OK(c, "responses", responses)
}
