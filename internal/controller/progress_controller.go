package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fablefeed-backend/internal/service"
	"fablefeed-backend/pkg/middleware"
	"fablefeed-backend/utilities"
)

type ProgressController struct {
	ProgressService service.ProgressService
	ReportService   service.ReportService
}

func NewProgressController(progressService service.ProgressService, reportService service.ReportService) *ProgressController {
	return &ProgressController{ProgressService: progressService, ReportService: reportService}
}

type recordProgressRequest struct {
	BookID          uint   `json:"bookId" binding:"required"`
	ChapterID       uint   `json:"chapterId" binding:"required"`
	PlayedSeconds   int    `json:"playedSeconds"`
	DurationSeconds int    `json:"durationSeconds"`
	GuestIdentifier string `json:"guestIdentifier"`
}

// Record handles POST /progress. Anonymous callers get a minted guest
// identifier back so subsequent writes land on the same ledger rows.
func (pc *ProgressController) Record(c *gin.Context) {
	var req recordProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utilities.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	identity, minted := middleware.ResolveOrCreateIdentity(c, req.GuestIdentifier)

	rec, err := pc.ProgressService.RecordProgress(
		c.Request.Context(), identity, req.BookID, req.ChapterID, req.PlayedSeconds, req.DurationSeconds)
	if err != nil {
		fail(c, err)
		return
	}

	payload := gin.H{"progress": rec}
	if minted {
		payload["guestIdentifier"] = identity.Guest()
	}
	utilities.OK(c, "progress recorded", payload)
}

func (pc *ProgressController) BookProgress(c *gin.Context) {
	bookID := uintParam(c, "id")
	if bookID == 0 {
		utilities.Fail(c, http.StatusBadRequest, "invalid book id")
		return
	}
	identity := middleware.ResolveIdentity(c, c.Query("guest_id"))
	if identity.IsZero() {
		utilities.Fail(c, http.StatusUnauthorized, "user or guest identity required")
		return
	}
	progress, err := pc.ProgressService.GetBookProgress(c.Request.Context(), identity, bookID)
	if err != nil {
		fail(c, err)
		return
	}
	utilities.OK(c, "book progress", progress)
}

// Report streams the identity's listening history as a PDF.
func (pc *ProgressController) Report(c *gin.Context) {
	identity := middleware.ResolveIdentity(c, c.Query("guest_id"))
	if identity.IsZero() {
		utilities.Fail(c, http.StatusUnauthorized, "user or guest identity required")
		return
	}
	pdf, err := pc.ReportService.ProgressReport(c.Request.Context(), identity)
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="progress_report.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
