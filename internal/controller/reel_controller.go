package controller

import (
	"github.com/gin-gonic/gin"

	"fablefeed-backend/internal/service"
	"fablefeed-backend/pkg/middleware"
	"fablefeed-backend/utilities"
)

type ReelController struct {
	ReelService service.ReelService
}

func NewReelController(reelService service.ReelService) *ReelController {
	return &ReelController{ReelService: reelService}
}

func (rc *ReelController) Feed(c *gin.Context) {
	identity := middleware.ResolveIdentity(c, c.Query("guest_id"))
	feed, err := rc.ReelService.Feed(c.Request.Context(), identity, intQuery(c, "page", 1), intQuery(c, "per_page", 20))
	if err != nil {
		fail(c, err)
		return
	}
	utilities.OK(c, "reels", feed)
}
