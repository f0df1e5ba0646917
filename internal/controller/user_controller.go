package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fablefeed-backend/internal/service"
	"fablefeed-backend/pkg/middleware"
	"fablefeed-backend/utilities"
)

type UserController struct {
	UserService     service.UserService
	Personalization service.PersonalizationService
}

func NewUserController(userService service.UserService, personalization service.PersonalizationService) *UserController {
	return &UserController{UserService: userService, Personalization: personalization}
}

func (uc *UserController) Profile(c *gin.Context) {
	userID, ok := middleware.AuthedUserID(c)
	if !ok {
		utilities.Fail(c, http.StatusUnauthorized, "login required")
		return
	}
	user, err := uc.UserService.Profile(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	utilities.OK(c, "profile", user)
}

type updateProfileRequest struct {
	FullName      *string `json:"fullName"`
	Phone         *string `json:"phone"`
	ProfilePic    *string `json:"profilePic"`
	FirebaseToken *string `json:"firebaseToken"`
}

func (uc *UserController) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.AuthedUserID(c)
	if !ok {
		utilities.Fail(c, http.StatusUnauthorized, "login required")
		return
	}
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utilities.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	user, err := uc.UserService.UpdateProfile(c.Request.Context(), userID, service.UpdateProfileInput{
		FullName:      req.FullName,
		Phone:         req.Phone,
		ProfilePic:    req.ProfilePic,
		FirebaseToken: req.FirebaseToken,
	})
	if err != nil {
		fail(c, err)
		return
	}
	utilities.OK(c, "profile updated", user)
}

func (uc *UserController) ChosenTags(c *gin.Context) {
	userID, ok := middleware.AuthedUserID(c)
	if !ok {
		utilities.Fail(c, http.StatusUnauthorized, "login required")
		return
	}
	names, err := uc.UserService.ChosenTags(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	utilities.OK(c, "chosen tags", gin.H{"tags": names})
}

type mergeGuestRequest struct {
	GuestIdentifier string `json:"guestIdentifier" binding:"required"`
}

// MergeGuest lets an already registered user adopt history recorded before
// they logged in on this device.
func (uc *UserController) MergeGuest(c *gin.Context) {
	userID, ok := middleware.AuthedUserID(c)
	if !ok {
		utilities.Fail(c, http.StatusUnauthorized, "login required")
		return
	}
	var req mergeGuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utilities.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := uc.Personalization.MergeGuestHistory(c.Request.Context(), userID, req.GuestIdentifier); err != nil {
		fail(c, err)
		return
	}
	utilities.OK(c, "guest history merged", nil)
}
