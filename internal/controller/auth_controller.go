package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fablefeed-backend/internal/service"
	"fablefeed-backend/utilities"
)

type AuthController struct {
	AuthService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

type registerRequest struct {
	FullName        string `json:"fullName" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Phone           string `json:"phone"`
	Password        string `json:"password" binding:"required,min=6"`
	GuestIdentifier string `json:"guestIdentifier"`
}

func (ac *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utilities.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	user, err := ac.AuthService.Register(c.Request.Context(), service.RegisterInput{
		FullName:        req.FullName,
		Email:           req.Email,
		Phone:           req.Phone,
		Password:        req.Password,
		GuestIdentifier: req.GuestIdentifier,
	})
	if err != nil {
		fail(c, err)
		return
	}
	utilities.OK(c, "registered", user)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utilities.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	result, err := ac.AuthService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	utilities.OK(c, "logged in", gin.H{
		"user":         result.User,
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func (ac *AuthController) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utilities.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	access, refresh, err := ac.AuthService.Refresh(req.RefreshToken)
	if err != nil {
		fail(c, err)
		return
	}
	utilities.OK(c, "token refreshed", gin.H{
		"accessToken":  access,
		"refreshToken": refresh,
	})
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (ac *AuthController) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utilities.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := ac.AuthService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		fail(c, err)
		return
	}
	utilities.OK(c, "reset code sent", nil)
}

type resetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

func (ac *AuthController) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utilities.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := ac.AuthService.ResetPassword(c.Request.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		fail(c, err)
		return
	}
	utilities.OK(c, "password updated", nil)
}
