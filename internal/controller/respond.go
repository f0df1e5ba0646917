package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fablefeed-backend/internal/service"
	"fablefeed-backend/utilities"
)

// fail maps service sentinel errors onto HTTP statuses; anything unmapped is
// logged and reported as a 500 without leaking internals.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		utilities.Fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		utilities.Fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrNotFound):
		utilities.Fail(c, http.StatusNotFound, err.Error())
	default:
		utilities.Error("request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		utilities.Fail(c, http.StatusInternalServerError, "internal server error")
	}
}
