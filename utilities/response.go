package utilities

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the uniform wire shape every endpoint answers with.
type Envelope struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// OK writes a success envelope.
func OK(c *gin.Context, message string, data interface{}) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(http.StatusOK, Envelope{Status: true, Message: message, Data: data})
}

// Fail writes a failure envelope with the given HTTP status.
func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Status: false, Message: message, Data: gin.H{}})
}
