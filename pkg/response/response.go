// Package response renders the envelope every HTTP handler replies with.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope wraps every payload; Code mirrors the HTTP status so clients
// can switch on the body alone.
type Envelope struct {
	Code int         `json:"code"`
	Data interface{} `json:"data"`
	Msg  string      `json:"msg"`
}

func Success(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, data, "")
}

func SuccessWithMsg(c *gin.Context, data interface{}, msg string) {
	write(c, http.StatusOK, data, msg)
}

func Error(c *gin.Context, status int, msg string) {
	write(c, status, nil, msg)
}

func write(c *gin.Context, status int, data interface{}, msg string) {
	if data == nil {
		// Keep Data an object, never null, so clients can index into it.
		data = gin.H{}
	}
	c.JSON(status, Envelope{Code: status, Data: data, Msg: msg})
}
