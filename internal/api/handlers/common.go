package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/arogyalabs/bitebot/internal/utils"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{
			Code:    ae.Code,
			Message: ae.Message,
		})
		return
	}

	c.JSON(status, APIError{
		Code:    utils.CodeInternal,
		Message: http.StatusText(status),
	})
}

func requireUserID(c *gin.Context) (string, bool) {
	if v, ok := c.Get("user_id"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}

	writeError(c, utils.E(utils.CodeUnauthorized, "Auth", "unauthorized", nil))
	return "", false
}

// clientSessionID identifies the browser session for anonymous chat state.
// It is minted on first contact and echoed back so the frontend can keep
// sending it.
func clientSessionID(c *gin.Context, fromBody string) string {
	sid := fromBody
	if sid == "" {
		sid = c.GetHeader("X-Session-Id")
	}
	if sid == "" {
		sid = uuid.NewString()
	}
	c.Header("X-Session-Id", sid)
	return sid
}
