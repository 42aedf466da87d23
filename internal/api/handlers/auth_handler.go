package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arogyalabs/bitebot/internal/services"
	"github.com/arogyalabs/bitebot/internal/utils"
)

type AuthHandler struct {
	auth services.AuthService
}

func NewAuthHandler(auth services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var creds services.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AuthHandler.Register", "invalid request body", err))
		return
	}

	res, err := h.auth.Register(c.Request.Context(), creds)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var creds services.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AuthHandler.Login", "invalid request body", err))
		return
	}

	res, err := h.auth.Login(c.Request.Context(), creds)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
