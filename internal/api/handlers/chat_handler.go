package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arogyalabs/bitebot/internal/language"
	"github.com/arogyalabs/bitebot/internal/services"
	"github.com/arogyalabs/bitebot/internal/utils"
)

type ChatHandler struct {
	chat    services.ChatService
	history services.HistoryStore
	prefs   services.LanguagePrefs
}

func NewChatHandler(chat services.ChatService, history services.HistoryStore, prefs services.LanguagePrefs) *ChatHandler {
	return &ChatHandler{chat: chat, history: history, prefs: prefs}
}

type ProcessMessageRequest struct {
	Message   string `json:"message"`
	Language  string `json:"language"`
	SessionID string `json:"session_id"`
	// PersistSessionID links the exchange to a logged-in user's stored
	// session.
	PersistSessionID string `json:"persist_session_id"`
}

type ProcessMessageResponse struct {
	Reply       string              `json:"reply"`
	ChatHistory []services.Exchange `json:"chat_history"`
	SessionID   string              `json:"session_id"`
	Language    string              `json:"language"`
	Forwarded   bool                `json:"forwarded"`
}

func (h *ChatHandler) ProcessMessage(c *gin.Context) {
	var req ProcessMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ChatHandler.ProcessMessage", "invalid request body", err))
		return
	}

	sid := clientSessionID(c, req.SessionID)

	lang := req.Language
	if lang == "" {
		lang = h.prefs.Get(c.Request.Context(), sid)
	}

	resp, err := h.chat.Respond(c.Request.Context(), services.ChatRequest{
		Message:          req.Message,
		Language:         lang,
		ClientSessionID:  sid,
		PersistSessionID: req.PersistSessionID,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	hist, err := h.history.Get(c.Request.Context(), sid)
	if err != nil {
		hist = nil
	}

	c.JSON(http.StatusOK, ProcessMessageResponse{
		Reply:       resp.Reply,
		ChatHistory: hist,
		SessionID:   sid,
		Language:    resp.Language,
		Forwarded:   resp.Forwarded,
	})
}

type SetLanguageRequest struct {
	Language  string `json:"language"`
	SessionID string `json:"session_id"`
}

func (h *ChatHandler) SetLanguage(c *gin.Context) {
	var req SetLanguageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ChatHandler.SetLanguage", "invalid request body", err))
		return
	}

	if !language.IsSupported(req.Language) {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ChatHandler.SetLanguage", "unsupported language", nil))
		return
	}

	sid := clientSessionID(c, req.SessionID)
	if err := h.prefs.Set(c.Request.Context(), sid, req.Language); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "language": req.Language, "session_id": sid})
}

func (h *ChatHandler) GetChatHistory(c *gin.Context) {
	sid := clientSessionID(c, c.Query("session_id"))

	hist, err := h.history.Get(c.Request.Context(), sid)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"chat_history": hist, "session_id": sid})
}
