package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arogyalabs/bitebot/internal/services"
	"github.com/arogyalabs/bitebot/internal/utils"
)

// DashboardHandler serves the doctor dashboard. Responses keep the
// {"success": bool, ...} envelope the dashboard frontend expects.
type DashboardHandler struct {
	escalation services.EscalationService
}

func NewDashboardHandler(escalation services.EscalationService) *DashboardHandler {
	return &DashboardHandler{escalation: escalation}
}

func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.escalation.DailyStats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *DashboardHandler) UnansweredQuestions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	pending, err := h.escalation.PendingQuestions(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "questions": pending, "total": len(pending)})
}

type SubmitAnswerRequest struct {
	Question string `json:"question" binding:"required"`
	Answer   string `json:"answer" binding:"required"`
}

func (h *DashboardHandler) SubmitAnswer(c *gin.Context) {
	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "DashboardHandler.SubmitAnswer", "question and answer are required", err))
		return
	}

	if err := h.escalation.SubmitAnswer(c.Request.Context(), req.Question, req.Answer); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Answer submitted successfully"})
}

func (h *DashboardHandler) AddQA(c *gin.Context) {
	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "DashboardHandler.AddQA", "question and answer are required", err))
		return
	}

	if err := h.escalation.AddQA(c.Request.Context(), req.Question, req.Answer); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Q&A pair added successfully"})
}

func (h *DashboardHandler) UserQueries(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "100"), 10, 64)

	rows, err := h.escalation.UserQueries(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "queries": rows, "total": len(rows)})
}

func (h *DashboardHandler) SolvedQuestions(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "100"), 10, 64)

	rows, err := h.escalation.SolvedQuestions(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "questions": rows, "total": len(rows)})
}

type UpdateSolvedRequest struct {
	ID       string `json:"id" binding:"required"`
	Question string `json:"question" binding:"required"`
	Answer   string `json:"answer" binding:"required"`
}

func (h *DashboardHandler) UpdateSolvedQuestion(c *gin.Context) {
	var req UpdateSolvedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "DashboardHandler.UpdateSolvedQuestion", "id, question, and answer are required", err))
		return
	}

	if err := h.escalation.UpdateSolved(c.Request.Context(), req.ID, req.Question, req.Answer); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Question updated successfully"})
}

type DeleteSolvedRequest struct {
	ID string `json:"id" binding:"required"`
}

func (h *DashboardHandler) DeleteSolvedQuestion(c *gin.Context) {
	var req DeleteSolvedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "DashboardHandler.DeleteSolvedQuestion", "id is required", err))
		return
	}

	if err := h.escalation.DeleteSolved(c.Request.Context(), req.ID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Question deleted successfully"})
}
