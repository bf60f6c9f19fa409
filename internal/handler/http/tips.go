package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cypherlabdev/maestro-tips/internal/auth"
	"github.com/cypherlabdev/maestro-tips/internal/models"
)

// voteRequest is the body of POST /tips/:id/vote
type voteRequest struct {
	Type models.VoteType `json:"type"`
}

// listTips handles GET /tips, optionally filtered by ?category=
func (h *Handler) listTips(c *gin.Context) {
	tips := h.deps.Tips.ListTips(c.Request.Context())

	if raw := c.Query("category"); raw != "" {
		category, err := models.ParseCategory(raw)
		if err != nil {
			h.fail(c, err)
			return
		}
		filtered := make([]*models.Tip, 0, len(tips))
		for _, tip := range tips {
			if tip.Category == category {
				filtered = append(filtered, tip)
			}
		}
		tips = filtered
	}

	c.JSON(http.StatusOK, tips)
}

// getTip handles GET /tips/:id
func (h *Handler) getTip(c *gin.Context) {
	tip, err := h.deps.Tips.GetTip(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tip)
}

// createTip handles POST /tips
func (h *Handler) createTip(c *gin.Context) {
	var input models.CreateTipInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	tip, err := h.deps.Tips.CreateTip(c.Request.Context(), auth.ActorFrom(c), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, tip)
}

// voteOnTip handles POST /tips/:id/vote
func (h *Handler) voteOnTip(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	votes, err := h.deps.Tips.VoteOnTip(c.Request.Context(), c.Param("id"), req.Type)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, votes)
}

// settleTip handles POST /tips/:id/settle
func (h *Handler) settleTip(c *gin.Context) {
	var input models.SettleTipInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	tip, err := h.deps.Tips.SettleTip(c.Request.Context(), auth.ActorFrom(c), c.Param("id"), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tip)
}

// deleteTip handles DELETE /tips/:id. Deleting a missing tip succeeds.
func (h *Handler) deleteTip(c *gin.Context) {
	if err := h.deps.Tips.DeleteTip(c.Request.Context(), auth.ActorFrom(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// checkResult handles POST /tips/:id/ai-check
func (h *Handler) checkResult(c *gin.Context) {
	suggestion, err := h.deps.Advisor.CheckResult(c.Request.Context(), auth.ActorFrom(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, suggestion)
}

// getSuggestion handles GET /tips/:id/suggestion
func (h *Handler) getSuggestion(c *gin.Context) {
	suggestion, err := h.deps.Advisor.GetSuggestion(c.Request.Context(), auth.ActorFrom(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, suggestion)
}

// globalStats handles GET /stats
func (h *Handler) globalStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.Stats.Global(c.Request.Context()))
}

// statsBoard handles GET /stats/board
func (h *Handler) statsBoard(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.Stats.Board(c.Request.Context()))
}

// categoryStats handles GET /stats/:category
func (h *Handler) categoryStats(c *gin.Context) {
	stats, err := h.deps.Stats.Partition(c.Request.Context(), models.Category(c.Param("category")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// draftAnalysis handles POST /ai/analysis
func (h *Handler) draftAnalysis(c *gin.Context) {
	var req models.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	text, err := h.deps.Advisor.DraftAnalysis(c.Request.Context(), auth.ActorFrom(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analysis": text})
}
