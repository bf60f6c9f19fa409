package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cypherlabdev/maestro-tips/internal/auth"
	"github.com/cypherlabdev/maestro-tips/internal/models"
)

// listNews handles GET /news
func (h *Handler) listNews(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.News.ListNews(c.Request.Context()))
}

// createNews handles POST /news
func (h *Handler) createNews(c *gin.Context) {
	var input models.CreateNewsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	post, err := h.deps.News.CreateNews(c.Request.Context(), auth.ActorFrom(c), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// deleteNews handles DELETE /news/:id
func (h *Handler) deleteNews(c *gin.Context) {
	if err := h.deps.News.DeleteNews(c.Request.Context(), auth.ActorFrom(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// listMessages handles GET /messages
func (h *Handler) listMessages(c *gin.Context) {
	msgs, err := h.deps.Messages.ListMessages(c.Request.Context(), auth.ActorFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// sendMessage handles POST /messages
func (h *Handler) sendMessage(c *gin.Context) {
	var input models.CreateMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	msg, err := h.deps.Messages.SendMessage(c.Request.Context(), auth.ActorFrom(c), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// replyToMessage handles POST /messages/:id/reply
func (h *Handler) replyToMessage(c *gin.Context) {
	var input models.ReplyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	msg, err := h.deps.Messages.Reply(c.Request.Context(), auth.ActorFrom(c), c.Param("id"), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}
