package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tverdin/carrental/internal/service/feedback"
)

type FeedbackHandler struct {
	service feedback.FeedbackUseCase
}

type submitFeedbackRequest struct {
	Comment string `json:"comment"`
}

func NewFeedbackHandler(service feedback.FeedbackUseCase) *FeedbackHandler {
	return &FeedbackHandler{service: service}
}

func (h *FeedbackHandler) Register(router *gin.RouterGroup) {
	router.POST("/feedback", h.submit)
	router.GET("/feedback", h.list)
}

func (h *FeedbackHandler) submit(c *gin.Context) {
	var req submitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	fb, err := h.service.Submit(c.Request.Context(), user.ID, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "feedback submitted successfully", "feedback_id": fb.ID})
}

func (h *FeedbackHandler) list(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": items})
}
