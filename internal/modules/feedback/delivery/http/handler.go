package handler

import (
	"net/http"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/internal/middleware"
	"anoa.com/studentms/internal/modules/feedback/dto"
	feedback "anoa.com/studentms/internal/modules/feedback/service"
	"anoa.com/studentms/pkg/response"
	"anoa.com/studentms/pkg/validator"
	"github.com/gin-gonic/gin"
)

type FeedbackHandler struct {
	service feedback.FeedbackService
}

func NewFeedbackHandler(service feedback.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: service}
}

func (h *FeedbackHandler) SubmitFeedback(c *gin.Context) {
	owner, err := middleware.CurrentOwner(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.SubmitFeedbackInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.service.Submit(c.Request.Context(), owner, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *FeedbackHandler) MyFeedback(c *gin.Context) {
	owner, err := middleware.CurrentOwner(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var filter dto.FeedbackFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.service.ListMine(c.Request.Context(), owner, filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *FeedbackHandler) ListFeedback(c *gin.Context) {
	var req dto.KindRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	var filter dto.FeedbackFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.service.ListAll(c.Request.Context(), entity.Kind(req.Kind), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *FeedbackHandler) ReplyFeedback(c *gin.Context) {
	var req dto.KindIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	var input dto.ReplyFeedbackInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	if err := h.service.Reply(c.Request.Context(), entity.Kind(req.Kind), req.ID, input); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reply saved"})
}
