package handler

import (
	"net/http"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/internal/middleware"
	"anoa.com/studentms/internal/modules/leave/dto"
	leave "anoa.com/studentms/internal/modules/leave/service"
	"anoa.com/studentms/pkg/response"
	"anoa.com/studentms/pkg/validator"
	"github.com/gin-gonic/gin"
)

type LeaveHandler struct {
	service leave.LeaveService
}

func NewLeaveHandler(service leave.LeaveService) *LeaveHandler {
	return &LeaveHandler{service: service}
}

func (h *LeaveHandler) ApplyLeave(c *gin.Context) {
	owner, err := middleware.CurrentOwner(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.ApplyLeaveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.service.Apply(c.Request.Context(), owner, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *LeaveHandler) MyLeaves(c *gin.Context) {
	owner, err := middleware.CurrentOwner(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var filter dto.LeaveFilter
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

func (h *LeaveHandler) ListLeaves(c *gin.Context) {
	var req dto.KindRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	var filter dto.LeaveFilter
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

func (h *LeaveHandler) DecideLeave(c *gin.Context) {
	var req dto.KindIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	var input dto.DecideLeaveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	if err := h.service.Decide(c.Request.Context(), entity.Kind(req.Kind), req.ID, input); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "leave " + input.Status})
}
