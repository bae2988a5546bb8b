package handler

import (
	"net/http"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/internal/middleware"
	"anoa.com/studentms/internal/modules/attendance/dto"
	attendance "anoa.com/studentms/internal/modules/attendance/service"
	"anoa.com/studentms/pkg/apperror"
	commonDto "anoa.com/studentms/pkg/dto"
	"anoa.com/studentms/pkg/response"
	"anoa.com/studentms/pkg/validator"
	"github.com/gin-gonic/gin"
)

type AttendanceHandler struct {
	service attendance.AttendanceService
}

func NewAttendanceHandler(service attendance.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

func (h *AttendanceHandler) TakeAttendance(c *gin.Context) {
	staffID, err := staffProfileID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.TakeAttendanceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.service.Take(c.Request.Context(), staffID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *AttendanceHandler) ListAttendance(c *gin.Context) {
	var filter dto.AttendanceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.service.ListBySubject(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": res})
}

func (h *AttendanceHandler) GetRecords(c *gin.Context) {
	var req commonDto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attendance id"})
		return
	}

	res, err := h.service.Records(c.Request.Context(), req.ID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AttendanceHandler) UpdateRecords(c *gin.Context) {
	staffID, err := staffProfileID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req commonDto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attendance id"})
		return
	}

	var input dto.UpdateRecordsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.service.UpdateRecords(c.Request.Context(), staffID, req.ID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AttendanceHandler) MySummary(c *gin.Context) {
	account, err := middleware.CurrentAccount(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	if account.Student == nil {
		response.ResponseError(c, apperror.ErrForbidden)
		return
	}

	res, err := h.service.StudentSummary(c.Request.Context(), account.Student.ID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": res})
}

// staffProfileID is zero for administrators, who may act on any subject.
func staffProfileID(c *gin.Context) (uint, error) {
	account, err := middleware.CurrentAccount(c)
	if err != nil {
		return 0, err
	}
	switch {
	case account.Role == entity.RoleAdmin:
		return 0, nil
	case account.Staff != nil:
		return account.Staff.ID, nil
	}
	return 0, apperror.ErrForbidden
}
