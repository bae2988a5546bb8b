package handler

import (
	"net/http"

	"anoa.com/studentms/internal/modules/staff/dto"
	staff "anoa.com/studentms/internal/modules/staff/service"
	commonDto "anoa.com/studentms/pkg/dto"
	"anoa.com/studentms/pkg/response"
	"anoa.com/studentms/pkg/validator"
	"github.com/gin-gonic/gin"
)

type StaffHandler struct {
	service staff.StaffService
}

func NewStaffHandler(service staff.StaffService) *StaffHandler {
	return &StaffHandler{service: service}
}

func (h *StaffHandler) ListStaff(c *gin.Context) {
	var filter dto.StaffFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.service.ListStaff(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *StaffHandler) GetStaff(c *gin.Context) {
	var req commonDto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid staff id"})
		return
	}

	profile, err := h.service.GetStaff(c.Request.Context(), req.ID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *StaffHandler) UpdateStaff(c *gin.Context) {
	var req commonDto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid staff id"})
		return
	}

	var input dto.UpdateStaffInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	var photo *commonDto.PhotoFile
	if fileHeader, err := c.FormFile("photo"); err == nil && fileHeader != nil {
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read photo"})
			return
		}
		defer file.Close()

		photo = &commonDto.PhotoFile{
			Reader:   file,
			FileName: fileHeader.Filename,
		}
	}

	profile, err := h.service.UpdateProfile(c.Request.Context(), req.ID, input, photo)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *StaffHandler) AssignSubjects(c *gin.Context) {
	var req commonDto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid staff id"})
		return
	}

	var input dto.AssignSubjectsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	profile, err := h.service.AssignSubjects(c.Request.Context(), req.ID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
