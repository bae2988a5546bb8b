package handler

import (
	"net/http"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/internal/middleware"
	"anoa.com/studentms/internal/modules/result/dto"
	result "anoa.com/studentms/internal/modules/result/service"
	"anoa.com/studentms/pkg/apperror"
	commonDto "anoa.com/studentms/pkg/dto"
	"anoa.com/studentms/pkg/response"
	"anoa.com/studentms/pkg/validator"
	"github.com/gin-gonic/gin"
)

type ResultHandler struct {
	service result.ResultService
}

func NewResultHandler(service result.ResultService) *ResultHandler {
	return &ResultHandler{service: service}
}

func (h *ResultHandler) UpsertResult(c *gin.Context) {
	staffID, err := staffProfileID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.UpsertResultInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.service.Upsert(c.Request.Context(), staffID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ResultHandler) ListBySubject(c *gin.Context) {
	var req dto.SubjectRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subject id"})
		return
	}

	res, err := h.service.ListBySubject(c.Request.Context(), req.SubjectID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": res})
}

func (h *ResultHandler) MyResults(c *gin.Context) {
	account, err := middleware.CurrentAccount(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	if account.Student == nil {
		response.ResponseError(c, apperror.ErrForbidden)
		return
	}

	res, err := h.service.ListByStudent(c.Request.Context(), account.Student.ID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": res})
}

func (h *ResultHandler) DeleteResult(c *gin.Context) {
	staffID, err := staffProfileID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req commonDto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid result id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), staffID, req.ID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "result deleted"})
}

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
