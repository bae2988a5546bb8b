package handler

import (
	"net/http"

	"anoa.com/studentms/internal/modules/catalog/dto"
	catalog "anoa.com/studentms/internal/modules/catalog/service"
	commonDto "anoa.com/studentms/pkg/dto"
	"anoa.com/studentms/pkg/response"
	"anoa.com/studentms/pkg/validator"
	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	service catalog.CatalogService
}

func NewCatalogHandler(service catalog.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func bindID(c *gin.Context) (uint, bool) {
	var req commonDto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return req.ID, true
}

func (h *CatalogHandler) CreateCourse(c *gin.Context) {
	var input dto.CourseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	course, err := h.service.CreateCourse(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

func (h *CatalogHandler) UpdateCourse(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var input dto.CourseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	course, err := h.service.UpdateCourse(c.Request.Context(), id, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *CatalogHandler) GetCourse(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	course, err := h.service.GetCourse(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *CatalogHandler) ListCourses(c *gin.Context) {
	courses, err := h.service.ListCourses(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": courses})
}

func (h *CatalogHandler) DeleteCourse(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteCourse(c.Request.Context(), id); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "course deleted successfully"})
}

func (h *CatalogHandler) CreateSubject(c *gin.Context) {
	var input dto.SubjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	subject, err := h.service.CreateSubject(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, subject)
}

func (h *CatalogHandler) UpdateSubject(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var input dto.SubjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	subject, err := h.service.UpdateSubject(c.Request.Context(), id, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, subject)
}

func (h *CatalogHandler) GetSubject(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	subject, err := h.service.GetSubject(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, subject)
}

func (h *CatalogHandler) ListSubjects(c *gin.Context) {
	var filter dto.SubjectFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	subjects, err := h.service.ListSubjects(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": subjects})
}

func (h *CatalogHandler) DeleteSubject(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteSubject(c.Request.Context(), id); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "subject deleted successfully"})
}

func (h *CatalogHandler) CreateSessionPeriod(c *gin.Context) {
	var input dto.SessionPeriodInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	period, err := h.service.CreateSessionPeriod(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, period)
}

func (h *CatalogHandler) UpdateSessionPeriod(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var input dto.SessionPeriodInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	period, err := h.service.UpdateSessionPeriod(c.Request.Context(), id, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, period)
}

func (h *CatalogHandler) GetSessionPeriod(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	period, err := h.service.GetSessionPeriod(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, period)
}

func (h *CatalogHandler) ListSessionPeriods(c *gin.Context) {
	periods, err := h.service.ListSessionPeriods(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": periods})
}

func (h *CatalogHandler) DeleteSessionPeriod(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteSessionPeriod(c.Request.Context(), id); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session period deleted successfully"})
}
