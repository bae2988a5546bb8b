package handler

import (
	"net/http"

	"anoa.com/studentms/internal/modules/account/dto"
	account "anoa.com/studentms/internal/modules/account/service"
	"anoa.com/studentms/pkg/response"
	"anoa.com/studentms/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AccountHandler struct {
	service account.AccountService
}

func NewAccountHandler(service account.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

func (h *AccountHandler) Login(c *gin.Context) {
	var input dto.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.service.Login(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AccountHandler) Me(c *gin.Context) {
	accountID, err := response.GetAccountID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	acc, err := h.service.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, acc)
}

func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var input dto.CreateAccountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	acc, err := h.service.CreateAccount(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, acc)
}

func (h *AccountHandler) ListAccounts(c *gin.Context) {
	var filter dto.AccountFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.service.ListAccounts(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AccountHandler) GetAccount(c *gin.Context) {
	id, ok := bindAccountID(c)
	if !ok {
		return
	}

	acc, err := h.service.GetAccount(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, acc)
}

func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	id, ok := bindAccountID(c)
	if !ok {
		return
	}

	var input dto.UpdateAccountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	acc, err := h.service.UpdateAccount(c.Request.Context(), id, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, acc)
}

func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	id, ok := bindAccountID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteAccount(c.Request.Context(), id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "account deleted successfully"})
}

func bindAccountID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.AccountIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return uuid.Nil, false
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid format"})
		return uuid.Nil, false
	}
	return id, true
}
