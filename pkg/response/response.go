package response

import (
	"errors"
	"fmt"
	"net/http"

	"anoa.com/studentms/pkg/apperror"
	"anoa.com/studentms/pkg/logger"
	"anoa.com/studentms/pkg/ratelimiter"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetAccountID retrieves the authenticated account ID from the context
func GetAccountID(c *gin.Context) (uuid.UUID, error) {
	accountIDStr, exists := c.Get("account_id")
	if !exists {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	accountID, err := uuid.Parse(accountIDStr.(string))
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	return accountID, nil
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	if code == http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("internal error")
	}

	var rateLimitErr *ratelimiter.RateLimitError
	if errors.As(err, &rateLimitErr) {
		c.Header("Retry-After", fmt.Sprintf("%.0f", rateLimitErr.RetryAfter.Seconds()))
	}

	body := gin.H{"error": err.Error()}
	if field, ok := apperror.FieldOf(err); ok {
		body["field"] = field
	}
	c.JSON(code, body)
}
