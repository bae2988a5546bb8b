package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	accountIDKey = "account_id"
	accountKey   = "account"
)

// AccountLookup loads an account with its role profile.
type AccountLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)
}

type AuthMiddleware struct {
	accounts AccountLookup
	secret   string
}

func NewAuthMiddleware(accounts AccountLookup, secret string) *AuthMiddleware {
	return &AuthMiddleware{
		accounts: accounts,
		secret:   secret,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")

		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		// Browsers cannot set headers on a websocket handshake.
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			c.Abort()
			return
		}
		token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(m.secret), nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(*jwt.RegisteredClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			c.Abort()
			return
		}

		c.Set(accountIDKey, claims.Subject)
		c.Next()
	}
}

// RequireRole loads the authenticated account and lets it through only when
// it is active and holds one of roles.
func (m *AuthMiddleware) RequireRole(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, exists := c.Get(accountIDKey)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "account not authenticated"})
			c.Abort()
			return
		}

		id, err := uuid.Parse(accountID.(string))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token subject"})
			c.Abort()
			return
		}

		account, err := m.accounts.FindByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "account not found"})
			c.Abort()
			return
		}

		if !account.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "account is disabled"})
			c.Abort()
			return
		}

		if !hasRole(account.Role, roles) {
			c.JSON(http.StatusForbidden, gin.H{"error": fmt.Sprintf("%s access required", joinRoles(roles))})
			c.Abort()
			return
		}

		c.Set(accountKey, account)
		c.Set("role", string(account.Role))
		c.Next()
	}
}

// CurrentAccount returns the account stored by RequireRole.
func CurrentAccount(c *gin.Context) (*entity.Account, error) {
	value, exists := c.Get(accountKey)
	if !exists {
		return nil, apperror.ErrUnauthorized
	}
	account, ok := value.(*entity.Account)
	if !ok {
		return nil, apperror.ErrUnauthorized
	}
	return account, nil
}

// CurrentOwner returns the student or staff profile of the current account.
func CurrentOwner(c *gin.Context) (entity.Owner, error) {
	account, err := CurrentAccount(c)
	if err != nil {
		return entity.Owner{}, err
	}
	owner, ok := entity.OwnerOf(account)
	if !ok {
		return entity.Owner{}, apperror.ErrForbidden
	}
	return owner, nil
}

func hasRole(role entity.Role, allowed []entity.Role) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

func joinRoles(roles []entity.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, " or ")
}
