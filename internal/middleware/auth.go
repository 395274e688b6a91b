package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/config"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/repositories"
)

// Authenticator validates Casdoor-issued bearer tokens and mirrors the
// identity into the local user table.
type Authenticator struct {
	client *casdoorsdk.Client
	users  repositories.UserRepository
	logger *slog.Logger
}

func NewAuthenticator(cfg *config.Config, users repositories.UserRepository, logger *slog.Logger) *Authenticator {
	client := casdoorsdk.NewClient(
		cfg.CasdoorEndpoint,
		cfg.CasdoorClientID,
		cfg.CasdoorClientSecret,
		cfg.CasdoorCertificate,
		cfg.CasdoorOrganization,
		cfg.CasdoorApplication,
	)
	return &Authenticator{client: client, users: users, logger: logger}
}

// Middleware parses the bearer token and stores user_id and user_role in the
// request context.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Missing bearer token",
			})
			return
		}

		claims, err := a.client.ParseJwtToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			a.logger.Warn("token rejected", "error", err, "remote_addr", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid token",
			})
			return
		}

		role := roleFromClaims(claims)
		c.Set("user_id", claims.User.Id)
		c.Set("user_role", string(role))

		a.mirrorUser(claims, role)
		c.Next()
	}
}

// RequireRole gates a route group to the given roles. Admins pass every
// gate.
func (a *Authenticator) RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		current := models.UserRole(c.GetString("user_role"))
		if current == models.RoleAdmin {
			c.Next()
			return
		}
		for _, role := range roles {
			if current == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"message": "Insufficient permissions",
		})
	}
}

func roleFromClaims(claims *casdoorsdk.Claims) models.UserRole {
	if claims.User.IsAdmin {
		return models.RoleAdmin
	}
	switch models.UserRole(claims.User.Tag) {
	case models.RoleTrainer:
		return models.RoleTrainer
	case models.RoleAdmin:
		return models.RoleAdmin
	default:
		return models.RoleStudent
	}
}

// mirrorUser refreshes the local copy of the identity. Best-effort: a failed
// mirror never blocks the request.
func (a *Authenticator) mirrorUser(claims *casdoorsdk.Claims, role models.UserRole) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	user := &models.User{
		ID:    claims.User.Id,
		Name:  claims.User.DisplayName,
		Email: claims.User.Email,
		Role:  role,
	}
	if claims.User.Affiliation != "" {
		affiliation := claims.User.Affiliation
		user.Business = &affiliation
	}
	if err := a.users.Upsert(ctx, user); err != nil {
		a.logger.Warn("failed to mirror user", "user_id", user.ID, "error", err)
	}
}
