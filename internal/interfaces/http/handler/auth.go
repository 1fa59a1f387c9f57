package handler

import (
	"github.com/genlab/backend/internal/infrastructure/auth"
	"github.com/genlab/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// AuthHandler serves session endpoints. Tokens are issued by the account
// service; this API only revokes them.
type AuthHandler struct {
	BaseHandler
	blacklist auth.TokenBlacklist
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(blacklist auth.TokenBlacklist) *AuthHandler {
	return &AuthHandler{blacklist: blacklist}
}

// LogoutResponse represents the logout response
type LogoutResponse struct {
	Message string `json:"message" example:"Logged out successfully"`
}

// Logout godoc
// @ID           logout
// @Summary      Logout
// @Description  Revokes the presented access token until it expires
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=LogoutResponse}
// @Failure      401 {object} dto.Response
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	if claims.ID == "" {
		h.Unauthorized(c, "Token cannot be revoked")
		return
	}

	if ttl := claims.RemainingTTL(); ttl > 0 {
		if err := h.blacklist.AddToBlacklist(c.Request.Context(), claims.ID, ttl); err != nil {
			h.HandleDomainError(c, err)
			return
		}
	}

	h.Success(c, LogoutResponse{Message: "Logged out successfully"})
}
