package http

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/ac-tresor/dossiers/internal/domain/errs"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// Login handles POST /api/auth/login
func (h *handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.services.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if h.metrics != nil {
		status := "success"
		if err != nil {
			status = "failure"
			if !errors.Is(err, errs.ErrUnauthenticated) {
				status = "error"
			}
		}
		h.metrics.ObserveLogin(status)
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, gin.H{
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"user":       result.User,
	})
}

// Me handles GET /api/auth/me
func (h *handlers) Me(c *gin.Context) {
	user, err := h.services.Auth.Me(c.Request.Context(), h.principal(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"user": user})
}

// ChangePassword handles PUT /api/auth/password
func (h *handlers) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	if err := h.services.Auth.ChangePassword(c.Request.Context(), h.principal(c), req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"updated": true})
}
