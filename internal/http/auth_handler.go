package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"arcade-auth/internal/github"
	"arcade-auth/internal/service"
)

// AuthHandler mantiene dependencias para los endpoints de login.
type AuthHandler struct {
	logger   *zap.Logger
	authServ *service.AuthService
}

// NewAuthHandler crea una instancia de AuthHandler con dependencias necesarias.
func NewAuthHandler(logger *zap.Logger, authServ *service.AuthService) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		authServ: authServ,
	}
}

// Login maneja POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.authServ.LoginByCode(c.Request.Context(), req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCode):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid authorization code"})
			return
		case errors.Is(err, github.ErrConfigMissing):
			h.logger.Error("oauth credentials missing", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "service misconfigured"})
			return
		case errors.Is(err, github.ErrUpstreamTimeout):
			h.logger.Warn("oauth provider timeout", zap.Error(err))
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "oauth provider timeout"})
			return
		case errors.Is(err, github.ErrUpstream), errors.Is(err, service.ErrInvalidEmail):
			h.logger.Warn("oauth provider error", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "oauth provider error"})
			return
		default:
			h.logger.Error("login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not login"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Session maneja POST /auth/session: resume por identity hash. Un miss
// responde 200 con el registro centinela vacío, no 404.
func (h *AuthHandler) Session(c *gin.Context) {
	var req struct {
		Hash string `json:"hash" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid session request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.authServ.LoginByHash(c.Request.Context(), req.Hash)
	if err != nil {
		h.logger.Error("session lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resume session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
