package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"arcade-auth/internal/domain"
	"arcade-auth/internal/service"
)

// UserHandler mantiene dependencias para endpoints CRUD de usuarios.
type UserHandler struct {
	logger   *zap.Logger
	authServ *service.AuthService
}

// NewUserHandler crea una instancia de UserHandler con dependencias necesarias.
func NewUserHandler(logger *zap.Logger, authServ *service.AuthService) *UserHandler {
	return &UserHandler{
		logger:   logger,
		authServ: authServ,
	}
}

type userRecordRequest struct {
	IdentityHash string             `json:"identity_hash" binding:"required"`
	Profile      domain.UserProfile `json:"profile" binding:"required"`
	Progress     json.RawMessage    `json:"progress"`
}

func (r userRecordRequest) toRecord() domain.UserRecord {
	return domain.UserRecord{
		IdentityHash: r.IdentityHash,
		Profile:      r.Profile,
		Progress:     r.Progress,
	}
}

// List maneja GET /users.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.authServ.ListUsers(c.Request.Context())
	if err != nil {
		h.logger.Error("list users failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list users"})
		return
	}
	if users == nil {
		users = []domain.UserRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// Save maneja POST /users: persistencia explícita de un registro nuevo.
func (h *UserHandler) Save(c *gin.Context) {
	var req userRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid save user request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.authServ.SaveUser(c.Request.Context(), req.toRecord())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserExists):
			c.JSON(http.StatusConflict, gin.H{"error": "user already exists"})
			return
		case errors.Is(err, service.ErrInvalidEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email"})
			return
		default:
			h.logger.Error("save user failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save user"})
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// Update maneja PUT /users: reemplazo del registro del email.
func (h *UserHandler) Update(c *gin.Context) {
	var req userRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update user request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.authServ.UpdateUser(c.Request.Context(), req.toRecord())
	if err != nil {
		if errors.Is(err, service.ErrInvalidEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email"})
			return
		}
		h.logger.Error("update user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Delete maneja DELETE /users/:email.
func (h *UserHandler) Delete(c *gin.Context) {
	removed, err := h.authServ.DeleteUser(c.Request.Context(), c.Param("email"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email"})
			return
		}
		h.logger.Error("delete user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
