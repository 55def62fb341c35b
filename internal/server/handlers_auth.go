package server

import (
	"errors"
	"net/http"

	"github.com/MarcoPoloResearchLab/clipstore/internal/auth"
	"github.com/MarcoPoloResearchLab/clipstore/internal/catalog"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type registerRequestPayload struct {
	Username    string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"omitempty,max=64"`
}

type loginRequestPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponsePayload struct {
	AccessToken string       `json:"access_token"`
	ExpiresIn   int64        `json:"expires_in"`
	TokenType   string       `json:"token_type"`
	User        catalog.User `json:"user"`
}

func (h *httpHandler) handleRegister(c *gin.Context) {
	var request registerRequestPayload
	if !bindPayload(c, &request) {
		return
	}

	hash, err := h.passwords.Hash(request.Password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "weak_password"})
			return
		}
		h.respondError(c, err)
		return
	}

	user, err := h.catalog.CreateUser(catalog.NewUser{
		Username:     request.Username,
		PasswordHash: hash,
		DisplayName:  request.DisplayName,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusCreated, user)
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var request loginRequestPayload
	if !bindPayload(c, &request) {
		return
	}

	user, err := h.catalog.GetUserByUsername(request.Username)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
			return
		}
		h.respondError(c, err)
		return
	}
	if err := h.passwords.Compare(user.PasswordHash, request.Password); err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			h.logger.Error("password comparison failed", zap.Error(err), zap.String("request_id", requestIDFrom(c)))
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
		return
	}
	h.respondWithToken(c, http.StatusOK, user)
}

func (h *httpHandler) respondWithToken(c *gin.Context, status int, user catalog.User) {
	token, expiresIn, err := h.tokens.IssueToken(auth.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	})
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err), zap.String("request_id", requestIDFrom(c)))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}
	c.JSON(status, authResponsePayload{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
		User:        user,
	})
}
