package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"coursemart/internal/apierr"
	"coursemart/internal/logger"
	"coursemart/internal/services"
	"coursemart/internal/types"
)

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		log:         log.With("handler", "AuthHandler"),
		authService: authService,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var body struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondWithError(c, h.log, apierr.ValidationError{"detail": "malformed JSON body"})
		return
	}
	user := &types.User{
		Email:     body.Email,
		Password:  body.Password,
		FirstName: body.FirstName,
		LastName:  body.LastName,
	}
	created, err := h.authService.RegisterUser(c.Request.Context(), user)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondCreated(c, gin.H{"id": created.ID, "email": created.Email})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondWithError(c, h.log, apierr.ValidationError{"detail": "malformed JSON body"})
		return
	}
	access, refresh, err := h.authService.LoginUser(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"access_token": access, "refresh_token": refresh})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.RefreshToken == "" {
		RespondWithError(c, h.log, apierr.ValidationError{"refresh_token": "refresh_token is required"})
		return
	}
	access, refresh, err := h.authService.RefreshUser(c.Request.Context(), body.RefreshToken)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"access_token": access, "refresh_token": refresh})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.LogoutUser(c.Request.Context()); err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
