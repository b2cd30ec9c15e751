package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"contact-keeper/internal/auth"
	"contact-keeper/internal/domain"
	"contact-keeper/internal/service"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required" msg:"please add name"`
	Email    string `json:"email" binding:"required,email" msg:"please include a valid email"`
	Password string `json:"password" binding:"required,min=6" msg:"please enter a password with 6 or more characters" redact:"true"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email" msg:"please include a valid email"`
	Password string `json:"password" binding:"required" msg:"password is required" redact:"true"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Date  string `json:"date"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondToken(c, user)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondToken(c, user)
}

func (h *Handler) currentUser(c *gin.Context) {
	userID, ok := h.authorize(c)
	if !ok {
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		// A signed token for a user that no longer exists is no credential.
		if errors.Is(err, service.ErrUserNotFound) {
			err = auth.ErrInvalidToken
		}
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Date:  user.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) respondToken(c *gin.Context, user *domain.User) {
	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, TokenResponse{Token: token})
}
