package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dreamcraft-ai/dreamcraft/internal/auth"
	"github.com/dreamcraft-ai/dreamcraft/internal/common"
	"github.com/dreamcraft-ai/dreamcraft/internal/models"
)

type loginReq struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// deriveName falls back to the local part of the email when no display name
// was given.
func deriveName(email, name string) string {
	name = strings.TrimSpace(name)
	if name != "" {
		return name
	}
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}

// Login creates or reuses the account for an email. This is the stub identity
// mechanism: no email verification, and the password is optional. When an
// account has a password set it is verified; stub accounts stay passwordless.
func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "email required")
		return
	}

	var user models.User
	err := h.DB.Where("email = ?", req.Email).First(&user).Error
	switch {
	case err == nil:
		if user.PasswordHash != "" && !auth.CheckPassword(user.PasswordHash, req.Password) {
			common.Fail(c, http.StatusUnauthorized, 40103, "invalid credentials")
			return
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			Email: req.Email,
			Name:  deriveName(req.Email, req.Name),
		}
		if req.Password != "" {
			hash, hashErr := auth.HashPassword(req.Password)
			if hashErr != nil {
				common.Fail(c, http.StatusInternalServerError, 20002, "failed to hash password")
				return
			}
			user.PasswordHash = hash
		}
		if createErr := h.DB.Create(&user).Error; createErr != nil {
			common.Fail(c, http.StatusInternalServerError, 20001, "failed to create user")
			return
		}
	default:
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}

	token, err := auth.SignJWT(user.ID, h.Cfg.JWTSecret, 24*time.Hour)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20003, "failed to sign token")
		return
	}

	common.OK(c, gin.H{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
		"token": token,
	})
}

// Logout is stateless: the client discards its token. Project records are
// untouched.
func (h *Handler) Logout(c *gin.Context) {
	common.OK(c, nil)
}

func (h *Handler) Me(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var user models.User
	if err := h.DB.First(&user, uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40401, "user not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}

	common.OK(c, gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"name":       user.Name,
		"created_at": user.CreatedAt,
	})
}
