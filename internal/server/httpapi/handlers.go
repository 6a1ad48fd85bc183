package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/server/models"
	"github.com/gin-gonic/gin"
)

const minPasswordLength = 6

// respondError sends the unified error payload {"error": {"code", "message"}}.
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

// respondServiceError maps service sentinels onto HTTP statuses. Anything
// unrecognized is treated as a backing-store fault and reported as 503
// without leaking the underlying error to the client.
func (s *Server) respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrEmailAlreadyExists):
		respondError(c, http.StatusBadRequest, "EMAIL_ALREADY_EXISTS", err.Error())
	case errors.Is(err, common.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error())
	case errors.Is(err, common.ErrInvalidRefreshToken):
		respondError(c, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", err.Error())
	case errors.Is(err, common.ErrSessionNotFound):
		respondError(c, http.StatusUnauthorized, "SESSION_NOT_FOUND", err.Error())
	case errors.Is(err, common.ErrSessionExpired):
		respondError(c, http.StatusUnauthorized, "SESSION_EXPIRED", err.Error())
	case errors.Is(err, common.ErrInvalidResetCode):
		respondError(c, http.StatusBadRequest, "INVALID_RESET_CODE", err.Error())
	case errors.Is(err, common.ErrInvalidVerificationCode):
		respondError(c, http.StatusBadRequest, "INVALID_VERIFICATION_CODE", err.Error())
	default:
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		respondError(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "service temporarily unavailable")
	}
}

type userView struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

func newUserView(u *models.User) userView {
	return userView{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

func (s *Server) handleRegister(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
		return
	}
	if req.Email == "" || len(req.Password) < minPasswordLength {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "email and a password of at least 6 characters are required")
		return
	}

	user, err := s.auth.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": newUserView(user)})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "email and password are required")
		return
	}

	res, err := s.auth.Login(c.Request.Context(), req.Email, req.Password, c.Request.UserAgent())
	if err != nil {
		s.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":         newUserView(res.User),
		"accessToken":  res.AccessToken,
		"refreshToken": res.RefreshToken,
		"mfaRequired":  res.MFARequired,
	})
}

func (s *Server) handleRefresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "refreshToken is required")
		return
	}

	res, err := s.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		s.respondServiceError(c, err)
		return
	}

	body := gin.H{"accessToken": res.AccessToken}
	if res.RefreshToken != "" {
		body["refreshToken"] = res.RefreshToken
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleLogout(c *gin.Context) {
	sessionID := c.GetString(sessionIDKey)
	if sessionID == "" {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing session")
		return
	}

	if err := s.auth.Logout(c.Request.Context(), sessionID); err != nil {
		s.respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) handleForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "email is required")
		return
	}

	// The response is identical for known and unknown addresses.
	if _, err := s.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		s.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "if the account exists, a reset code has been sent"})
}

func (s *Server) handleVerifyResetCode(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Code == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "email and code are required")
		return
	}

	valid, reason, err := s.auth.VerifyResetCode(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		s.respondServiceError(c, err)
		return
	}

	body := gin.H{"valid": valid}
	if !valid {
		body["message"] = reason
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleResetPassword(c *gin.Context) {
	var req struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
		return
	}
	if req.Email == "" || req.Code == "" || len(req.NewPassword) < minPasswordLength {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "email, code and a password of at least 6 characters are required")
		return
	}

	if err := s.auth.ResetPassword(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		s.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

func (s *Server) handleVerifyEmail(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Code == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "email and code are required")
		return
	}

	if err := s.auth.VerifyEmail(c.Request.Context(), req.Email, req.Code); err != nil {
		s.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "email verified"})
}
