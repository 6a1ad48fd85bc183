// Package httpapi exposes the authentication service over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authgate/internal/logging"
	"github.com/dmitrijs2005/authgate/internal/server/models"
	"github.com/dmitrijs2005/authgate/internal/server/services"
	"github.com/gin-gonic/gin"
)

// AuthService defines the authentication behaviour the HTTP layer depends on.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password, userAgent string) (*services.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*services.RefreshResult, error)
	Logout(ctx context.Context, sessionID string) error
	ForgotPassword(ctx context.Context, email string) (*models.VerificationCode, error)
	VerifyResetCode(ctx context.Context, email, code string) (bool, string, error)
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	VerifyEmail(ctx context.Context, email, code string) error
}

type Server struct {
	address           string
	auth              AuthService
	logger            logging.Logger
	accessTokenSecret []byte
}

func NewServer(address string, l logging.Logger, auth AuthService, accessTokenSecret string) *Server {
	return &Server{
		address:           address,
		auth:              auth,
		logger:            l.With("module", "http_server"),
		accessTokenSecret: []byte(accessTokenSecret),
	}
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {

	gin.SetMode(gin.ReleaseMode)

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.newRouter(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) newRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/auth/register", s.handleRegister)
		api.POST("/auth/login", s.handleLogin)
		api.POST("/auth/refresh", s.handleRefresh)
		api.POST("/auth/verify-email", s.handleVerifyEmail)
		api.POST("/auth/password/forgot", s.handleForgotPassword)
		api.POST("/auth/password/verify-reset-code", s.handleVerifyResetCode)
		api.POST("/auth/password/reset-with-code", s.handleResetPassword)
		api.POST("/auth/logout", s.requireAccessToken(), s.handleLogout)
	}

	return r
}
