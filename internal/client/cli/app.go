// Package cli implements the interactive authgate client.
package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/dmitrijs2005/authgate/internal/client/api"
	"github.com/dmitrijs2005/authgate/internal/client/config"
)

// apiService is the API surface the CLI commands need. *api.Client
// satisfies it; tests provide a stub.
type apiService interface {
	LoggedIn() bool
	Register(ctx context.Context, name, email, password string) (*api.User, error)
	Login(ctx context.Context, email, password string) (*api.User, error)
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
	ForgotPassword(ctx context.Context, email string) error
	VerifyResetCode(ctx context.Context, email, code string) (bool, string, error)
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	VerifyEmail(ctx context.Context, email, code string) error
}

type App struct {
	config   *config.Config
	api      apiService
	userName string
	reader   *bufio.Reader
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		api:    api.New(c.ServerURL),
		reader: bufio.NewReader(os.Stdin),
	}
}

func (a *App) isLoggedIn() bool {
	return a.api.LoggedIn()
}

func (a *App) Run(ctx context.Context) {
	a.Root(ctx)
}
