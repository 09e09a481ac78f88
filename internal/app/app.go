package app

import (
	"log/slog"

	"github.com/trebuchet-org/sling/internal/domain/config"
	"github.com/trebuchet-org/sling/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig
	Logger *slog.Logger

	// Use cases
	DeployContract *usecase.DeployContract
	VerifyContract *usecase.VerifyContract
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	logger *slog.Logger,
	deployContract *usecase.DeployContract,
	verifyContract *usecase.VerifyContract,
) (*App, error) {
	return &App{
		Config:         cfg,
		Logger:         logger,
		DeployContract: deployContract,
		VerifyContract: verifyContract,
	}, nil
}
