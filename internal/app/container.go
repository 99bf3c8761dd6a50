package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/newsroomlabs/usage-insight/internal/config"
	"github.com/newsroomlabs/usage-insight/internal/identity"
	"github.com/newsroomlabs/usage-insight/internal/observability"
	"github.com/newsroomlabs/usage-insight/internal/registry"
	usageservice "github.com/newsroomlabs/usage-insight/internal/services/usage"
	"github.com/newsroomlabs/usage-insight/internal/store"
)

// Container aggregates runtime dependencies for handlers and services.
type Container struct {
	Config        *config.Config
	Logger        *slog.Logger
	Registry      *registry.Registry
	Store         store.UsageStore
	Identity      identity.Provider
	Usage         *usageservice.Service
	Observability *observability.Provider
}

// NewContainer builds the dependency graph from configuration: the service
// registry, the DynamoDB-backed usage store, the directory provider, and
// the aggregation service on top of them.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	reg, err := registry.FromConfig(cfg.Services)
	if err != nil {
		return nil, fmt.Errorf("build service registry: %w", err)
	}

	usageStore, err := store.NewDynamoStore(ctx, cfg.AWS)
	if err != nil {
		return nil, fmt.Errorf("init usage store: %w", err)
	}

	var idp identity.Provider = identity.NoDirectory{}
	if cfg.Identity.UserPoolID != "" {
		cognito, err := identity.NewCognitoProvider(ctx, cfg.AWS, cfg.Identity.UserPoolID)
		if err != nil {
			return nil, fmt.Errorf("init identity provider: %w", err)
		}
		idp = cognito
	} else {
		logger.Warn("no user pool configured, identity enrichment disabled")
	}

	obs, err := observability.Setup(ctx, cfg.Observability)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	usage := usageservice.NewService(reg, usageStore, idp, cfg.Identity.UserTables, logger, obs)

	return &Container{
		Config:        cfg,
		Logger:        logger,
		Registry:      reg,
		Store:         usageStore,
		Identity:      idp,
		Usage:         usage,
		Observability: obs,
	}, nil
}
