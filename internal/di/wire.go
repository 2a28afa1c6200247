// Package di provides dependency injection wiring and initialization.
package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/j-alcock/ss-extension-act-sub000/internal/config"
)

// Wire initializes all dependencies and returns a fully configured container
// Order of operations:
// 1. Load the scenario catalog
// 2. Initialize services
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	if err := InitializeScenarios(container, cfg, log); err != nil {
		return nil, fmt.Errorf("failed to load scenarios: %w", err)
	}

	if err := InitializeServices(container, cfg, log); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return container, nil
}
