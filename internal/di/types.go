/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for all service instances and is
 * passed to the server for access to services.
 */
package di

import (
	"github.com/j-alcock/ss-extension-act-sub000/internal/market_regime"
	"github.com/j-alcock/ss-extension-act-sub000/internal/modules/optimization"
	"github.com/j-alcock/ss-extension-act-sub000/internal/modules/simulation"
	"github.com/j-alcock/ss-extension-act-sub000/internal/scenarios"
)

// Container holds all application dependencies
type Container struct {
	// Shared model inputs
	Regimes   *market_regime.RegimeSet
	Scenarios *scenarios.Catalog

	// Services
	SimulationService   *simulation.Service
	OptimizationService *optimization.Service
}
