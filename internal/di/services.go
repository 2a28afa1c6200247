package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/j-alcock/ss-extension-act-sub000/internal/config"
	"github.com/j-alcock/ss-extension-act-sub000/internal/market_regime"
	"github.com/j-alcock/ss-extension-act-sub000/internal/modules/optimization"
	"github.com/j-alcock/ss-extension-act-sub000/internal/modules/simulation"
	"github.com/j-alcock/ss-extension-act-sub000/internal/scenarios"
)

// InitializeScenarios loads the scenario catalog, preferring cfg.ScenarioFile
// over the embedded default.
func InitializeScenarios(container *Container, cfg *config.Config, log zerolog.Logger) error {
	var (
		catalog *scenarios.Catalog
		err     error
	)
	if cfg.ScenarioFile != "" {
		catalog, err = scenarios.Load(cfg.ScenarioFile)
	} else {
		catalog, err = scenarios.Default()
	}
	if err != nil {
		return err
	}

	container.Scenarios = catalog
	log.Info().
		Str("source", sourceName(cfg.ScenarioFile)).
		Strs("scenarios", catalog.Names()).
		Msg("Scenario catalog loaded")
	return nil
}

// InitializeServices creates the regime set and the simulation services
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	regimes, err := market_regime.NewRegimeSet(market_regime.RegimeBull, market_regime.DefaultRegimes()...)
	if err != nil {
		return fmt.Errorf("failed to build regime set: %w", err)
	}
	container.Regimes = regimes

	container.SimulationService = simulation.NewService(regimes, cfg.Workers, log)
	container.OptimizationService = optimization.NewService(regimes, cfg.Workers, optimization.DefaultOptimizerConfig(), log)

	log.Info().
		Int("workers", cfg.Workers).
		Int("regimes", regimes.Len()).
		Msg("Services initialized")
	return nil
}

func sourceName(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}
