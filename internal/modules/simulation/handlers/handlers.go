// Package handlers provides HTTP handlers for fund simulation.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/j-alcock/ss-extension-act-sub000/internal/market_regime"
	"github.com/j-alcock/ss-extension-act-sub000/internal/modules/simulation"
	"github.com/j-alcock/ss-extension-act-sub000/internal/modules/withdrawal"
	"github.com/j-alcock/ss-extension-act-sub000/internal/scenarios"
	"github.com/j-alcock/ss-extension-act-sub000/internal/utils"
)

// Handler handles simulation HTTP requests
type Handler struct {
	service  *simulation.Service
	catalog  *scenarios.Catalog
	maxPaths int
	log      zerolog.Logger
}

// NewHandler creates a new simulation handler
func NewHandler(service *simulation.Service, catalog *scenarios.Catalog, maxPaths int, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		catalog:  catalog,
		maxPaths: maxPaths,
		log:      log.With().Str("handler", "simulation").Logger(),
	}
}

// SimulateRequest selects a scenario and overrides any of its fields
type SimulateRequest struct {
	Scenario string                 `json:"scenario,omitempty" msgpack:"scenario,omitempty"`
	Config   simulation.FundConfig `json:"config" msgpack:"config"`
}

// SimulateResponse wraps a Monte Carlo result
type SimulateResponse struct {
	RunID     string                      `json:"run_id" msgpack:"run_id"`
	ElapsedMs int64                       `json:"elapsed_ms" msgpack:"elapsed_ms"`
	Result    *simulation.AggregateResult `json:"result" msgpack:"result"`
}

// ScenarioInfo describes one catalog entry with its resolved config
type ScenarioInfo struct {
	Name        string                `json:"name" msgpack:"name"`
	Description string                `json:"description" msgpack:"description"`
	Config      simulation.FundConfig `json:"config" msgpack:"config"`
}

// RegimesResponse lists the regime set
type RegimesResponse struct {
	Initial    market_regime.RegimeName             `json:"initial" msgpack:"initial"`
	Regimes    []market_regime.MarketRegime         `json:"regimes" msgpack:"regimes"`
	Stationary map[market_regime.RegimeName]float64 `json:"stationary" msgpack:"stationary"`
}

// RuleInfo describes a withdrawal rule
type RuleInfo struct {
	Rule  withdrawal.Rule `json:"rule" msgpack:"rule"`
	Label string          `json:"label" msgpack:"label"`
}

// HandleSimulate handles POST /api/v1/simulate
func (h *Handler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	request, err := h.decodeRequest(r)
	if err != nil {
		h.writeError(w, r, statusFor(err), err.Error())
		return
	}

	cfg := request.Config
	if h.maxPaths > 0 && cfg.NumPaths > h.maxPaths {
		h.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("Too many paths (max %d)", h.maxPaths))
		return
	}

	runID := uuid.New().String()

	startTime := time.Now()
	result, err := h.service.Simulate(r.Context(), cfg)
	elapsed := time.Since(startTime)

	if err != nil {
		h.log.Error().Err(err).Str("run_id", runID).Msg("Simulation failed")
		h.writeError(w, r, statusFor(err), "Simulation failed: "+err.Error())
		return
	}

	h.log.Info().
		Str("run_id", runID).
		Str("scenario", request.Scenario).
		Int("paths", cfg.NumPaths).
		Dur("elapsed", elapsed).
		Float64("prob_ruin", result.ProbRuin).
		Msg("Simulation completed")

	h.writeResponse(w, r, http.StatusOK, SimulateResponse{
		RunID:     runID,
		ElapsedMs: elapsed.Milliseconds(),
		Result:    result,
	})
}

// HandleListScenarios handles GET /api/v1/scenarios
func (h *Handler) HandleListScenarios(w http.ResponseWriter, r *http.Request) {
	all := h.catalog.All()
	infos := make([]ScenarioInfo, 0, len(all))
	for i := range all {
		info, err := describe(&all[i])
		if err != nil {
			h.writeError(w, r, http.StatusInternalServerError, err.Error())
			return
		}
		infos = append(infos, info)
	}
	h.writeResponse(w, r, http.StatusOK, infos)
}

// HandleGetScenario handles GET /api/v1/scenarios/{name}
func (h *Handler) HandleGetScenario(w http.ResponseWriter, r *http.Request) {
	s, err := h.catalog.Get(chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, r, statusFor(err), err.Error())
		return
	}
	info, err := describe(s)
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeResponse(w, r, http.StatusOK, info)
}

// HandleGetRegimes handles GET /api/v1/regimes
func (h *Handler) HandleGetRegimes(w http.ResponseWriter, r *http.Request) {
	set := h.service.RegimeSet()
	h.writeResponse(w, r, http.StatusOK, RegimesResponse{
		Initial:    set.Initial(),
		Regimes:    set.Regimes(),
		Stationary: set.StationaryDistribution(),
	})
}

// HandleGetRules handles GET /api/v1/rules
func (h *Handler) HandleGetRules(w http.ResponseWriter, r *http.Request) {
	rules := withdrawal.AllRules()
	infos := make([]RuleInfo, len(rules))
	for i, rule := range rules {
		infos[i] = RuleInfo{Rule: rule, Label: rule.Label()}
	}
	h.writeResponse(w, r, http.StatusOK, infos)
}

// Helper methods

func describe(s *scenarios.Scenario) (ScenarioInfo, error) {
	cfg, err := s.Config()
	if err != nil {
		return ScenarioInfo{}, err
	}
	return ScenarioInfo{Name: s.Name, Description: s.Description, Config: cfg}, nil
}

// decodeRequest resolves the named scenario first so that the config in
// the body only overrides the fields it sets.
func (h *Handler) decodeRequest(r *http.Request) (SimulateRequest, error) {
	var request SimulateRequest

	body, err := utils.ReadBody(r)
	if err != nil {
		return request, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := utils.Unmarshal(r, body, &request); err != nil {
		return request, fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}

	base, err := h.catalog.Resolve(request.Scenario, simulation.DefaultFundConfig())
	if err != nil {
		return request, err
	}

	scenario := request.Scenario
	request = SimulateRequest{Config: base}
	if err := utils.Unmarshal(r, body, &request); err != nil {
		return request, fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	request.Scenario = scenario
	return request, nil
}

var errBadRequest = errors.New("bad request")

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, simulation.ErrInvalidConfig),
		errors.Is(err, withdrawal.ErrUnknownRule),
		errors.Is(err, withdrawal.ErrInvalidParams),
		errors.Is(err, market_regime.ErrInvalidRegime):
		return http.StatusBadRequest
	case errors.Is(err, scenarios.ErrScenarioNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeResponse writes JSON, or MessagePack when the client accepts it
func (h *Handler) writeResponse(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	body, contentType, err := utils.Encode(r, data)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		h.log.Error().Err(err).Msg("Failed to write response")
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.writeResponse(w, r, status, map[string]string{
		"error": message,
	})
}
