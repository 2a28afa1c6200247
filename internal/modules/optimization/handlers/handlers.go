// Package handlers provides HTTP handlers for policy comparison and rate optimization.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/j-alcock/ss-extension-act-sub000/internal/modules/optimization"
	"github.com/j-alcock/ss-extension-act-sub000/internal/modules/simulation"
	"github.com/j-alcock/ss-extension-act-sub000/internal/modules/withdrawal"
	"github.com/j-alcock/ss-extension-act-sub000/internal/scenarios"
	"github.com/j-alcock/ss-extension-act-sub000/internal/utils"
)

// Handler handles optimization HTTP requests
type Handler struct {
	service  *optimization.Service
	catalog  *scenarios.Catalog
	maxPaths int
	log      zerolog.Logger
}

// NewHandler creates a new optimization handler
func NewHandler(service *optimization.Service, catalog *scenarios.Catalog, maxPaths int, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		catalog:  catalog,
		maxPaths: maxPaths,
		log:      log.With().Str("handler", "optimization").Logger(),
	}
}

// OptimizeRequest searches the best rate for one rule. Zero bounds mean
// the default 2%-6% interval; an empty rule means the config's rule.
type OptimizeRequest struct {
	Scenario string                 `json:"scenario,omitempty" msgpack:"scenario,omitempty"`
	Config   simulation.FundConfig `json:"config" msgpack:"config"`
	Rule     string                 `json:"rule,omitempty" msgpack:"rule,omitempty"`
	MinRate  float64                `json:"min_rate,omitempty" msgpack:"min_rate,omitempty"`
	MaxRate  float64                `json:"max_rate,omitempty" msgpack:"max_rate,omitempty"`
}

// OptimizeResponse wraps an optimization result
type OptimizeResponse struct {
	RunID     string                           `json:"run_id" msgpack:"run_id"`
	ElapsedMs int64                            `json:"elapsed_ms" msgpack:"elapsed_ms"`
	Result    *optimization.OptimizationResult `json:"result" msgpack:"result"`
}

// CompareRequest evaluates several policies on shared return paths
type CompareRequest struct {
	Scenario       string                    `json:"scenario,omitempty" msgpack:"scenario,omitempty"`
	Config         simulation.FundConfig    `json:"config" msgpack:"config"`
	Policies       []optimization.PolicySpec `json:"policies,omitempty" msgpack:"policies,omitempty"`
	ReferenceYears []int                     `json:"reference_years,omitempty" msgpack:"reference_years,omitempty"`
}

// CompareResponse lists one summary per policy
type CompareResponse struct {
	RunID     string                       `json:"run_id" msgpack:"run_id"`
	ElapsedMs int64                        `json:"elapsed_ms" msgpack:"elapsed_ms"`
	Summaries []optimization.PolicySummary `json:"summaries" msgpack:"summaries"`
}

// HandleOptimize handles POST /api/v1/optimize
func (h *Handler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	var request OptimizeRequest
	if err := h.decodeRequest(r, &request, &request.Scenario, &request.Config); err != nil {
		h.writeError(w, r, statusFor(err), err.Error())
		return
	}

	rule := request.Config.WithdrawalRule
	if request.Rule != "" {
		parsed, err := withdrawal.ParseRule(request.Rule)
		if err != nil {
			h.writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		rule = parsed
	}

	if err := h.checkPaths(request.Config); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	runID := uuid.New().String()

	startTime := time.Now()
	result, err := h.service.Optimize(r.Context(), request.Config, rule, request.MinRate, request.MaxRate)
	elapsed := time.Since(startTime)

	if err != nil {
		h.log.Error().Err(err).Str("run_id", runID).Msg("Optimization failed")
		h.writeError(w, r, statusFor(err), "Optimization failed: "+err.Error())
		return
	}

	h.log.Info().
		Str("run_id", runID).
		Str("rule", rule.String()).
		Int("paths", request.Config.NumPaths).
		Dur("elapsed", elapsed).
		Float64("optimal_rate", result.OptimalRate).
		Bool("meets_constraint", result.MeetsConstraint).
		Msg("Optimization completed")

	h.writeResponse(w, r, http.StatusOK, OptimizeResponse{
		RunID:     runID,
		ElapsedMs: elapsed.Milliseconds(),
		Result:    result,
	})
}

// HandleCompare handles POST /api/v1/policies/compare
func (h *Handler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	var request CompareRequest
	if err := h.decodeRequest(r, &request, &request.Scenario, &request.Config); err != nil {
		h.writeError(w, r, statusFor(err), err.Error())
		return
	}

	if err := h.checkPaths(request.Config); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if len(request.Policies) > 32 {
		h.writeError(w, r, http.StatusBadRequest, "Too many policies (max 32)")
		return
	}

	runID := uuid.New().String()

	startTime := time.Now()
	summaries, err := h.service.Compare(r.Context(), request.Config, request.Policies, request.ReferenceYears)
	elapsed := time.Since(startTime)

	if err != nil {
		h.log.Error().Err(err).Str("run_id", runID).Msg("Policy comparison failed")
		h.writeError(w, r, statusFor(err), "Policy comparison failed: "+err.Error())
		return
	}

	h.log.Info().
		Str("run_id", runID).
		Int("policies", len(summaries)).
		Int("paths", request.Config.NumPaths).
		Dur("elapsed", elapsed).
		Msg("Policy comparison completed")

	h.writeResponse(w, r, http.StatusOK, CompareResponse{
		RunID:     runID,
		ElapsedMs: elapsed.Milliseconds(),
		Summaries: summaries,
	})
}

// HandleListPolicies handles GET /api/v1/policies
func (h *Handler) HandleListPolicies(w http.ResponseWriter, r *http.Request) {
	h.writeResponse(w, r, http.StatusOK, optimization.DefaultPolicySpecs())
}

// Helper methods

var errBadRequest = errors.New("bad request")

// decodeRequest decodes the body once to find the scenario, then again on
// top of the resolved scenario config so the body only overrides what it sets.
func (h *Handler) decodeRequest(r *http.Request, request interface{}, scenario *string, cfg *simulation.FundConfig) error {
	body, err := utils.ReadBody(r)
	if err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := utils.Unmarshal(r, body, request); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}

	base, err := h.catalog.Resolve(*scenario, simulation.DefaultFundConfig())
	if err != nil {
		return err
	}

	*cfg = base
	if err := utils.Unmarshal(r, body, request); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return nil
}

func (h *Handler) checkPaths(cfg simulation.FundConfig) error {
	if h.maxPaths > 0 && cfg.NumPaths > h.maxPaths {
		return fmt.Errorf("too many paths (max %d)", h.maxPaths)
	}
	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, simulation.ErrInvalidConfig),
		errors.Is(err, withdrawal.ErrUnknownRule),
		errors.Is(err, withdrawal.ErrInvalidParams),
		errors.Is(err, optimization.ErrInvalidBounds),
		errors.Is(err, optimization.ErrInvalidScorer):
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
