package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/DosDaiynSol/infinity-life-assistant/engine"
	"github.com/DosDaiynSol/infinity-life-assistant/models"
)

type ProxyReporter interface {
	Stats() map[string]models.ProxyStats
}

// BotHandler is the operator trigger surface for the search engine.
type BotHandler struct {
	engine  *engine.Engine
	proxies ProxyReporter
}

// NewBotHandler wires the engine into HTTP. proxies may be nil when the bot
// runs without a proxy pool.
func NewBotHandler(eng *engine.Engine, proxies ProxyReporter) *BotHandler {
	return &BotHandler{engine: eng, proxies: proxies}
}

// RunCycle triggers one search cycle in the background. A run already in
// progress is reported as a conflict, never queued.
func (h *BotHandler) RunCycle(w http.ResponseWriter, r *http.Request) Result {
	cycle := 0
	if raw := r.URL.Query().Get("cycle"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return BadRequest("cycle must be a non-negative integer")
		}
		cycle = parsed
	}

	runID, err := h.engine.StartCycle(r.Context(), cycle)
	if err != nil {
		if errors.Is(err, engine.ErrAlreadyRunning) {
			return Conflict(models.RunCycleResponse{
				Started: false,
				Cycle:   cycle,
				Message: err.Error(),
			})
		}
		return InternalError(err, "Failed to start cycle")
	}

	return Accepted(models.RunCycleResponse{
		Started: true,
		RunID:   runID.String(),
		Cycle:   cycle,
	})
}

// RunValidation triggers the classify-and-reply pipeline without a search.
func (h *BotHandler) RunValidation(w http.ResponseWriter, r *http.Request) Result {
	if err := h.engine.RunValidation(r.Context()); err != nil {
		if errors.Is(err, engine.ErrAlreadyRunning) {
			return Conflict(ErrorResponse{err.Error()})
		}
		return InternalError(err, "Failed to run validation")
	}
	return Ok(h.engine.Status())
}

// StopCycle requests cooperative cancellation of the running cycle. Stopping
// an idle engine is a no-op, not an error.
func (h *BotHandler) StopCycle(w http.ResponseWriter, r *http.Request) Result {
	h.engine.Stop()
	return Ok(h.engine.Status())
}

func (h *BotHandler) GetStatus(w http.ResponseWriter, r *http.Request) Result {
	return Ok(h.engine.Status())
}

func (h *BotHandler) GetStats(w http.ResponseWriter, r *http.Request) Result {
	stats, err := h.engine.Stats()
	if err != nil {
		return InternalError(err, "Failed to aggregate stats")
	}
	if h.proxies != nil {
		stats.Proxies = h.proxies.Stats()
	}
	return Ok(stats)
}
