// Package engine runs the dual-phase Threads search cycle and the
// classify-and-reply pipeline. One cycle instance runs at a time per process;
// cancellation is cooperative and checked between keyword searches, never
// mid-request.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/DosDaiynSol/infinity-life-assistant/catalog"
	"github.com/DosDaiynSol/infinity-life-assistant/data"
	"github.com/DosDaiynSol/infinity-life-assistant/enums"
	"github.com/DosDaiynSol/infinity-life-assistant/filters"
	"github.com/DosDaiynSol/infinity-life-assistant/metrics"
	"github.com/DosDaiynSol/infinity-life-assistant/models"
)

// ErrAlreadyRunning is a normal outcome of a concurrent trigger, not a fault:
// the caller reports it and does not queue.
var ErrAlreadyRunning = errors.New("a search cycle is already running")

type Config struct {
	LocaleKeyword   string
	DomainKeywords  []string
	CyclesPerDay    int
	Lookback        time.Duration
	SearchLimit     int
	RequestDelay    time.Duration
	ValidationBatch int
}

type Engine struct {
	logger     *slog.Logger
	search     SearchClient
	reply      ReplyClient
	classifier Classifier
	generator  Generator
	store      PostStore
	apiLog     ApiLogStore
	language   LanguageChecker
	bus        *Bus
	quota      *Quota
	cfg        Config
	location   *time.Location

	running       atomic.Bool
	stopRequested atomic.Bool

	mu    sync.Mutex
	runID uuid.UUID
	cycle int

	now   func() time.Time
	sleep func(time.Duration)
}

func New(
	logger *slog.Logger,
	search SearchClient,
	reply ReplyClient,
	classifier Classifier,
	generator Generator,
	store PostStore,
	apiLog ApiLogStore,
	language LanguageChecker,
	bus *Bus,
	quota *Quota,
	location *time.Location,
	cfg Config,
) *Engine {
	return &Engine{
		logger:     logger,
		search:     search,
		reply:      reply,
		classifier: classifier,
		generator:  generator,
		store:      store,
		apiLog:     apiLog,
		language:   language,
		bus:        bus,
		quota:      quota,
		location:   location,
		cfg:        cfg,
		now:        time.Now,
		sleep:      time.Sleep,
	}
}

func (e *Engine) Bus() *Bus { return e.bus }

func (e *Engine) IsRunning() bool { return e.running.Load() }

// Stop requests cooperative cancellation. The flag is observed between the
// locale and domain phases and between successive domain keywords; an
// in-flight call and the reply sub-pipeline are never interrupted.
func (e *Engine) Stop() {
	if e.running.Load() {
		e.stopRequested.Store(true)
		e.logger.Info("stop requested")
	}
}

// StartCycle launches one cycle run in the background. A concurrent trigger
// returns ErrAlreadyRunning and changes nothing.
func (e *Engine) StartCycle(ctx context.Context, cycleIndex int) (uuid.UUID, error) {
	if !e.running.CompareAndSwap(false, true) {
		return uuid.Nil, ErrAlreadyRunning
	}

	e.stopRequested.Store(false)
	runID := uuid.New()

	e.mu.Lock()
	e.runID = runID
	e.cycle = cycleIndex
	e.mu.Unlock()

	go e.runCycle(ctx, runID, cycleIndex)

	return runID, nil
}

type cycleCounts struct {
	searched  int
	found     int
	passed    int
	saved     int
	duplicate int
	replied   int
	skipped   int
}

func (e *Engine) runCycle(ctx context.Context, runID uuid.UUID, cycleIndex int) {
	defer e.running.Store(false)

	metrics.CycleRunning.Set(1)
	defer metrics.CycleRunning.Set(0)

	run := runID.String()
	counts := &cycleCounts{}

	e.bus.StartRun()
	e.emit(Event{Type: EventStart, RunID: run, Cycle: cycleIndex})
	e.logger.Info("cycle started", "run_id", run, "cycle", cycleIndex)

	// Phase 1: the single city keyword, filtered for topical relevance.
	e.emit(Event{Type: EventPhase, RunID: run, Cycle: cycleIndex, Phase: string(enums.PhaseLocale)})
	e.searchKeyword(ctx, run, cycleIndex, e.cfg.LocaleKeyword, enums.PhaseLocale, counts)

	// Phase 2: this cycle's slice of the domain keyword universe, filtered
	// for geographic relevance.
	if !e.stopped(ctx) {
		e.emit(Event{Type: EventPhase, RunID: run, Cycle: cycleIndex, Phase: string(enums.PhaseDomain)})

		chunk := catalog.ChunkFor(e.cfg.DomainKeywords, cycleIndex, e.cfg.CyclesPerDay)
		for _, keyword := range chunk {
			e.sleep(e.cfg.RequestDelay)
			if e.stopped(ctx) {
				break
			}
			e.searchKeyword(ctx, run, cycleIndex, keyword, enums.PhaseDomain, counts)
		}
	}

	if !e.stopped(ctx) {
		e.processNew(ctx, run, cycleIndex, counts)
	}

	summary := Event{
		Type:      EventSummary,
		RunID:     run,
		Cycle:     cycleIndex,
		Found:     counts.found,
		Passed:    counts.passed,
		Saved:     counts.saved,
		Duplicate: counts.duplicate,
	}
	if e.stopRequested.Load() {
		summary.Message = "stopped by request"
	}
	e.emit(summary)
	e.emit(Event{Type: EventEnd, RunID: run, Cycle: cycleIndex})

	e.logger.Info("cycle finished",
		"run_id", run,
		"cycle", cycleIndex,
		"searched", counts.searched,
		"found", counts.found,
		"passed", counts.passed,
		"saved", counts.saved,
		"duplicate", counts.duplicate,
		"replied", counts.replied,
		"skipped", counts.skipped,
	)
}

func (e *Engine) stopped(ctx context.Context) bool {
	return e.stopRequested.Load() || ctx.Err() != nil
}

// searchKeyword runs one search call and routes every raw post through the
// phase-appropriate local filter and the repository dedup insert. Failures
// never abort the cycle.
func (e *Engine) searchKeyword(ctx context.Context, run string, cycle int, keyword string, phase enums.Phase, counts *cycleCounts) {
	counts.searched++
	since := e.now().Add(-e.cfg.Lookback).Unix()

	posts, err := e.search.Search(ctx, keyword, since, e.cfg.SearchLimit)
	if err != nil {
		metrics.SearchRequests.WithLabelValues(string(phase), "error").Inc()
		e.logger.Error("search failed", "keyword", keyword, "error", err)
		e.emit(Event{Type: EventError, RunID: run, Cycle: cycle, Keyword: keyword, Message: err.Error()})
		return
	}
	metrics.SearchRequests.WithLabelValues(string(phase), "ok").Inc()
	metrics.PostsFound.Add(float64(len(posts)))

	found := len(posts)
	passed, saved, duplicate := 0, 0, 0

	for _, raw := range posts {
		if raw.ID == "" {
			continue
		}

		if !e.language.Allows(raw.Text) {
			metrics.FilterRejected.WithLabelValues("language").Inc()
			continue
		}

		ok, reason := e.applyFilter(phase, raw.Text)
		if !ok {
			metrics.FilterRejected.WithLabelValues(reason).Inc()
			e.logger.Debug("post rejected locally", "post_id", raw.ID, "keyword", keyword, "reason", reason)
			continue
		}
		passed++

		inserted, err := e.store.InsertIfAbsent(e.makePost(raw, keyword, phase))
		if err != nil {
			e.logger.Error("failed to store post", "post_id", raw.ID, "error", err)
			e.emit(Event{Type: EventError, RunID: run, Cycle: cycle, Keyword: keyword, PostID: raw.ID, Message: err.Error()})
			continue
		}
		if inserted {
			saved++
			metrics.PostsSaved.Inc()
		} else {
			duplicate++
			metrics.PostsDuplicate.Inc()
		}
	}

	counts.found += found
	counts.passed += passed
	counts.saved += saved
	counts.duplicate += duplicate

	if err := e.apiLog.Insert(data.ApiRequestLog{
		Keyword:     keyword,
		Phase:       string(phase),
		ResultCount: found,
		NewCount:    saved,
	}); err != nil {
		e.logger.Error("failed to log api request", "keyword", keyword, "error", err)
	}

	e.emit(Event{
		Type:      EventKeywordResult,
		RunID:     run,
		Cycle:     cycle,
		Phase:     string(phase),
		Keyword:   keyword,
		Found:     found,
		Passed:    passed,
		Saved:     saved,
		Duplicate: duplicate,
	})
}

func (e *Engine) applyFilter(phase enums.Phase, text string) (bool, string) {
	if phase == enums.PhaseLocale {
		return filters.FromLocaleSearch(text)
	}
	return filters.FromDomainSearch(text)
}

func (e *Engine) makePost(raw models.ThreadsPost, keyword string, phase enums.Phase) data.Post {
	return data.Post{
		PostID:         raw.ID,
		Username:       raw.Username,
		Text:           raw.Text,
		Permalink:      raw.Permalink,
		PostedAt:       parseThreadsTime(raw.Timestamp, e.now()),
		MatchedKeyword: keyword,
		Phase:          phase,
		Status:         enums.StatusNew,
	}
}

// Threads timestamps come as "2026-08-30T10:00:00+0000"; malformed or missing
// values fall back to the current time.
func parseThreadsTime(value string, fallback time.Time) time.Time {
	for _, layout := range []string{"2006-01-02T15:04:05-0700", time.RFC3339} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	return fallback
}

func (e *Engine) emit(event Event) {
	e.bus.Emit(event)
}

// Status reports the trigger-surface view of the engine.
func (e *Engine) Status() models.StatusResponse {
	e.mu.Lock()
	runID := e.runID
	cycle := e.cycle
	e.mu.Unlock()

	status := models.StatusResponse{
		Running: e.running.Load(),
		Cycle:   cycle,
	}
	if runID != uuid.Nil {
		status.RunID = runID.String()
	}
	if last := e.quota.LastReplyAt(); !last.IsZero() {
		status.LastReplyAt = last.Format(time.RFC3339)
	}
	return status
}

// Stats aggregates repository counts for the operator dashboard.
func (e *Engine) Stats() (models.StatsResponse, error) {
	stats := models.StatsResponse{
		Posts:   make(map[string]int),
		Running: e.running.Load(),
	}

	counts, err := e.store.CountByStatus()
	if err != nil {
		return stats, err
	}
	for _, c := range counts {
		stats.Posts[string(c.Status)] = c.Count
	}

	midnight := localMidnight(e.now().In(e.location))

	stats.RepliesToday, err = e.store.CountRepliedSince(midnight)
	if err != nil {
		return stats, err
	}

	stats.SearchesToday, err = e.apiLog.CountSince(midnight)
	if err != nil {
		return stats, err
	}

	return stats, nil
}

func localMidnight(local time.Time) time.Time {
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
}
