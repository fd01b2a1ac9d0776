package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_search_requests_total",
		Help: "Threads keyword search calls, by phase and outcome.",
	}, []string{"phase", "outcome"})

	PostsFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistant_posts_found_total",
		Help: "Raw posts returned by keyword searches.",
	})

	FilterRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_filter_rejected_total",
		Help: "Posts rejected by the local filters, by reason.",
	}, []string{"reason"})

	PostsSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistant_posts_saved_total",
		Help: "New posts persisted after local filtering and dedup.",
	})

	PostsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistant_posts_duplicate_total",
		Help: "Filtered posts dropped by repository dedup.",
	})

	LLMCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_llm_calls_total",
		Help: "LLM calls, by operation and outcome.",
	}, []string{"operation", "outcome"})

	RepliesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistant_replies_sent_total",
		Help: "Replies successfully published.",
	})

	CycleRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "assistant_cycle_running",
		Help: "1 while a search cycle is executing.",
	})
)
