package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReviewActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_actions_total",
			Help: "Total number of review decisions taken",
		},
		[]string{"resource", "decision"},
	)

	RecomputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "score_recompute_duration_seconds",
			Help:    "Duration of total score recomputation and re-ranking",
			Buckets: prometheus.DefBuckets,
		},
	)

	RankingChangesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ranking_changes_total",
			Help: "Total number of students whose ranking position changed",
		},
	)

	ProofParseJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proof_parse_jobs_total",
			Help: "Total number of proof file checksum jobs by outcome",
		},
		[]string{"result"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
