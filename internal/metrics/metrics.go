package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Metrics names.
	MetricNameBuildInfo    = "prereqkit_build_info"
	MetricNameRPCRequests  = "prereqkit_rpc_requests_total"
	MetricNameRPCDuration  = "prereqkit_rpc_duration_seconds"
	MetricNameSubmissions  = "prereqkit_submissions_total"
	MetricNameHTTPRequests = "prereqkit_http_requests_total"

	// Labels.
	LabelVersion = "version"
	LabelCommit  = "commit"
	LabelMethod  = "method"
	LabelStatus  = "status"
	LabelKind    = "kind"
	LabelOutcome = "outcome"
	LabelRoute   = "route"

	StatusOK    = "ok"
	StatusError = "error"

	OutcomeConfirmed = "confirmed"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: MetricNameBuildInfo,
			Help: "Build information of the prereqkit binaries",
		},
		[]string{LabelVersion, LabelCommit},
	)

	RPCRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameRPCRequests,
			Help: "Number of Solana RPC requests by method and status",
		},
		[]string{LabelMethod, LabelStatus},
	)

	RPCDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameRPCDuration,
			Help:    "Latency of Solana RPC requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{LabelMethod},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameSubmissions,
			Help: "Prerequisite program transactions by instruction and outcome",
		},
		[]string{LabelKind, LabelOutcome},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequests,
			Help: "HTTP requests served by route and status code",
		},
		[]string{LabelRoute, LabelStatus},
	)
)
