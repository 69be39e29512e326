package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the ingestion and processing pipeline. Registered on the
// default registry and served by the /metrics endpoint.
var (
	EventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "followup_events_ingested_total",
		Help: "Meeting events accepted at the ingestion boundary, by source.",
	}, []string{"source"})

	EventsDeduplicated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "followup_events_deduplicated_total",
		Help: "Replayed events dropped by the idempotency gate, by source.",
	}, []string{"source"})

	JobsClaimed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "followup_jobs_claimed_total",
		Help: "Processing jobs claimed by queue runs.",
	})

	JobOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "followup_job_outcomes_total",
		Help: "Per-job outcomes of queue runs.",
	}, []string{"outcome"})

	DraftsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "followup_drafts_generated_total",
		Help: "Email drafts successfully generated and stored.",
	})

	QuotaBlocked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "followup_quota_blocked_total",
		Help: "Draft generations blocked by the monthly quota.",
	})

	PollerMeetingsSynthesized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "followup_poller_events_synthesized_total",
		Help: "Events synthesized by the calendar reconciliation poller.",
	})
)
