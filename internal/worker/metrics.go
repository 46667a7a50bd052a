package worker

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	jobsClaimedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tryon_jobs_claimed_total",
		Help: "Total number of queue deliveries claimed by workers",
	})
	jobsCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tryon_jobs_completed_total",
		Help: "Total number of jobs that reached the completed state",
	})
	jobsFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tryon_jobs_failed_total",
		Help: "Total number of jobs the remote service reported as failed",
	})
	jobsErroredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tryon_jobs_errored_total",
		Help: "Total number of jobs that ended in the error state",
	})
	jobsTimedOutTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tryon_jobs_timed_out_total",
		Help: "Total number of jobs that exhausted their poll budget",
	})
	jobsInProgress = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tryon_jobs_in_progress",
		Help: "Number of jobs currently being driven by a worker",
	})
	pollAttemptsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tryon_poll_attempts_total",
		Help: "Total number of remote status probes issued",
	})
)

func init() {
	prometheus.MustRegister(
		jobsClaimedTotal,
		jobsCompletedTotal,
		jobsFailedTotal,
		jobsErroredTotal,
		jobsTimedOutTotal,
		jobsInProgress,
		pollAttemptsTotal,
	)
}
