package plonkish

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	proofsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plonkish_proofs_total",
			Help: "Proofs generated, by result",
		},
		[]string{"result"},
	)

	verificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plonkish_verifications_total",
			Help: "Proofs verified, by result",
		},
		[]string{"result"},
	)

	proveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plonkish_prove_duration_seconds",
			Help:    "Time spent generating a proof",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
	)

	verifyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plonkish_verify_duration_seconds",
			Help:    "Time spent verifying a proof",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
	)
)

func init() {
	prometheus.MustRegister(
		proofsTotal,
		verificationsTotal,
		proveDuration,
		verifyDuration,
	)
}

func observeProof(start time.Time, err error) {
	proveDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		proofsTotal.WithLabelValues("error").Inc()
		return
	}
	proofsTotal.WithLabelValues("ok").Inc()
}

func observeVerification(start time.Time, err error) {
	verifyDuration.Observe(time.Since(start).Seconds())
	switch {
	case err == nil:
		verificationsTotal.WithLabelValues("ok").Inc()
	case isVerificationFailure(err):
		verificationsTotal.WithLabelValues("failed").Inc()
	default:
		verificationsTotal.WithLabelValues("error").Inc()
	}
}
