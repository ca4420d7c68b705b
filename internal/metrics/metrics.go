// Package metrics provides Prometheus metrics for the bridge.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConferencesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicebridge_conferences_created_total",
		Help: "Total number of conferences created at the RTC vendor",
	})

	ConferencesInvalidated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicebridge_conferences_invalidated_total",
		Help: "Total number of conferences dropped after failed validation or vendor close",
	})

	ActiveParticipants = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voicebridge_active_participants",
		Help: "Number of participants registered in the active conference",
	})

	ParticipantsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicebridge_participants_created_total",
		Help: "Total number of participants created",
	}, []string{"kind"}) // "browser" | "phone"

	Subscriptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicebridge_subscriptions_total",
		Help: "Subscribe requests issued to the RTC vendor",
	}, []string{"result"}) // "ok" | "error"

	FanoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voicebridge_fanout_duration_seconds",
		Help:    "Duration of a subscription fan-out pass",
		Buckets: prometheus.DefBuckets,
	})

	IncomingCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicebridge_incoming_calls_total",
		Help: "Incoming call webhooks by outcome",
	}, []string{"outcome"}) // "transferred" | "rejected" | "rate_limited" | "failed"

	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicebridge_rtc_webhook_events_total",
		Help: "RTC vendor webhook events received",
	}, []string{"event"})

	EventStreamClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voicebridge_event_stream_clients",
		Help: "Number of connected roster event stream clients",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicebridge_http_requests_total",
		Help: "HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voicebridge_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

func RecordSubscription(err error) {
	if err != nil {
		Subscriptions.WithLabelValues("error").Inc()
		return
	}
	Subscriptions.WithLabelValues("ok").Inc()
}
