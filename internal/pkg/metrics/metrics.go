// Package metrics defines and registers all custom Prometheus metrics for the
// portal auth service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry at package init
// via promauto, and exposed on /metrics by the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// ── Login-code metrics ────────────────────────────────────────────────────────

// CodesIssuedTotal counts login codes created and handed to the mailer.
var CodesIssuedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_codes_issued_total",
		Help:      "Total number of login codes issued.",
	},
)

// VerificationsTotal counts verification attempts by internal outcome.
// Label:
//   - outcome: "success", "user_not_found", "code_not_found", "code_expired",
//     "code_consumed" — the real cause, which the wire response never reveals.
var VerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verifications_total",
		Help:      "Total number of code verification attempts, by internal outcome.",
	},
	[]string{"outcome"},
)

// ── Delivery metrics ──────────────────────────────────────────────────────────

// EmailsTotal counts outbound code emails.
// Label:
//   - result: "sent" or "failed"
var EmailsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "emails_total",
		Help:      "Total number of login-code email deliveries, by result.",
	},
	[]string{"result"},
)

// ── Throttle metrics ──────────────────────────────────────────────────────────

// ThrottleRejectionsTotal counts requests rejected by the rate limiter.
// Label:
//   - scope: "email" or "ip"
var ThrottleRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "throttle_rejections_total",
		Help:      "Total number of login-code requests rejected by the rate limiter.",
	},
	[]string{"scope"},
)
