// Package metrics defines the Prometheus collectors for the auth core.
// Collectors are registered on the default registry via promauto and
// served by the metrics listener in cmd/caregate.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SignInTotal counts sign-in attempts by outcome: success,
	// invalid_credentials, role_mismatch, profile_missing, forced_reset,
	// error.
	SignInTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "caregate_signin_total",
		Help: "Sign-in attempts by outcome.",
	}, []string{"outcome"})

	// RoleMismatchTotal counts portal fencing rejections by portal class.
	RoleMismatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "caregate_role_mismatch_total",
		Help: "Sign-ins rejected because the account role does not match the portal.",
	}, []string{"portal"})

	// IdleSignOutTotal counts sessions terminated by the inactivity
	// watchdog.
	IdleSignOutTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caregate_idle_signout_total",
		Help: "Sessions signed out by the inactivity watchdog.",
	})

	// RefdataFetchTotal counts reference-data provider fetches by kind
	// (countries, regions, hospitals) and result (ok, error).
	RefdataFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "caregate_refdata_fetch_total",
		Help: "Reference-data provider fetches by kind and result.",
	}, []string{"kind", "result"})

	// RefdataCacheHitTotal counts reference-data cache hits by kind.
	RefdataCacheHitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "caregate_refdata_cache_hits_total",
		Help: "Reference-data cache hits by kind.",
	}, []string{"kind"})
)
