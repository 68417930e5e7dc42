package workflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var providerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "postforge_provider_errors_total",
	Help: "Provider call failures, by provider.",
}, []string{"provider"})
