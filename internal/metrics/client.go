package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// InstrumentTransport wraps next so every backend request is counted and
// timed. A nil next uses http.DefaultTransport.
func InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return promhttp.InstrumentRoundTripperCounter(BackendRequestsTotal,
		promhttp.InstrumentRoundTripperDuration(BackendRequestDuration, next),
	)
}
