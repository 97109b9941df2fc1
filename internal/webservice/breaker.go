package webservice

import (
	"errors"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/SCuellar21/picard/internal/logging"
	"github.com/SCuellar21/picard/internal/metrics"
)

const (
	breakerTripAfter = 5
	breakerInterval  = time.Minute
	breakerTimeout   = 30 * time.Second
)

// newBreaker opens after consecutive server-side failures for one host. Client
// errors (4xx) are the caller's problem and do not count against the host.
func newBreaker(host string) *gobreaker.CircuitBreaker[*Reply] {
	metrics.BreakerState.WithLabelValues(host).Set(0)
	return gobreaker.NewCircuitBreaker[*Reply](gobreaker.Settings{
		Name:        host,
		MaxRequests: 1,
		Interval:    breakerInterval,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripAfter
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("host", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.BreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	})
}

func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode < http.StatusInternalServerError
	}
	return false
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
