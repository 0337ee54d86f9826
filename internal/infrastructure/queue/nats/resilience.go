package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/lai-labs/sales-assistant/internal/core/domain"
	"github.com/lai-labs/sales-assistant/internal/infrastructure/resilience"
)

func classifyNATSError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Caller gave up; not a broker fault, keep the breaker untouched.
		return resilience.ErrorClassification{}
	case resilience.IsCircuitOpen(err), isConnectivityError(err):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		return resilience.ErrorClassification{RecordFailure: true}
	}
}

func isConnectivityError(err error) bool {
	connectivity := []error{
		nats.ErrNoServers,
		nats.ErrTimeout,
		nats.ErrConnectionClosed,
		nats.ErrDisconnected,
	}
	for _, sentinel := range connectivity {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// wrapTemporaryIfNeeded marks retryable queue failures as temporary so the
// HTTP layer maps them to 503 instead of 500.
func wrapTemporaryIfNeeded(err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyNATSError(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, "nats publish", err)
	}
	return err
}
