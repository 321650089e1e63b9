package port

import (
	"context"

	"github.com/acme/orderdesk/internal/core/domain"
)

// Classifier turns free-text customer messages into a structured request.
type Classifier interface {
	Classify(ctx context.Context, text string) (domain.ClassifiedRequest, error)
}

// Responder produces the customer-facing message for a pipeline outcome.
type Responder interface {
	CustomerMessage(ctx context.Context, req domain.ClassifiedRequest, outcome domain.AdjustmentOutcome) (string, error)
}

// Notifier delivers a finalized notification message. The core does not
// know or care how delivery happens.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}
