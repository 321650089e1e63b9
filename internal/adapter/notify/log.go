package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes customer notifications to the log. It is the default
// sink when no message broker is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, message string) error {
	n.logger.Info("informing customer", zap.String("message", message))
	return nil
}
