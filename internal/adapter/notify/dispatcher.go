// Package notify delivers customer notification messages. The core hands a
// finalized message string to a Notifier; dispatch and transport live here.
package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/acme/orderdesk/internal/port"
)

const deliveryTimeout = 5 * time.Second

// Dispatcher decouples the core from notification delivery: Notify enqueues
// onto a buffered channel and a worker pool drains it to the underlying
// sink. Close stops intake and waits for the queue to drain.
type Dispatcher struct {
	sink      port.Notifier
	queue     chan string
	wg        sync.WaitGroup
	closeOnce sync.Once
	logger    *zap.Logger
}

func NewDispatcher(sink port.Notifier, workers, queueSize int, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		sink:   sink,
		queue:  make(chan string, queueSize),
		logger: logger,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.workerLoop(i)
	}
	return d
}

func (d *Dispatcher) Notify(ctx context.Context, message string) error {
	select {
	case d.queue <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close is safe to call more than once.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

func (d *Dispatcher) workerLoop(id int) {
	defer d.wg.Done()

	for message := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		if err := d.sink.Notify(ctx, message); err != nil {
			d.logger.Error("notification delivery failed",
				zap.Int("worker", id),
				zap.String("message", message),
				zap.Error(err))
		}
		cancel()
	}
}
