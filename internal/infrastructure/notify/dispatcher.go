package notify

import (
	"context"
	"sync"
	"time"

	"github.com/slnkoenergy/epc-backend/internal/domain/payment"
	"go.uber.org/zap"
)

// LogNotifier writes notifications to the structured log. It stands in for
// the outbound channel (mail, webhook) in environments that have none.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notify")}
}

// Dispatch logs the notification
func (n *LogNotifier) Dispatch(ctx context.Context, notification payment.Notification) {
	n.logger.Info("notification",
		zap.String("type", notification.Type),
		zap.String("pay_request_id", notification.PayRequestID.String()),
		zap.Int64("project", notification.ProjectNumber),
		zap.String("message", notification.Message),
	)
}

var _ payment.Notifier = (*LogNotifier)(nil)

// AsyncDispatcher decouples notification delivery from the request path: a
// bounded queue fed after commit, drained by one worker. When the queue is
// full the notification is dropped and logged; delivery is best-effort by
// contract.
type AsyncDispatcher struct {
	inner   payment.Notifier
	queue   chan payment.Notification
	logger  *zap.Logger
	stop    chan struct{}
	stopped sync.WaitGroup
}

// NewAsyncDispatcher creates and starts an async dispatcher
func NewAsyncDispatcher(inner payment.Notifier, queueSize int, logger *zap.Logger) *AsyncDispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	d := &AsyncDispatcher{
		inner:  inner,
		queue:  make(chan payment.Notification, queueSize),
		logger: logger.Named("notify-dispatcher"),
		stop:   make(chan struct{}),
	}
	d.stopped.Add(1)
	go d.run()
	return d
}

// Dispatch enqueues a notification without blocking the caller
func (d *AsyncDispatcher) Dispatch(ctx context.Context, n payment.Notification) {
	select {
	case d.queue <- n:
	default:
		d.logger.Warn("notification queue full, dropping",
			zap.String("type", n.Type),
			zap.String("pay_request_id", n.PayRequestID.String()),
		)
	}
}

func (d *AsyncDispatcher) run() {
	defer d.stopped.Done()
	for {
		select {
		case n := <-d.queue:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			d.inner.Dispatch(ctx, n)
			cancel()
		case <-d.stop:
			// Drain what is already queued, then exit.
			for {
				select {
				case n := <-d.queue:
					ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
					d.inner.Dispatch(ctx, n)
					cancel()
				default:
					return
				}
			}
		}
	}
}

// Close stops the worker after draining the queue
func (d *AsyncDispatcher) Close() {
	close(d.stop)
	d.stopped.Wait()
}

var _ payment.Notifier = (*AsyncDispatcher)(nil)
