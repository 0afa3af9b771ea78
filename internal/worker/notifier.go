package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/suravi/checkout/internal/adapter/notify"
	"github.com/suravi/checkout/internal/domain/model"
)

const publishTimeout = 5 * time.Second

// Notifier drains confirmed orders from a bounded queue and publishes
// confirmation events. Enqueueing never blocks the checkout path: when the
// queue is full the event is dropped and logged.
type Notifier struct {
	publisher notify.Publisher
	queue     chan *model.Order
	logger    *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewNotifier constructs the notifier with the given queue capacity.
func NewNotifier(publisher notify.Publisher, queueSize int, logger *slog.Logger) *Notifier {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Notifier{
		publisher: publisher,
		queue:     make(chan *model.Order, queueSize),
		logger:    logger,
	}
}

// OrderConfirmed enqueues the order for delivery without blocking.
func (n *Notifier) OrderConfirmed(order *model.Order) {
	select {
	case n.queue <- order:
	default:
		n.logger.Warn("notification queue full, dropping event",
			slog.Int64("order_id", order.ID),
		)
	}
}

// Start launches the delivery loop.
func (n *Notifier) Start(ctx context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	n.cancel = cancel

	n.wg.Add(1)
	go n.run(runCtx)
}

// Stop drains in-flight work and waits for the delivery loop to finish.
func (n *Notifier) Stop() {
	n.mu.Lock()
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
	n.mu.Unlock()

	n.wg.Wait()
}

func (n *Notifier) run(ctx context.Context) {
	defer n.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case order := <-n.queue:
			n.deliver(order)
		}
	}
}

func (n *Notifier) deliver(order *model.Order) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	event := notify.OrderConfirmed{
		OrderID:    order.ID,
		UserID:     order.UserID,
		TotalPrice: order.TotalPrice,
		Method:     string(order.PaymentMethod),
		PlacedAt:   order.CreatedAt,
	}
	if err := n.publisher.Publish(ctx, event); err != nil {
		n.logger.Error("confirmation publish failed",
			slog.Int64("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}
}
