package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/operalog/api/internal/events"
)

const (
	defaultForwardBuffer  = 256
	defaultPublishTimeout = 5 * time.Second
)

// EventForwarder relays dispatched events to a broker off the request path.
// Events are buffered; when the buffer is full new events are dropped and logged.
type EventForwarder struct {
	publisher events.Publisher
	logger    *zap.Logger
	queue     chan events.Event
	timeout   time.Duration
}

// NewEventForwarder builds a forwarder. buffer <= 0 uses a default size.
func NewEventForwarder(publisher events.Publisher, logger *zap.Logger, buffer int) *EventForwarder {
	if buffer <= 0 {
		buffer = defaultForwardBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventForwarder{
		publisher: publisher,
		logger:    logger.Named("event_forwarder"),
		queue:     make(chan events.Event, buffer),
		timeout:   defaultPublishTimeout,
	}
}

// Register subscribes the forwarder to every event type.
func (f *EventForwarder) Register(dispatcher events.Dispatcher) {
	for _, eventType := range events.AllEventTypes {
		dispatcher.Subscribe(eventType, f.enqueue)
	}
}

func (f *EventForwarder) enqueue(_ context.Context, event events.Event) error {
	select {
	case f.queue <- event:
	default:
		f.logger.Warn("event buffer full, dropping event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
	}
	return nil
}

// Run publishes buffered events until ctx is cancelled, then flushes what is
// still queued.
func (f *EventForwarder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			f.drain()
			return
		case event := <-f.queue:
			f.forward(event)
		}
	}
}

func (f *EventForwarder) drain() {
	for {
		select {
		case event := <-f.queue:
			f.forward(event)
		default:
			return
		}
	}
}

func (f *EventForwarder) forward(event events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()
	if err := f.publisher.Publish(ctx, event); err != nil {
		f.logger.Error("publish event failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}
