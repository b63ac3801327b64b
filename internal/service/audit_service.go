package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/operalog/api/internal/events"
)

// AuditService writes an audit trail of domain events to the log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{dispatcher: dispatcher, logger: logger.Named("audit")}
}

// RegisterHandlers subscribes to every event type.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		a.dispatcher.Subscribe(eventType, a.handle)
	}
}

func (a *AuditService) handle(_ context.Context, event events.Event) error {
	a.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.Int64("resource_id", event.ResourceID),
		zap.String("actor_type", string(event.Actor.Type)),
		zap.Int64("actor_id", event.Actor.ID),
		zap.Any("payload", event.Payload))
	return nil
}
