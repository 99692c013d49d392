package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/desh1993/fitness-mvp/internal/events"
	"github.com/desh1993/fitness-mvp/internal/observability"
)

// ActivityService keeps an audit trail of member writes.
type ActivityService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewActivityService creates the service.
func NewActivityService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *ActivityService {
	return &ActivityService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (a *ActivityService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventMemberCreated, a.handleMemberActivity)
	a.dispatcher.Subscribe(events.EventMemberUpdated, a.handleMemberActivity)
	a.dispatcher.Subscribe(events.EventMemberDeleted, a.handleMemberActivity)
}

func (a *ActivityService) handleMemberActivity(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Int64("member_id", event.MemberID),
		zap.Time("at", event.Timestamp),
		zap.Any("payload", event.Payload),
	}
	if event.ActorID != nil {
		fields = append(fields, zap.Int64("actor_id", *event.ActorID))
	}
	a.logger.Info("member activity", fields...)
	a.metrics.RecordMemberWrite(strings.TrimPrefix(string(event.Type), "member_"))
	return nil
}
