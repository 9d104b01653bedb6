package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/westservices/ticketd/internal/config"
	"github.com/westservices/ticketd/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleEvent("TicketCreated"))
	n.dispatcher.Subscribe(events.EventTicketClaimed, n.handleEvent("TicketClaimed"))
	n.dispatcher.Subscribe(events.EventTicketClosed, n.handleEvent("TicketClosed"))
	n.dispatcher.Subscribe(events.EventTicketRated, n.handleEvent("TicketRated"))
	n.dispatcher.Subscribe(events.EventBlacklistUpdated, n.handleEvent("BlacklistUpdated"))
}

func (n *NotificationService) handleEvent(name string) events.EventHandler {
	return func(ctx context.Context, event events.Event) error {
		n.logger.Info(name,
			zap.String("ticket_id", event.TicketID),
			zap.String("actor_id", event.ActorID),
			zap.Any("payload", event.Payload))
		n.sendWebhookNotificationStub(ctx, event)
		return nil
	}
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
