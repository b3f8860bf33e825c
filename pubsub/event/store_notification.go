package event

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"

	"valet/entity"
)

// StoreExitRequestedNotificationHandler appends the attendant-facing alert
// record for a checkout request. The notification id reuses the event id, so
// redeliveries collapse into one row.
func (h Handler) StoreExitRequestedNotificationHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"StoreExitRequestedNotification",
		func(ctx context.Context, event *entity.VehicleExitRequested) error {
			log.FromContext(ctx).
				WithField("ticket_id", event.TicketID).
				Info("Storing exit-requested notification")

			err := h.notificationsRepo.Store(ctx, entity.Notification{
				ID:           event.Header.ID,
				TicketID:     &event.TicketID,
				TicketCode:   optional(event.TicketCode),
				LicensePlate: optional(event.LicensePlate),
				Message:      entity.NotificationExitRequested,
				CreatedAt:    event.Header.PublishedAt,
			})
			if err != nil {
				return fmt.Errorf("failed to store notification: %w", err)
			}
			return nil
		},
	)
}

func (h Handler) StoreQuickExitNotificationHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"StoreQuickExitNotification",
		func(ctx context.Context, event *entity.QuickExitRequested) error {
			log.FromContext(ctx).
				WithField("ticket_id", event.TicketID).
				Info("Storing quick-exit notification")

			err := h.notificationsRepo.Store(ctx, entity.Notification{
				ID:           event.Header.ID,
				TicketID:     &event.TicketID,
				TicketCode:   optional(event.TicketCode),
				LicensePlate: optional(event.LicensePlate),
				Message:      entity.NotificationQuickExit,
				CreatedAt:    event.Header.PublishedAt,
			})
			if err != nil {
				return fmt.Errorf("failed to store notification: %w", err)
			}
			return nil
		},
	)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
