package pubsub

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"

	"valet/db/outbox"
	"valet/entity"
	"valet/pubsub/event"
)

type EventsRepository interface {
	Store(ctx context.Context, event entity.Event) error
}

func NewWatermillRouter(
	postgresSubscriber message.Subscriber,
	redisPublisher message.Publisher,
	splitterSubscriber message.Subscriber,
	auditSubscriber message.Subscriber,
	eventProcessorConfig cqrs.EventProcessorConfig,
	eventsHandler event.Handler,
	eventsRepo EventsRepository,
	watermillLogger watermill.LoggerAdapter,
) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		return nil, fmt.Errorf("could not create router: %w", err)
	}

	useMiddlewares(router, watermillLogger)

	// moves events committed through the Postgres outbox onto the broker
	if err := outbox.AddForwarderHandler(postgresSubscriber, redisPublisher, router, watermillLogger); err != nil {
		return nil, fmt.Errorf("could not add forwarder handler: %w", err)
	}

	eventProcessor, err := cqrs.NewEventProcessorWithConfig(router, eventProcessorConfig)
	if err != nil {
		return nil, fmt.Errorf("could not create event processor: %w", err)
	}

	err = eventProcessor.AddHandlers(
		eventsHandler.StoreExitRequestedNotificationHandler(),
		eventsHandler.StoreQuickExitNotificationHandler(),
	)
	if err != nil {
		return nil, fmt.Errorf("could not add handlers to event processor: %w", err)
	}

	router.AddNoPublisherHandler(
		"events_splitter",
		"events",
		splitterSubscriber,
		func(msg *message.Message) error {
			eventName := eventProcessorConfig.Marshaler.NameFromMessage(msg)
			if eventName == "" {
				return fmt.Errorf("could not get event name from message")
			}

			return redisPublisher.Publish("events."+eventName, msg)
		},
	)

	router.AddNoPublisherHandler(
		"store_to_audit_log",
		"events",
		auditSubscriber,
		func(msg *message.Message) error {
			eventName := eventProcessorConfig.Marshaler.NameFromMessage(msg)
			if eventName == "" {
				return fmt.Errorf("could not get event name from message")
			}

			// only the header needs decoding, the payload is archived as is
			type envelope struct {
				Header entity.EventHeader `json:"header"`
			}

			var e envelope
			if err := eventProcessorConfig.Marshaler.Unmarshal(msg, &e); err != nil {
				return fmt.Errorf("could not unmarshal event header: %w", err)
			}

			return eventsRepo.Store(
				msg.Context(),
				entity.Event{
					ID:          e.Header.ID,
					PublishedAt: e.Header.PublishedAt,
					Name:        eventName,
					Payload:     string(msg.Payload),
				},
			)
		},
	)

	return router, nil
}
