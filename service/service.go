package service

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"valet/db"
	"valet/db/events"
	"valet/db/notifications"
	"valet/db/outbox"
	"valet/db/tickets"
	"valet/http"
	"valet/lifecycle"
	"valet/pubsub"
	"valet/pubsub/event"
)

func init() {
	log.Init(logrus.InfoLevel)
}

type Service struct {
	db              *sqlx.DB
	watermillRouter *message.Router
	httpServer      *http.Server
}

func New(
	addr string,
	dbConn *sqlx.DB,
	redisClient *redis.Client,
) Service {
	watermillLogger := log.NewWatermill(log.FromContext(context.Background()))

	redisPublisher := pubsub.NewRedisPublisher(redisClient, watermillLogger)

	ticketsRepo := tickets.NewPostgresRepository(dbConn, watermillLogger)
	notificationsRepo := notifications.NewPostgresRepository(dbConn)
	eventsRepo := events.NewPostgresRepository(dbConn)

	lifecycleService := lifecycle.NewService(ticketsRepo)

	eventsHandler := event.NewHandler(notificationsRepo)
	eventProcessorConfig := event.NewProcessorConfig(redisClient, watermillLogger)

	postgresSubscriber, err := outbox.NewPostgresSubscriber(dbConn.DB, watermillLogger)
	if err != nil {
		panic(fmt.Errorf("failed to create postgres subscriber: %w", err))
	}

	splitterSubscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        redisClient,
		ConsumerGroup: "svc-valet.events_splitter",
	}, watermillLogger)
	if err != nil {
		panic(fmt.Errorf("failed to create redis subscriber: %w", err))
	}

	auditSubscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        redisClient,
		ConsumerGroup: "svc-valet.audit",
	}, watermillLogger)
	if err != nil {
		panic(fmt.Errorf("failed to create redis subscriber: %w", err))
	}

	watermillRouter, err := pubsub.NewWatermillRouter(
		postgresSubscriber,
		redisPublisher,
		splitterSubscriber,
		auditSubscriber,
		eventProcessorConfig,
		eventsHandler,
		eventsRepo,
		watermillLogger,
	)
	if err != nil {
		panic(fmt.Errorf("failed to create watermill router: %w", err))
	}

	httpServer := http.NewServer(
		addr,
		lifecycleService,
		notificationsRepo,
	)

	return Service{
		dbConn,
		watermillRouter,
		httpServer,
	}
}

func (s Service) Run(ctx context.Context) error {
	if err := db.InitializeDatabaseSchema(s.db); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.watermillRouter.Run(ctx)
	})

	g.Go(func() error {
		// the HTTP server must not report healthy before the router runs
		<-s.watermillRouter.Running()

		return s.httpServer.Run(ctx)
	})

	return g.Wait()
}
