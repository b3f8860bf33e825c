package http

import (
	"context"
	"errors"
	"net/http"

	echoHTTP "github.com/ThreeDotsLabs/go-event-driven/common/http"
	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"valet/entity"
	"valet/lifecycle"
)

type LifecycleService interface {
	Entry(ctx context.Context, input lifecycle.EntryInput) (lifecycle.EntryResult, error)
	RequestCheckout(ctx context.Context, ticketID string) (entity.Ticket, error)
	QuickExit(ctx context.Context, ticketCode, licensePlate string) (entity.Ticket, error)
	MarkReady(ctx context.Context, ticketID, attendantName string) (entity.Ticket, error)
	MarkDelivered(ctx context.Context, ticketID, attendantName string) (entity.Ticket, error)
	ListActive(ctx context.Context, search string) ([]entity.Ticket, error)
	ListDelivered(ctx context.Context, search string) ([]entity.Ticket, error)
	Alerts(ctx context.Context) (requested, ready []entity.Ticket, err error)
}

type NotificationsRepository interface {
	FindAll(ctx context.Context) ([]entity.Notification, error)
}

type Server struct {
	addr          string
	e             *echo.Echo
	lifecycle     LifecycleService
	notifications NotificationsRepository
}

func NewServer(
	addr string,
	lifecycleService LifecycleService,
	notificationsRepo NotificationsRepository,
) *Server {
	e := echoHTTP.NewEcho()
	e.Use(otelecho.Middleware("valet"))

	server := &Server{
		addr:          addr,
		e:             e,
		lifecycle:     lifecycleService,
		notifications: notificationsRepo,
	}

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.POST("/entry", server.PostEntry)
	api.GET("/active", server.GetActive)
	api.GET("/history", server.GetHistory)
	api.POST("/checkout/request", server.PostCheckoutRequest)
	api.POST("/checkout/quick-exit", server.PostQuickExit)
	api.POST("/tickets/:id/ready", server.PostTicketReady)
	api.POST("/tickets/:id/delivered", server.PostTicketDelivered)
	api.GET("/alerts", server.GetAlerts)
	api.GET("/notifications", server.GetNotifications)

	return server
}

func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		err := s.e.Shutdown(ctx)
		if err != nil {
			log.FromContext(ctx).WithError(err).Error("failed to shutdown HTTP server")
		}
	}()
	log.FromContext(ctx).WithField("addr", s.addr).Info("[HTTP] server listening")
	if err := s.e.Start(s.addr); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
