package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"valet/entity"
)

type alertsResponse struct {
	OK        bool            `json:"ok"`
	Requested []entity.Ticket `json:"requested"`
	Ready     []entity.Ticket `json:"ready"`
}

type notificationsResponse struct {
	OK            bool                  `json:"ok"`
	Notifications []entity.Notification `json:"notifications"`
}

func (s *Server) GetAlerts(c echo.Context) error {
	requested, ready, err := s.lifecycle.Alerts(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}

	if requested == nil {
		requested = []entity.Ticket{}
	}
	if ready == nil {
		ready = []entity.Ticket{}
	}

	return c.JSON(http.StatusOK, alertsResponse{OK: true, Requested: requested, Ready: ready})
}

func (s *Server) GetNotifications(c echo.Context) error {
	notifications, err := s.notifications.FindAll(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, notificationsResponse{OK: true, Notifications: notifications})
}
