package http

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"valet/entity"
)

type postCheckoutRequestRequest struct {
	TicketID string `json:"ticketId"`
}

type ticketResponse struct {
	OK     bool          `json:"ok"`
	Ticket entity.Ticket `json:"ticket"`
}

func (s *Server) PostCheckoutRequest(c echo.Context) error {
	var request postCheckoutRequestRequest
	if err := c.Bind(&request); err != nil {
		return validationError(c, map[string]string{"body": "invalid JSON body"})
	}

	if _, err := uuid.Parse(request.TicketID); err != nil {
		return validationError(c, map[string]string{"ticketId": "ticketId must be a valid id"})
	}

	ticket, err := s.lifecycle.RequestCheckout(c.Request().Context(), request.TicketID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, ticketResponse{OK: true, Ticket: ticket})
}

type postQuickExitRequest struct {
	TicketCode   string `json:"ticketCode"`
	LicensePlate string `json:"licensePlate"`
}

func (s *Server) PostQuickExit(c echo.Context) error {
	var request postQuickExitRequest
	if err := c.Bind(&request); err != nil {
		return validationError(c, map[string]string{"body": "invalid JSON body"})
	}

	if strings.TrimSpace(request.TicketCode) == "" {
		return validationError(c, map[string]string{"ticketCode": "ticketCode must not be empty"})
	}

	ticket, err := s.lifecycle.QuickExit(c.Request().Context(), request.TicketCode, request.LicensePlate)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, ticketResponse{OK: true, Ticket: ticket})
}
