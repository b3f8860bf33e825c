package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"valet/entity"
)

type attendantRequest struct {
	AttendantName string `json:"attendantName"`
}

type ticketsResponse struct {
	OK      bool            `json:"ok"`
	Tickets []entity.Ticket `json:"tickets"`
}

func (s *Server) PostTicketReady(c echo.Context) error {
	ticketID := c.Param("id")
	if _, err := uuid.Parse(ticketID); err != nil {
		return validationError(c, map[string]string{"id": "id must be a valid id"})
	}

	// body is optional for this endpoint
	var request attendantRequest
	_ = c.Bind(&request)

	ticket, err := s.lifecycle.MarkReady(c.Request().Context(), ticketID, request.AttendantName)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, ticketResponse{OK: true, Ticket: ticket})
}

func (s *Server) PostTicketDelivered(c echo.Context) error {
	ticketID := c.Param("id")
	if _, err := uuid.Parse(ticketID); err != nil {
		return validationError(c, map[string]string{"id": "id must be a valid id"})
	}

	var request attendantRequest
	_ = c.Bind(&request)

	ticket, err := s.lifecycle.MarkDelivered(c.Request().Context(), ticketID, request.AttendantName)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, ticketResponse{OK: true, Ticket: ticket})
}

func (s *Server) GetActive(c echo.Context) error {
	tickets, err := s.lifecycle.ListActive(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, ticketsResponse{OK: true, Tickets: tickets})
}

func (s *Server) GetHistory(c echo.Context) error {
	tickets, err := s.lifecycle.ListDelivered(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, ticketsResponse{OK: true, Tickets: tickets})
}
