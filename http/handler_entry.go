package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"valet/entity"
	"valet/lifecycle"
)

type mediaItemRequest struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type postEntryRequest struct {
	TicketCode    string             `json:"ticketCode"`
	LicensePlate  string             `json:"licensePlate"`
	ParkingSpot   string             `json:"parkingSpot"`
	AttendantName string             `json:"attendantName"`
	Notes         string             `json:"notes"`
	Media         []mediaItemRequest `json:"media"`
}

type postEntryResponse struct {
	OK        bool          `json:"ok"`
	Duplicate bool          `json:"duplicate"`
	Ticket    entity.Ticket `json:"ticket"`
}

func (s *Server) PostEntry(c echo.Context) error {
	var request postEntryRequest
	if err := c.Bind(&request); err != nil {
		return validationError(c, map[string]string{"body": "invalid JSON body"})
	}

	fields := map[string]string{}
	if strings.TrimSpace(request.TicketCode) == "" {
		fields["ticketCode"] = "ticketCode must not be empty"
	}
	if strings.TrimSpace(request.LicensePlate) == "" {
		fields["licensePlate"] = "licensePlate must not be empty"
	}
	for _, item := range request.Media {
		if item.Type != string(entity.MediaTypePhoto) && item.Type != string(entity.MediaTypeVideo) {
			fields["media"] = "media type must be photo or video"
		} else if item.URL == "" {
			fields["media"] = "media url must not be empty"
		}
	}
	if len(fields) > 0 {
		return validationError(c, fields)
	}

	result, err := s.lifecycle.Entry(c.Request().Context(), lifecycle.EntryInput{
		TicketCode:    request.TicketCode,
		LicensePlate:  request.LicensePlate,
		ParkingSpot:   request.ParkingSpot,
		AttendantName: request.AttendantName,
		Notes:         request.Notes,
		Media: lo.Map(request.Media, func(m mediaItemRequest, _ int) lifecycle.MediaInput {
			return lifecycle.MediaInput{Type: entity.MediaType(m.Type), URL: m.URL}
		}),
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, postEntryResponse{
		OK:        true,
		Duplicate: result.Duplicate,
		Ticket:    result.Ticket,
	})
}
