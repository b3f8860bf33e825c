// Package lifecycle enforces the ticket state machine:
// parked → requested → ready → delivered.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"valet/db/tickets"
	"valet/entity"
	"valet/metrics"
)

type TicketsRepository interface {
	Create(ctx context.Context, ticket entity.Ticket, media []entity.MediaItem) error
	FindByID(ctx context.Context, ticketID string) (entity.Ticket, error)
	FindActiveDuplicate(ctx context.Context, ticketCode string) (*entity.Ticket, error)
	FindManyActive(ctx context.Context, search string) ([]entity.Ticket, error)
	FindManyDelivered(ctx context.Context, search string) ([]entity.Ticket, error)
	FindRequestedAndReady(ctx context.Context) (requested, ready []entity.Ticket, err error)
	UpdateToRequested(ctx context.Context, ticketID string, requestedAt time.Time) error
	UpdateToReady(ctx context.Context, ticketID string, readyAt time.Time, attendantName *string) error
	UpdateToDelivered(ctx context.Context, ticketID string, deliveredAt time.Time, attendantName *string) error
}

type Service struct {
	repo TicketsRepository
}

func NewService(repo TicketsRepository) *Service {
	return &Service{repo: repo}
}

type EntryInput struct {
	TicketCode    string
	LicensePlate  string
	ParkingSpot   string
	AttendantName string
	Notes         string
	Media         []MediaInput
}

type MediaInput struct {
	Type entity.MediaType
	URL  string
}

type EntryResult struct {
	Duplicate bool
	Ticket    entity.Ticket
}

// Entry checks a vehicle in. When an active ticket already carries the same
// code the existing ticket is returned with Duplicate set and nothing is
// inserted: a second scan of the same ticket is not an error.
func (s *Service) Entry(ctx context.Context, input EntryInput) (EntryResult, error) {
	code := strings.TrimSpace(input.TicketCode)

	duplicate, err := s.repo.FindActiveDuplicate(ctx, code)
	if err != nil {
		return EntryResult{}, err
	}
	if duplicate != nil {
		return EntryResult{Duplicate: true, Ticket: *duplicate}, nil
	}

	now := time.Now().UTC()
	ticket := entity.Ticket{
		ID:                   uuid.NewString(),
		TicketCode:           optional(code),
		LicensePlate:         upper(input.LicensePlate),
		ParkingSpot:          optional(upper(input.ParkingSpot)),
		Notes:                optional(strings.TrimSpace(input.Notes)),
		CheckinAttendantName: optional(strings.TrimSpace(input.AttendantName)),
		Status:               entity.StatusParked,
		WasRegistered:        true,
		CheckinTime:          now,
	}

	media := input.Media
	if len(media) > entity.MaxMediaItems {
		media = media[:entity.MaxMediaItems]
	}
	items := lo.Map(media, func(m MediaInput, _ int) entity.MediaItem {
		return entity.MediaItem{
			ID:        uuid.NewString(),
			TicketID:  ticket.ID,
			Type:      m.Type,
			URL:       m.URL,
			CreatedAt: now,
		}
	})

	err = s.repo.Create(ctx, ticket, items)
	if errors.Is(err, tickets.ErrActiveCodeExists) {
		// Lost the race against a concurrent entry with the same code.
		// The unique index is the authoritative duplicate check.
		duplicate, dupErr := s.repo.FindActiveDuplicate(ctx, code)
		if dupErr != nil {
			return EntryResult{}, dupErr
		}
		if duplicate == nil {
			return EntryResult{}, err
		}
		return EntryResult{Duplicate: true, Ticket: *duplicate}, nil
	}
	if err != nil {
		return EntryResult{}, fmt.Errorf("could not create entry: %w", err)
	}

	metrics.TicketsCreated.WithLabelValues("entry").Inc()

	created, err := s.repo.FindByID(ctx, ticket.ID)
	if err != nil {
		return EntryResult{}, err
	}
	return EntryResult{Duplicate: false, Ticket: created}, nil
}

// RequestCheckout moves a parked ticket to "requested".
func (s *Service) RequestCheckout(ctx context.Context, ticketID string) (entity.Ticket, error) {
	if err := s.repo.UpdateToRequested(ctx, ticketID, time.Now().UTC()); err != nil {
		return entity.Ticket{}, err
	}
	metrics.TicketTransitions.WithLabelValues(string(entity.StatusRequested)).Inc()
	return s.repo.FindByID(ctx, ticketID)
}

// QuickExit creates a fresh ticket directly in "requested" for a vehicle that
// was never checked in. It deliberately skips the duplicate check.
func (s *Service) QuickExit(ctx context.Context, ticketCode, licensePlate string) (entity.Ticket, error) {
	plate := upper(licensePlate)
	if plate == "" {
		plate = "-"
	}

	now := time.Now().UTC()
	ticket := entity.Ticket{
		ID:            uuid.NewString(),
		TicketCode:    optional(strings.TrimSpace(ticketCode)),
		LicensePlate:  plate,
		Status:        entity.StatusRequested,
		WasRegistered: false,
		CheckinTime:   now,
		RequestedTime: &now,
	}

	if err := s.repo.Create(ctx, ticket, nil); err != nil {
		return entity.Ticket{}, fmt.Errorf("could not create quick exit ticket: %w", err)
	}
	metrics.TicketsCreated.WithLabelValues("quick_exit").Inc()

	return s.repo.FindByID(ctx, ticket.ID)
}

func (s *Service) MarkReady(ctx context.Context, ticketID, attendantName string) (entity.Ticket, error) {
	err := s.repo.UpdateToReady(ctx, ticketID, time.Now().UTC(), optional(strings.TrimSpace(attendantName)))
	if err != nil {
		return entity.Ticket{}, err
	}
	metrics.TicketTransitions.WithLabelValues(string(entity.StatusReady)).Inc()
	return s.repo.FindByID(ctx, ticketID)
}

func (s *Service) MarkDelivered(ctx context.Context, ticketID, attendantName string) (entity.Ticket, error) {
	err := s.repo.UpdateToDelivered(ctx, ticketID, time.Now().UTC(), optional(strings.TrimSpace(attendantName)))
	if err != nil {
		return entity.Ticket{}, err
	}
	metrics.TicketTransitions.WithLabelValues(string(entity.StatusDelivered)).Inc()
	return s.repo.FindByID(ctx, ticketID)
}

func (s *Service) ListActive(ctx context.Context, search string) ([]entity.Ticket, error) {
	return s.repo.FindManyActive(ctx, strings.TrimSpace(search))
}

func (s *Service) ListDelivered(ctx context.Context, search string) ([]entity.Ticket, error) {
	return s.repo.FindManyDelivered(ctx, strings.TrimSpace(search))
}

// Alerts is the attendant-facing worklist projection: tickets awaiting pickup
// preparation and tickets ready to hand over. Recomputed on every call.
func (s *Service) Alerts(ctx context.Context) (requested, ready []entity.Ticket, err error) {
	return s.repo.FindRequestedAndReady(ctx)
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
