package entity

import (
	"time"

	"github.com/google/uuid"
)

type EventHeader struct {
	ID          string    `json:"id"`
	PublishedAt time.Time `json:"published_at"`
}

func NewEventHeader() EventHeader {
	return EventHeader{
		ID:          uuid.NewString(),
		PublishedAt: time.Now().UTC(),
	}
}

// TicketParked is published when a vehicle is checked in through the regular
// entry flow.
type TicketParked struct {
	Header       EventHeader `json:"header"`
	TicketID     string      `json:"ticket_id"`
	TicketCode   string      `json:"ticket_code"`
	LicensePlate string      `json:"license_plate"`
}

// VehicleExitRequested is published when an attendant requests checkout of a
// parked vehicle. Exactly one is emitted per ticket leaving "parked".
type VehicleExitRequested struct {
	Header       EventHeader `json:"header"`
	TicketID     string      `json:"ticket_id"`
	TicketCode   string      `json:"ticket_code"`
	LicensePlate string      `json:"license_plate"`
	RequestedAt  time.Time   `json:"requested_at"`
}

// QuickExitRequested is published for the unregistered-vehicle fallback flow.
type QuickExitRequested struct {
	Header       EventHeader `json:"header"`
	TicketID     string      `json:"ticket_id"`
	TicketCode   string      `json:"ticket_code"`
	LicensePlate string      `json:"license_plate"`
	RequestedAt  time.Time   `json:"requested_at"`
}

type VehicleReady struct {
	Header        EventHeader `json:"header"`
	TicketID      string      `json:"ticket_id"`
	TicketCode    string      `json:"ticket_code"`
	LicensePlate  string      `json:"license_plate"`
	AttendantName string      `json:"attendant_name"`
	ReadyAt       time.Time   `json:"ready_at"`
}

type VehicleDelivered struct {
	Header        EventHeader `json:"header"`
	TicketID      string      `json:"ticket_id"`
	TicketCode    string      `json:"ticket_code"`
	LicensePlate  string      `json:"license_plate"`
	AttendantName string      `json:"attendant_name"`
	DeliveredAt   time.Time   `json:"delivered_at"`
}
