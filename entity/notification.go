package entity

import "time"

// Notification is an append-only audit record of a lifecycle event. It
// references the ticket loosely (denormalized code and plate) so it stays
// meaningful even without the ticket row.
type Notification struct {
	ID           string    `json:"id" db:"notification_id"`
	TicketID     *string   `json:"ticketId" db:"ticket_id"`
	TicketCode   *string   `json:"ticketCode" db:"ticket_code"`
	LicensePlate *string   `json:"licensePlate" db:"license_plate"`
	Message      string    `json:"message" db:"message"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

const (
	NotificationExitRequested = "Vehículo solicitado para entrega."
	NotificationQuickExit     = "Salida rápida solicitada."
)
