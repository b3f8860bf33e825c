package entity

import (
	"time"
)

type Status string

const (
	StatusParked    Status = "parked"
	StatusRequested Status = "requested"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
)

type MediaType string

const (
	MediaTypePhoto MediaType = "photo"
	MediaTypeVideo MediaType = "video"
)

// MaxMediaItems is the cap on media attached to a single ticket. Extra items
// sent by the client are silently dropped.
const MaxMediaItems = 10

type Ticket struct {
	ID                    string     `json:"id" db:"ticket_id"`
	TicketCode            *string    `json:"ticketCode" db:"ticket_code"`
	LicensePlate          string     `json:"licensePlate" db:"license_plate"`
	ParkingSpot           *string    `json:"parkingSpot" db:"parking_spot"`
	Notes                 *string    `json:"notes" db:"notes"`
	CheckinAttendantName  *string    `json:"checkinAttendantName" db:"checkin_attendant_name"`
	DeliveryAttendantName *string    `json:"deliveryAttendantName" db:"delivery_attendant_name"`
	Status                Status     `json:"status" db:"status"`
	WasRegistered         bool       `json:"wasRegistered" db:"was_registered"`
	CheckinTime           time.Time  `json:"checkinTime" db:"checkin_time"`
	RequestedTime         *time.Time `json:"requestedTime" db:"requested_time"`
	ReadyTime             *time.Time `json:"readyTime" db:"ready_time"`
	DeliveredTime         *time.Time `json:"deliveredTime" db:"delivered_time"`
	CheckoutTime          *time.Time `json:"checkoutTime" db:"checkout_time"`

	MediaItems []MediaItem `json:"mediaItems" db:"-"`
}

// Code returns the ticket code or "" when the ticket has none.
func (t Ticket) Code() string {
	if t.TicketCode == nil {
		return ""
	}
	return *t.TicketCode
}

type MediaItem struct {
	ID        string    `json:"id" db:"media_item_id"`
	TicketID  string    `json:"ticketId" db:"ticket_id"`
	Type      MediaType `json:"type" db:"media_type"`
	URL       string    `json:"url" db:"url"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
