package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS tickets (
	ticket_id UUID PRIMARY KEY,
	ticket_code VARCHAR(64),
	license_plate VARCHAR(32) NOT NULL,
	parking_spot VARCHAR(32),
	notes TEXT,
	checkin_attendant_name VARCHAR(255),
	delivery_attendant_name VARCHAR(255),
	status VARCHAR(16) NOT NULL DEFAULT 'parked',
	was_registered BOOLEAN NOT NULL DEFAULT TRUE,
	checkin_time TIMESTAMPTZ NOT NULL DEFAULT now(),
	requested_time TIMESTAMPTZ,
	ready_time TIMESTAMPTZ,
	delivered_time TIMESTAMPTZ,
	checkout_time TIMESTAMPTZ
);

-- The active-duplicate invariant: a non-empty code may appear on at most one
-- not-yet-delivered registered ticket. Quick-exit tickets (was_registered =
-- false) are exempt, since that flow bypasses duplicate detection.
CREATE UNIQUE INDEX IF NOT EXISTS tickets_active_code_unique
	ON tickets (ticket_code)
	WHERE status != 'delivered' AND was_registered AND ticket_code IS NOT NULL;

CREATE TABLE IF NOT EXISTS media_items (
	media_item_id UUID PRIMARY KEY,
	ticket_id UUID NOT NULL REFERENCES tickets (ticket_id) ON DELETE CASCADE,
	media_type VARCHAR(8) NOT NULL,
	url TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS notifications (
	notification_id UUID PRIMARY KEY,
	ticket_id UUID,
	ticket_code VARCHAR(64),
	license_plate VARCHAR(32),
	message TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS events (
	event_id UUID PRIMARY KEY,
	published_at TIMESTAMPTZ NOT NULL,
	event_name VARCHAR(255) NOT NULL,
	event_payload JSONB NOT NULL
);
`

func InitializeDatabaseSchema(db *sqlx.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("could not initialize database schema: %w", err)
	}
	return nil
}
