package notifications

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"valet/entity"
)

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Store appends a notification. ON CONFLICT DO NOTHING keeps redelivered
// events from producing duplicate rows: the id is derived from the event id.
func (r *PostgresRepository) Store(ctx context.Context, notification entity.Notification) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO notifications (notification_id, ticket_id, ticket_code, license_plate, message, created_at)
		VALUES (:notification_id, :ticket_id, :ticket_code, :license_plate, :message, :created_at)
		ON CONFLICT DO NOTHING
	`, notification)
	if err != nil {
		return fmt.Errorf("could not store notification: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindAll(ctx context.Context) ([]entity.Notification, error) {
	var result []entity.Notification
	err := r.db.SelectContext(ctx, &result, `
		SELECT notification_id, ticket_id, ticket_code, license_plate, message, created_at
		FROM notifications
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("could not list notifications: %w", err)
	}
	if result == nil {
		result = []entity.Notification{}
	}
	return result, nil
}
