package events

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"valet/entity"
)

// PostgresRepository archives every published lifecycle event as-is, as an
// audit trail independent of the ticket rows.
type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Store(ctx context.Context, event entity.Event) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO events (event_id, published_at, event_name, event_payload)
		VALUES (:event_id, :published_at, :event_name, :event_payload)
		ON CONFLICT DO NOTHING
	`, event)
	if err != nil {
		return fmt.Errorf("could not store event: %w", err)
	}
	return nil
}
