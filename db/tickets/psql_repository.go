package tickets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"valet/db/outbox"
	"valet/entity"
	"valet/pubsub/bus"
)

// ErrActiveCodeExists is returned by Create when the partial unique index on
// active ticket codes rejects the insert. It is the storage-level form of the
// duplicate check; callers treat it as "already checked in", not a failure.
var ErrActiveCodeExists = errors.New("an active ticket with this code already exists")

const ticketColumns = `
	ticket_id, ticket_code, license_plate, parking_spot, notes,
	checkin_attendant_name, delivery_attendant_name, status, was_registered,
	checkin_time, requested_time, ready_time, delivered_time, checkout_time
`

type PostgresRepository struct {
	db     *sqlx.DB
	logger watermill.LoggerAdapter
}

func NewPostgresRepository(db *sqlx.DB, logger watermill.LoggerAdapter) *PostgresRepository {
	return &PostgresRepository{db: db, logger: logger}
}

// Create inserts a ticket together with its media items and publishes the
// matching lifecycle event, all in one transaction. Registered tickets announce
// TicketParked, quick-exit tickets announce QuickExitRequested.
func (r *PostgresRepository) Create(ctx context.Context, ticket entity.Ticket, media []entity.MediaItem) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			rollbackErr := tx.Rollback()
			err = errors.Join(err, rollbackErr)
			return
		}
		err = tx.Commit()
	}()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO tickets (
			ticket_id, ticket_code, license_plate, parking_spot, notes,
			checkin_attendant_name, status, was_registered, checkin_time, requested_time
		)
		VALUES (
			:ticket_id, :ticket_code, :license_plate, :parking_spot, :notes,
			:checkin_attendant_name, :status, :was_registered, :checkin_time, :requested_time
		)
	`, ticket)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrActiveCodeExists
		}
		return fmt.Errorf("could not insert ticket: %w", err)
	}

	for _, item := range media {
		item.TicketID = ticket.ID
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO media_items (media_item_id, ticket_id, media_type, url, created_at)
			VALUES (:media_item_id, :ticket_id, :media_type, :url, :created_at)
		`, item)
		if err != nil {
			return fmt.Errorf("could not insert media item: %w", err)
		}
	}

	if ticket.WasRegistered {
		err = r.publish(ctx, tx.Tx, entity.TicketParked{
			Header:       entity.NewEventHeader(),
			TicketID:     ticket.ID,
			TicketCode:   ticket.Code(),
			LicensePlate: ticket.LicensePlate,
		})
	} else {
		var requestedAt time.Time
		if ticket.RequestedTime != nil {
			requestedAt = *ticket.RequestedTime
		}
		err = r.publish(ctx, tx.Tx, entity.QuickExitRequested{
			Header:       entity.NewEventHeader(),
			TicketID:     ticket.ID,
			TicketCode:   ticket.Code(),
			LicensePlate: ticket.LicensePlate,
			RequestedAt:  requestedAt,
		})
	}
	if err != nil {
		return fmt.Errorf("could not publish event: %w", err)
	}

	return nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, ticketID string) (entity.Ticket, error) {
	var ticket entity.Ticket
	err := r.db.GetContext(ctx, &ticket, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE ticket_id = $1
	`, ticketID)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Ticket{}, entity.ErrNotFound
	}
	if err != nil {
		return entity.Ticket{}, fmt.Errorf("could not get ticket: %w", err)
	}

	withMedia, err := r.attachMedia(ctx, []entity.Ticket{ticket})
	if err != nil {
		return entity.Ticket{}, err
	}
	return withMedia[0], nil
}

// FindActiveDuplicate returns a not-yet-delivered ticket carrying the given
// code, or nil. An empty code never matches: codeless tickets store NULL.
func (r *PostgresRepository) FindActiveDuplicate(ctx context.Context, ticketCode string) (*entity.Ticket, error) {
	if ticketCode == "" {
		return nil, nil
	}

	var ticket entity.Ticket
	err := r.db.GetContext(ctx, &ticket, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE ticket_code = $1 AND status != 'delivered'
		ORDER BY checkin_time DESC
		LIMIT 1
	`, ticketCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not look up duplicate: %w", err)
	}

	withMedia, err := r.attachMedia(ctx, []entity.Ticket{ticket})
	if err != nil {
		return nil, err
	}
	return &withMedia[0], nil
}

func (r *PostgresRepository) FindManyActive(ctx context.Context, search string) ([]entity.Ticket, error) {
	return r.findManyByStatus(ctx, entity.StatusParked, search, "checkin_time DESC")
}

func (r *PostgresRepository) FindManyDelivered(ctx context.Context, search string) ([]entity.Ticket, error) {
	return r.findManyByStatus(ctx, entity.StatusDelivered, search, "delivered_time DESC")
}

func (r *PostgresRepository) findManyByStatus(ctx context.Context, status entity.Status, search, orderBy string) ([]entity.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE status = $1
	`
	args := []any{status}

	if search != "" {
		query += ` AND (ticket_code ILIKE $2 OR license_plate ILIKE $2)`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY ` + orderBy

	var tickets []entity.Ticket
	if err := r.db.SelectContext(ctx, &tickets, query, args...); err != nil {
		return nil, fmt.Errorf("could not list tickets: %w", err)
	}

	return r.attachMedia(ctx, tickets)
}

// FindRequestedAndReady runs both worklist queries concurrently. Both sets are
// ordered by requested time descending, matching the alert panel's ordering.
func (r *PostgresRepository) FindRequestedAndReady(ctx context.Context) (requested, ready []entity.Ticket, err error) {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		requested, err = r.findByStatusOrderedByRequested(ctx, entity.StatusRequested)
		return err
	})
	g.Go(func() error {
		var err error
		ready, err = r.findByStatusOrderedByRequested(ctx, entity.StatusReady)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return requested, ready, nil
}

func (r *PostgresRepository) findByStatusOrderedByRequested(ctx context.Context, status entity.Status) ([]entity.Ticket, error) {
	var tickets []entity.Ticket
	err := r.db.SelectContext(ctx, &tickets, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE status = $1
		ORDER BY requested_time DESC NULLS LAST
	`, status)
	if err != nil {
		return nil, fmt.Errorf("could not list %s tickets: %w", status, err)
	}
	return r.attachMedia(ctx, tickets)
}

// UpdateToRequested moves a parked ticket to "requested" and stamps the
// request time. The row is locked for the duration of the transaction, so two
// racing checkout requests cannot both pass the transition check.
func (r *PostgresRepository) UpdateToRequested(ctx context.Context, ticketID string, requestedAt time.Time) error {
	return r.transition(ctx, ticketID, entity.StatusRequested, func(tx *sqlx.Tx, current entity.Ticket) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE tickets
			SET status = 'requested', requested_time = $2
			WHERE ticket_id = $1
		`, ticketID, requestedAt)
		if err != nil {
			return err
		}

		return r.publish(ctx, tx.Tx, entity.VehicleExitRequested{
			Header:       entity.NewEventHeader(),
			TicketID:     current.ID,
			TicketCode:   current.Code(),
			LicensePlate: current.LicensePlate,
			RequestedAt:  requestedAt,
		})
	})
}

func (r *PostgresRepository) UpdateToReady(ctx context.Context, ticketID string, readyAt time.Time, attendantName *string) error {
	return r.transition(ctx, ticketID, entity.StatusReady, func(tx *sqlx.Tx, current entity.Ticket) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE tickets
			SET status = 'ready', ready_time = $2, delivery_attendant_name = $3
			WHERE ticket_id = $1
		`, ticketID, readyAt, attendantName)
		if err != nil {
			return err
		}

		return r.publish(ctx, tx.Tx, entity.VehicleReady{
			Header:        entity.NewEventHeader(),
			TicketID:      current.ID,
			TicketCode:    current.Code(),
			LicensePlate:  current.LicensePlate,
			AttendantName: stringValue(attendantName),
			ReadyAt:       readyAt,
		})
	})
}

// UpdateToDelivered finishes the lifecycle. Delivered and checkout times are
// set together, to the same instant.
func (r *PostgresRepository) UpdateToDelivered(ctx context.Context, ticketID string, deliveredAt time.Time, attendantName *string) error {
	return r.transition(ctx, ticketID, entity.StatusDelivered, func(tx *sqlx.Tx, current entity.Ticket) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE tickets
			SET status = 'delivered', delivered_time = $2, checkout_time = $2, delivery_attendant_name = $3
			WHERE ticket_id = $1
		`, ticketID, deliveredAt, attendantName)
		if err != nil {
			return err
		}

		return r.publish(ctx, tx.Tx, entity.VehicleDelivered{
			Header:        entity.NewEventHeader(),
			TicketID:      current.ID,
			TicketCode:    current.Code(),
			LicensePlate:  current.LicensePlate,
			AttendantName: stringValue(attendantName),
			DeliveredAt:   deliveredAt,
		})
	})
}

// transition runs one locked read-check-write cycle: SELECT ... FOR UPDATE,
// validate against the transition table, then apply. entity.ErrNotFound and
// entity.ErrConflict surface unchanged.
func (r *PostgresRepository) transition(
	ctx context.Context,
	ticketID string,
	target entity.Status,
	apply func(tx *sqlx.Tx, current entity.Ticket) error,
) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			rollbackErr := tx.Rollback()
			err = errors.Join(err, rollbackErr)
			return
		}
		err = tx.Commit()
	}()

	var current entity.Ticket
	err = tx.GetContext(ctx, &current, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE ticket_id = $1
		FOR UPDATE
	`, ticketID)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("could not lock ticket: %w", err)
	}

	if !entity.CanTransition(current.Status, target) {
		return fmt.Errorf("%w: %s -> %s", entity.ErrConflict, current.Status, target)
	}

	if err = apply(tx, current); err != nil {
		return fmt.Errorf("could not apply transition to %s: %w", target, err)
	}

	return nil
}

func (r *PostgresRepository) publish(ctx context.Context, tx *sql.Tx, event any) error {
	publisher, err := outbox.NewPublisherForTx(ctx, tx, r.logger)
	if err != nil {
		return fmt.Errorf("could not create outbox publisher: %w", err)
	}

	eventBus, err := bus.NewEventBus(publisher)
	if err != nil {
		return fmt.Errorf("could not create event bus: %w", err)
	}

	return eventBus.Publish(ctx, event)
}

// attachMedia eagerly loads media items for all given tickets in one query.
// Every returned ticket has a non-nil MediaItems slice.
func (r *PostgresRepository) attachMedia(ctx context.Context, tickets []entity.Ticket) ([]entity.Ticket, error) {
	if len(tickets) == 0 {
		return []entity.Ticket{}, nil
	}

	ids := lo.Map(tickets, func(t entity.Ticket, _ int) string { return t.ID })

	query, args, err := sqlx.In(`
		SELECT media_item_id, ticket_id, media_type, url, created_at
		FROM media_items
		WHERE ticket_id IN (?)
		ORDER BY created_at
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("could not build media query: %w", err)
	}

	var items []entity.MediaItem
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("could not load media items: %w", err)
	}

	byTicket := lo.GroupBy(items, func(item entity.MediaItem) string { return item.TicketID })
	for i := range tickets {
		tickets[i].MediaItems = byTicket[tickets[i].ID]
		if tickets[i].MediaItems == nil {
			tickets[i].MediaItems = []entity.MediaItem{}
		}
	}
	return tickets, nil
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
