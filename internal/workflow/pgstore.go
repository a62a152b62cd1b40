package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pitabwire/msaada/model"
)

// PgStore is a PostgreSQL-backed RequestStore and FieldVisitStore using
// pgx/v5.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a new PostgreSQL store.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// Ping verifies database connectivity.
func (s *PgStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- RequestStore ---

// CreateRequest inserts a new request.
func (s *PgStore) CreateRequest(ctx context.Context, req model.Request) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO requests (
			id, ticket_number, type, title, description, status, region,
			field_officer_id, program_manager_id, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		req.ID, req.TicketNumber, req.Type, req.Title, req.Description,
		req.Status, req.Region, nullable(req.FieldOfficerID),
		nullable(req.ProgramManagerID), req.Version, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

// GetRequest retrieves a request by ID.
func (s *PgStore) GetRequest(ctx context.Context, id string) (model.Request, error) {
	var req model.Request
	var fieldOfficer, programManager *string

	err := s.pool.QueryRow(ctx, `
		SELECT id, ticket_number, type, title, description, status, region,
		       field_officer_id, program_manager_id, version, created_at, updated_at
		FROM requests
		WHERE id = $1`,
		id,
	).Scan(
		&req.ID, &req.TicketNumber, &req.Type, &req.Title, &req.Description,
		&req.Status, &req.Region, &fieldOfficer, &programManager,
		&req.Version, &req.CreatedAt, &req.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Request{}, model.NewNotFoundError(fmt.Sprintf("request %q not found", id))
	}
	if err != nil {
		return model.Request{}, fmt.Errorf("query request: %w", err)
	}

	if fieldOfficer != nil {
		req.FieldOfficerID = *fieldOfficer
	}
	if programManager != nil {
		req.ProgramManagerID = *programManager
	}
	return req, nil
}

// UpdateRequest persists an updated request with optimistic locking on the
// version column. The ticket number is never part of the update.
func (s *PgStore) UpdateRequest(ctx context.Context, req model.Request) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE requests SET
			status = $1,
			region = $2,
			field_officer_id = $3,
			program_manager_id = $4,
			version = $5,
			updated_at = $6
		WHERE id = $7 AND version = $8`,
		req.Status, req.Region, nullable(req.FieldOfficerID),
		nullable(req.ProgramManagerID), req.Version+1,
		time.Now().UTC(), req.ID, req.Version,
	)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewConflictError(
			fmt.Sprintf("request %q version conflict (expected %d)", req.ID, req.Version),
		)
	}
	return nil
}

// ListRequests returns requests matching the filters, newest first.
func (s *PgStore) ListRequests(ctx context.Context, filters RequestFilters) ([]model.Request, error) {
	query := `
		SELECT id, ticket_number, type, title, description, status, region,
		       field_officer_id, program_manager_id, version, created_at, updated_at
		FROM requests
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR region = $2)
		ORDER BY created_at DESC`
	args := []any{string(filters.Status), filters.Region}

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, filters.Limit)
	}
	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", len(args)+1)
		args = append(args, filters.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var result []model.Request
	for rows.Next() {
		var req model.Request
		var fieldOfficer, programManager *string
		if err := rows.Scan(
			&req.ID, &req.TicketNumber, &req.Type, &req.Title, &req.Description,
			&req.Status, &req.Region, &fieldOfficer, &programManager,
			&req.Version, &req.CreatedAt, &req.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		if fieldOfficer != nil {
			req.FieldOfficerID = *fieldOfficer
		}
		if programManager != nil {
			req.ProgramManagerID = *programManager
		}
		result = append(result, req)
	}
	return result, rows.Err()
}

// AppendEvent inserts a transition event.
func (s *PgStore) AppendEvent(ctx context.Context, event model.TransitionEvent) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO transition_events (
			id, request_id, from_status, to_status, actor_id, actor_role, comment, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID, event.RequestID, event.From, event.To,
		event.ActorID, event.ActorRole, event.Comment, event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert transition event: %w", err)
	}
	return nil
}

// Events retrieves a request's transition events, oldest first.
func (s *PgStore) Events(ctx context.Context, requestID string) ([]model.TransitionEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, request_id, from_status, to_status, actor_id, actor_role, comment, created_at
		FROM transition_events
		WHERE request_id = $1
		ORDER BY created_at ASC`,
		requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("query transition events: %w", err)
	}
	defer rows.Close()

	var result []model.TransitionEvent
	for rows.Next() {
		var event model.TransitionEvent
		if err := rows.Scan(
			&event.ID, &event.RequestID, &event.From, &event.To,
			&event.ActorID, &event.ActorRole, &event.Comment, &event.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan transition event: %w", err)
		}
		result = append(result, event)
	}
	return result, rows.Err()
}

// --- FieldVisitStore ---

// CreateVisit inserts a new field visit.
func (s *PgStore) CreateVisit(ctx context.Context, visit model.FieldVisit) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO field_visits (
			id, request_id, officer_id, scheduled_at, status, priority,
			report_submitted, report_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		visit.ID, nullable(visit.RequestID), visit.OfficerID, visit.ScheduledAt,
		visit.Status, visit.Priority, visit.ReportSubmitted,
		nullable(visit.ReportID), visit.CreatedAt, visit.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert field visit: %w", err)
	}
	return nil
}

// GetVisit retrieves a visit by ID.
func (s *PgStore) GetVisit(ctx context.Context, id string) (model.FieldVisit, error) {
	visit, err := s.scanVisit(s.pool.QueryRow(ctx, `
		SELECT id, request_id, officer_id, scheduled_at, status, priority,
		       report_submitted, report_id, created_at, updated_at
		FROM field_visits
		WHERE id = $1`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.FieldVisit{}, model.NewNotFoundError(fmt.Sprintf("visit %q not found", id))
	}
	if err != nil {
		return model.FieldVisit{}, fmt.Errorf("query field visit: %w", err)
	}
	return visit, nil
}

// UpdateVisit persists an updated visit.
func (s *PgStore) UpdateVisit(ctx context.Context, visit model.FieldVisit) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE field_visits SET
			scheduled_at = $1,
			status = $2,
			priority = $3,
			report_submitted = $4,
			report_id = $5,
			updated_at = $6
		WHERE id = $7`,
		visit.ScheduledAt, visit.Status, visit.Priority,
		visit.ReportSubmitted, nullable(visit.ReportID),
		time.Now().UTC(), visit.ID,
	)
	if err != nil {
		return fmt.Errorf("update field visit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewNotFoundError(fmt.Sprintf("visit %q not found", visit.ID))
	}
	return nil
}

// VisitForRequest returns the most recent visit linked to a request.
func (s *PgStore) VisitForRequest(ctx context.Context, requestID string) (model.FieldVisit, error) {
	visit, err := s.scanVisit(s.pool.QueryRow(ctx, `
		SELECT id, request_id, officer_id, scheduled_at, status, priority,
		       report_submitted, report_id, created_at, updated_at
		FROM field_visits
		WHERE request_id = $1
		ORDER BY created_at DESC
		LIMIT 1`,
		requestID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.FieldVisit{}, model.NewNotFoundError(
			fmt.Sprintf("no visit linked to request %q", requestID),
		)
	}
	if err != nil {
		return model.FieldVisit{}, fmt.Errorf("query linked visit: %w", err)
	}
	return visit, nil
}

// ListVisits returns visits for an officer, soonest first.
func (s *PgStore) ListVisits(ctx context.Context, officerID string) ([]model.FieldVisit, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, request_id, officer_id, scheduled_at, status, priority,
		       report_submitted, report_id, created_at, updated_at
		FROM field_visits
		WHERE ($1 = '' OR officer_id = $1)
		ORDER BY scheduled_at ASC`,
		officerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list field visits: %w", err)
	}
	defer rows.Close()

	var result []model.FieldVisit
	for rows.Next() {
		visit, err := s.scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan field visit: %w", err)
		}
		result = append(result, visit)
	}
	return result, rows.Err()
}

func (s *PgStore) scanVisit(row pgx.Row) (model.FieldVisit, error) {
	var visit model.FieldVisit
	var requestID, reportID *string

	err := row.Scan(
		&visit.ID, &requestID, &visit.OfficerID, &visit.ScheduledAt,
		&visit.Status, &visit.Priority, &visit.ReportSubmitted,
		&reportID, &visit.CreatedAt, &visit.UpdatedAt,
	)
	if err != nil {
		return model.FieldVisit{}, err
	}
	if requestID != nil {
		visit.RequestID = *requestID
	}
	if reportID != nil {
		visit.ReportID = *reportID
	}
	return visit, nil
}

// nullable maps empty strings to NULL so optional references stay NULL in
// the database.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
