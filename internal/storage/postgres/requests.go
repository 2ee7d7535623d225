package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"bloodLink/internal/domain"
	"bloodLink/pkg/e"
)

type RequestRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewRequestRepo(pool *pgxpool.Pool, logger *slog.Logger) *RequestRepo {
	return &RequestRepo{pool: pool, logger: logger}
}

const requestColumns = `
	id, draft_id, requester_id, patient_name, blood_group, units_needed, urgency_level,
	hospital_name, hospital_address, contact_person, contact_phone,
	medical_condition, additional_notes, required_by,
	ST_Y(geo_point::geometry) AS lat,
	ST_X(geo_point::geometry) AS lng,
	priority, respond_by, status, created_at`

func scanRequest(row pgx.Row) (*domain.BloodRequest, error) {
	var (
		r        domain.BloodRequest
		lat, lng *float64
	)
	if err := row.Scan(
		&r.ID,
		&r.DraftID,
		&r.RequesterID,
		&r.PatientName,
		&r.BloodGroup,
		&r.UnitsNeeded,
		&r.UrgencyLevel,
		&r.HospitalName,
		&r.HospitalAddress,
		&r.ContactPerson,
		&r.ContactPhone,
		&r.MedicalCondition,
		&r.AdditionalNotes,
		&r.RequiredBy,
		&lat,
		&lng,
		&r.Priority,
		&r.RespondBy,
		&r.Status,
		&r.CreatedAt,
	); err != nil {
		return nil, err
	}
	r.Location = pointFrom(lat, lng)
	r.Responses = []domain.DonorResponse{}
	return &r, nil
}

// SaveRequest inserts the request and any responses in one transaction.
func (p *RequestRepo) SaveRequest(ctx context.Context, r *domain.BloodRequest) error {
	const op = "postgres.Request.Save"

	if r == nil || r.ID == uuid.Nil || !r.Status.Valid() {
		return fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}

	const query = `
		INSERT INTO blood_requests (
			id, draft_id, requester_id, patient_name, blood_group, units_needed, urgency_level,
			hospital_name, hospital_address, contact_person, contact_phone,
			medical_condition, additional_notes, required_by, geo_point,
			priority, respond_by, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			ST_SetSRID(ST_MakePoint($15::float8, $16::float8), 4326), $17, $18, $19, $20)
	`
	lng, lat := pointArgs(r.Location)

	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query,
			r.ID,
			r.DraftID,
			r.RequesterID,
			r.PatientName,
			r.BloodGroup,
			r.UnitsNeeded,
			r.UrgencyLevel,
			r.HospitalName,
			r.HospitalAddress,
			r.ContactPerson,
			r.ContactPhone,
			r.MedicalCondition,
			r.AdditionalNotes,
			r.RequiredBy,
			lng,
			lat,
			r.Priority,
			r.RespondBy,
			r.Status,
			r.CreatedAt,
		); err != nil {
			return err
		}
		for _, resp := range r.Responses {
			if err := insertResponse(ctx, tx, r.ID, resp); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isDraftConflict(err) {
			return fmt.Errorf("%s: draft %s: %w", op, r.DraftID, e.ErrAlreadySubmitted)
		}
		p.logger.Error("db tx failed", slog.String("op", op), slog.Any("error", err), slog.String("id", r.ID.String()))
		return e.WrapError(ctx, op, err)
	}
	return nil
}

// isDraftConflict reports whether err is the unique index on draft_id firing.
func isDraftConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "blood_requests_draft_id_key"
}

func insertResponse(ctx context.Context, tx pgx.Tx, requestID uuid.UUID, resp domain.DonorResponse) error {
	const query = `
		INSERT INTO donor_responses (request_id, donor_id, donor_name, message, phone, responded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.Exec(ctx, query, requestID, resp.DonorID, resp.DonorName, resp.Message, resp.Phone, resp.RespondedAt)
	return err
}

func (p *RequestRepo) Get(ctx context.Context, id uuid.UUID) (*domain.BloodRequest, error) {
	const op = "postgres.Request.Get"

	query := `SELECT ` + requestColumns + ` FROM blood_requests WHERE id = $1`

	r, err := scanRequest(p.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		p.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err), slog.String("id", id.String()))
		return nil, e.WrapError(ctx, op, err)
	}

	if err := p.attachResponses(ctx, []*domain.BloodRequest{r}); err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	return r, nil
}

// ListActive returns active requests, most urgent first. The location filter
// is a literal case-insensitive substring match.
func (p *RequestRepo) ListActive(ctx context.Context, f domain.RequestFilter) ([]*domain.BloodRequest, error) {
	const op = "postgres.Request.ListActive"

	query := `SELECT ` + requestColumns + `
		FROM blood_requests
		WHERE status = 'active'
		  AND ($1::text = '' OR blood_group = $1)
		  AND ($2::text = '' OR strpos(lower(hospital_name), lower($2)) > 0 OR strpos(lower(hospital_address), lower($2)) > 0)
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		ORDER BY priority ASC, created_at DESC
	`

	items, err := p.query(ctx, query, string(f.BloodGroup), f.Location, f.Since)
	if err != nil {
		p.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	return items, nil
}

func (p *RequestRepo) List(ctx context.Context, page, limit int, status domain.RequestStatus) ([]*domain.BloodRequest, int64, error) {
	const op = "postgres.Request.List"

	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	const countQuery = `SELECT COUNT(*) FROM blood_requests WHERE ($1::text = '' OR status = $1)`

	var total int64
	if err := p.pool.QueryRow(ctx, countQuery, string(status)).Scan(&total); err != nil {
		p.logger.Error("db count failed", slog.String("op", op), slog.Any("error", err))
		return nil, 0, e.WrapError(ctx, op, err)
	}

	listQuery := `SELECT ` + requestColumns + `
		FROM blood_requests
		WHERE ($1::text = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	items, err := p.query(ctx, listQuery, string(status), limit, offset)
	if err != nil {
		p.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, 0, e.WrapError(ctx, op, err)
	}
	return items, total, nil
}

func (p *RequestRepo) query(ctx context.Context, query string, args ...any) ([]*domain.BloodRequest, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*domain.BloodRequest, 0, 16)
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if err := p.attachResponses(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (p *RequestRepo) attachResponses(ctx context.Context, items []*domain.BloodRequest) error {
	if len(items) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*domain.BloodRequest, len(items))
	ids := make([]string, 0, len(items))
	for _, r := range items {
		byID[r.ID] = r
		ids = append(ids, r.ID.String())
	}

	const query = `
		SELECT request_id, donor_id, donor_name, message, phone, responded_at
		FROM donor_responses
		WHERE request_id = ANY($1::uuid[])
		ORDER BY id
	`
	rows, err := p.pool.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			requestID uuid.UUID
			resp      domain.DonorResponse
		)
		if err := rows.Scan(&requestID, &resp.DonorID, &resp.DonorName, &resp.Message, &resp.Phone, &resp.RespondedAt); err != nil {
			return err
		}
		if r, ok := byID[requestID]; ok {
			r.Responses = append(r.Responses, resp)
		}
	}
	return rows.Err()
}

// AppendResponse adds a response only while the request is active.
func (p *RequestRepo) AppendResponse(ctx context.Context, id uuid.UUID, resp domain.DonorResponse) error {
	const op = "postgres.Request.AppendResponse"

	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		status, err := lockStatus(ctx, tx, id)
		if err != nil {
			return err
		}
		if status != domain.RequestActive {
			return e.ErrRequestClosed
		}
		return insertResponse(ctx, tx, id, resp)
	})
	return p.txError(ctx, op, id, err)
}

// UpdateStatus moves a request along the status machine.
func (p *RequestRepo) UpdateStatus(ctx context.Context, id uuid.UUID, next domain.RequestStatus) error {
	const op = "postgres.Request.UpdateStatus"

	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		status, err := lockStatus(ctx, tx, id)
		if err != nil {
			return err
		}
		if !status.CanTransitionTo(next) {
			return fmt.Errorf("%s -> %s: %w", status, next, e.ErrInvalidTransition)
		}
		_, err = tx.Exec(ctx, `UPDATE blood_requests SET status = $2 WHERE id = $1`, id, next)
		return err
	})
	return p.txError(ctx, op, id, err)
}

// ExpireDue marks active requests whose required_by has passed as expired.
func (p *RequestRepo) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	const op = "postgres.Request.ExpireDue"

	const query = `
		UPDATE blood_requests
		SET status = 'expired'
		WHERE status = 'active' AND required_by < $1
	`
	cmd, err := p.pool.Exec(ctx, query, now)
	if err != nil {
		p.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return 0, e.WrapError(ctx, op, err)
	}
	return cmd.RowsAffected(), nil
}

func lockStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID) (domain.RequestStatus, error) {
	var status domain.RequestStatus
	err := tx.QueryRow(ctx, `SELECT status FROM blood_requests WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", e.ErrNotFound
	}
	return status, err
}

// txError keeps domain sentinels returned from inside a transaction and maps the rest.
func (p *RequestRepo) txError(ctx context.Context, op string, id uuid.UUID, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, e.ErrNotFound), errors.Is(err, e.ErrRequestClosed), errors.Is(err, e.ErrInvalidTransition):
		return fmt.Errorf("%s: %w", op, err)
	}
	p.logger.Error("db tx failed", slog.String("op", op), slog.Any("error", err), slog.String("id", id.String()))
	return e.WrapError(ctx, op, err)
}
