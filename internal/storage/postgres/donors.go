package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bloodLink/internal/domain"
	"bloodLink/pkg/e"
)

type DonorRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewDonorRepo(pool *pgxpool.Pool, logger *slog.Logger) *DonorRepo {
	return &DonorRepo{pool: pool, logger: logger}
}

const donorColumns = `
	id, name, blood_group, phone, gender, location_name,
	ST_Y(geo_point::geometry) AS lat,
	ST_X(geo_point::geometry) AS lng,
	available, last_donation_date, created_at`

func scanDonor(row pgx.Row) (domain.DonorRecord, error) {
	var (
		d        domain.DonorRecord
		lat, lng *float64
	)
	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.BloodGroup,
		&d.Phone,
		&d.Gender,
		&d.LocationName,
		&lat,
		&lng,
		&d.Available,
		&d.LastDonationDate,
		&d.CreatedAt,
	)
	d.Location = pointFrom(lat, lng)
	return d, err
}

func (p *DonorRepo) Create(ctx context.Context, d *domain.DonorRecord) error {
	const op = "postgres.Donor.Create"

	if d == nil || !d.BloodGroup.Valid() {
		return fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO donors (id, name, blood_group, phone, gender, location_name, geo_point, available, last_donation_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, ST_SetSRID(ST_MakePoint($7::float8, $8::float8), 4326), $9, $10, $11)
	`
	lng, lat := pointArgs(d.Location)
	_, err := p.pool.Exec(ctx, query,
		d.ID,
		d.Name,
		d.BloodGroup,
		d.Phone,
		d.Gender,
		d.LocationName,
		lng,
		lat,
		d.Available,
		d.LastDonationDate,
		d.CreatedAt,
	)
	if err != nil {
		p.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return e.WrapError(ctx, op, err)
	}
	return nil
}

func (p *DonorRepo) Get(ctx context.Context, id uuid.UUID) (*domain.DonorRecord, error) {
	const op = "postgres.Donor.Get"

	query := `SELECT ` + donorColumns + ` FROM donors WHERE id = $1`

	d, err := scanDonor(p.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		p.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err), slog.String("id", id.String()))
		return nil, e.WrapError(ctx, op, err)
	}
	return &d, nil
}

func (p *DonorRepo) Update(ctx context.Context, d *domain.DonorRecord) error {
	const op = "postgres.Donor.Update"

	const query = `
		UPDATE donors
		SET phone              = $2,
			location_name      = $3,
			geo_point          = ST_SetSRID(ST_MakePoint($4::float8, $5::float8), 4326),
			available          = $6,
			last_donation_date = $7
		WHERE id = $1
	`
	lng, lat := pointArgs(d.Location)
	cmd, err := p.pool.Exec(ctx, query,
		d.ID,
		d.Phone,
		d.LocationName,
		lng,
		lat,
		d.Available,
		d.LastDonationDate,
	)
	if err != nil {
		p.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err), slog.String("id", d.ID.String()))
		return e.WrapError(ctx, op, err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, e.ErrNotFound)
	}
	return nil
}

// ListAll returns every donor ordered by id; filtering happens in matching.
func (p *DonorRepo) ListAll(ctx context.Context) ([]domain.DonorRecord, error) {
	const op = "postgres.Donor.ListAll"

	query := `SELECT ` + donorColumns + ` FROM donors ORDER BY id`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		p.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	donors := make([]domain.DonorRecord, 0, 64)
	for rows.Next() {
		d, err := scanDonor(rows)
		if err != nil {
			p.logger.Error("row scan failed", slog.String("op", op), slog.Any("error", err))
			return nil, e.WrapError(ctx, op, err)
		}
		donors = append(donors, d)
	}
	if err := rows.Err(); err != nil {
		p.logger.Error("rows err", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	return donors, nil
}
