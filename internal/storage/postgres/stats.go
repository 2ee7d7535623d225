package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"bloodLink/internal/domain"
	"bloodLink/pkg/e"
)

type StatsRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewStats(pool *pgxpool.Pool, logger *slog.Logger) *StatsRepo {
	return &StatsRepo{pool: pool, logger: logger}
}

func (p *StatsRepo) CountByStatus(ctx context.Context) (map[domain.RequestStatus]int64, error) {
	const op = "postgres.Stats.CountByStatus"

	const query = `SELECT status, COUNT(*) FROM blood_requests GROUP BY status`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		p.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	out := map[domain.RequestStatus]int64{
		domain.RequestActive:    0,
		domain.RequestFulfilled: 0,
		domain.RequestExpired:   0,
	}
	for rows.Next() {
		var (
			status domain.RequestStatus
			cnt    int64
		)
		if err := rows.Scan(&status, &cnt); err != nil {
			p.logger.Error("row scan failed", slog.String("op", op), slog.Any("error", err))
			return nil, e.WrapError(ctx, op, err)
		}
		out[status] = cnt
	}
	if err := rows.Err(); err != nil {
		p.logger.Error("rows err", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	return out, nil
}

func (p *StatsRepo) CountDonors(ctx context.Context) (int64, int64, error) {
	const op = "postgres.Stats.CountDonors"

	const query = `SELECT COUNT(*), COUNT(*) FILTER (WHERE available) FROM donors`

	var total, available int64
	if err := p.pool.QueryRow(ctx, query).Scan(&total, &available); err != nil {
		p.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err))
		return 0, 0, e.WrapError(ctx, op, err)
	}
	return total, available, nil
}
