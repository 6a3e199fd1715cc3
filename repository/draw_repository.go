package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"diadesorte/database"
	"diadesorte/domain/entities"
	"diadesorte/domain/interfaces"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

const drawColumns = `
	contest_number, draw_date, numbers, draw_order, lucky_month, arrecadation,
	accumulated, next_contest_number, next_draw_date, next_estimated_prize, created_at
`

// DrawRepository implements draw persistence on Postgres
type DrawRepository struct {
	db *database.DB
	q  Queryable
}

// NewDrawRepository creates a draw repository on the connection pool
func NewDrawRepository(db *database.DB) *DrawRepository {
	return &DrawRepository{db: db, q: db.Pool}
}

// NewDrawRepositoryScoped creates a draw repository bound to a transaction
func NewDrawRepositoryScoped(tx Queryable) *DrawRepository {
	return &DrawRepository{q: tx}
}

var _ interfaces.DrawRepository = (*DrawRepository)(nil)

// Upsert inserts a draw or refreshes the stored copy of the same contest
func (r *DrawRepository) Upsert(ctx context.Context, draw *entities.Draw) error {
	if err := draw.Validate(); err != nil {
		return fmt.Errorf("invalid draw: %w", err)
	}

	query := `
		INSERT INTO draws (
			contest_number, draw_date, numbers, draw_order, lucky_month, arrecadation,
			accumulated, next_contest_number, next_draw_date, next_estimated_prize
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (contest_number) DO UPDATE SET
			draw_date = EXCLUDED.draw_date,
			numbers = EXCLUDED.numbers,
			draw_order = EXCLUDED.draw_order,
			lucky_month = EXCLUDED.lucky_month,
			arrecadation = EXCLUDED.arrecadation,
			accumulated = EXCLUDED.accumulated,
			next_contest_number = EXCLUDED.next_contest_number,
			next_draw_date = EXCLUDED.next_draw_date,
			next_estimated_prize = EXCLUDED.next_estimated_prize,
			updated_at = NOW()
		RETURNING created_at
	`

	drawOrder := draw.DrawOrder
	if drawOrder == nil {
		drawOrder = []int{}
	}

	err := r.q.QueryRow(ctx, query,
		draw.ContestNumber,
		draw.DrawDate,
		draw.Numbers,
		drawOrder,
		draw.LuckyMonth,
		draw.Arrecadation,
		draw.Accumulated,
		nullableInt64(draw.NextContestNumber),
		draw.NextDrawDate,
		nullableFloat64(draw.NextEstimatedPrize),
	).Scan(&draw.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert draw %d: %w", draw.ContestNumber, err)
	}

	return nil
}

// UpsertMany stores draws in one transaction and returns how many were written
func (r *DrawRepository) UpsertMany(ctx context.Context, draws []*entities.Draw) (int, error) {
	if len(draws) == 0 {
		return 0, nil
	}

	write := func(q Queryable) error {
		scoped := NewDrawRepositoryScoped(q)
		for _, draw := range draws {
			if err := scoped.Upsert(ctx, draw); err != nil {
				return err
			}
		}
		return nil
	}

	// Scoped repositories already run inside the caller's transaction
	if r.db == nil {
		if err := write(r.q); err != nil {
			return 0, err
		}
		return len(draws), nil
	}

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		return write(tx)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upsert %d draws: %w", len(draws), err)
	}

	log.WithField("count", len(draws)).Debug("Upserted draws")
	return len(draws), nil
}

// GetByContest returns nil, nil when the contest is not stored
func (r *DrawRepository) GetByContest(ctx context.Context, contestNumber int64) (*entities.Draw, error) {
	query := `SELECT ` + drawColumns + ` FROM draws WHERE contest_number = $1`

	draw, err := scanDraw(r.q.QueryRow(ctx, query, contestNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draw %d: %w", contestNumber, err)
	}
	return draw, nil
}

// GetLatest returns the stored draw with the highest contest number
func (r *DrawRepository) GetLatest(ctx context.Context) (*entities.Draw, error) {
	query := `SELECT ` + drawColumns + ` FROM draws ORDER BY contest_number DESC LIMIT 1`

	draw, err := scanDraw(r.q.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest draw: %w", err)
	}
	return draw, nil
}

// List returns up to limit draws, newest first; limit <= 0 returns all
func (r *DrawRepository) List(ctx context.Context, limit int) ([]*entities.Draw, error) {
	query := `SELECT ` + drawColumns + ` FROM draws ORDER BY contest_number DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list draws: %w", err)
	}
	defer rows.Close()

	draws := []*entities.Draw{}
	for rows.Next() {
		draw, err := scanDraw(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draw: %w", err)
		}
		draws = append(draws, draw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate draws: %w", err)
	}

	return draws, nil
}

// Count returns how many draws are stored
func (r *DrawRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM draws`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count draws: %w", err)
	}
	return count, nil
}

func scanDraw(row pgx.Row) (*entities.Draw, error) {
	var (
		draw        entities.Draw
		nextContest *int64
		nextPrize   *float64
		nextDate    *time.Time
	)

	err := row.Scan(
		&draw.ContestNumber,
		&draw.DrawDate,
		&draw.Numbers,
		&draw.DrawOrder,
		&draw.LuckyMonth,
		&draw.Arrecadation,
		&draw.Accumulated,
		&nextContest,
		&nextDate,
		&nextPrize,
		&draw.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if nextContest != nil {
		draw.NextContestNumber = *nextContest
	}
	if nextPrize != nil {
		draw.NextEstimatedPrize = *nextPrize
	}
	draw.NextDrawDate = nextDate
	return &draw, nil
}

func nullableInt64(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

func nullableFloat64(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}
