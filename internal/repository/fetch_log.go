package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"daily-leaderboard/internal/constants"
	"daily-leaderboard/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type FetchLogRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewFetchLogRepository(db *sql.DB, logger zerolog.Logger) *FetchLogRepository {
	return &FetchLogRepository{db: db, logger: logger}
}

const insertFetch = `
INSERT INTO fetch_log (id, month_key, source, status, day_count, row_count, byte_count, error_text, fetched_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectFetchColumns = `
SELECT id, month_key, source, status, day_count, row_count, byte_count, error_text, fetched_at FROM fetch_log`

// Record stores rec, assigning an id when it has none.
func (r *FetchLogRepository) Record(ctx context.Context, rec domain.FetchRecord) (domain.FetchRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if rec.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return rec, fmt.Errorf("failed to generate fetch id: %w", err)
		}
		rec.ID = id
	}
	if rec.FetchedAt.IsZero() {
		rec.FetchedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, insertFetch,
		rec.ID, rec.MonthKey, rec.Source, rec.Status,
		rec.Days, rec.Rows, rec.Bytes, rec.Error,
		rec.FetchedAt.UnixMilli(),
	)
	if err != nil {
		r.logger.Error().Err(err).Str("month", rec.MonthKey).Msg("failed to record fetch")
		return rec, fmt.Errorf("failed to record fetch: %w", err)
	}

	r.logger.Debug().
		Str("id", rec.ID).
		Str("month", rec.MonthKey).
		Str("status", rec.Status).
		Msg("fetch recorded")
	return rec, nil
}

// Recent lists the newest fetches first.
func (r *FetchLogRepository) Recent(ctx context.Context, limit int) ([]domain.FetchRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if limit <= 0 {
		limit = constants.FetchLogDefaultLimit
	}
	limit = min(limit, constants.FetchLogMaxLimit)

	rows, err := r.db.QueryContext(ctx, selectFetchColumns+` ORDER BY fetched_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list fetches: %w", err)
	}
	defer rows.Close()

	var out []domain.FetchRecord
	for rows.Next() {
		rec, err := scanFetch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fetches: %w", err)
	}
	return out, nil
}

// LastSuccess returns the newest successful fetch of key, or sql.ErrNoRows.
func (r *FetchLogRepository) LastSuccess(ctx context.Context, key string) (*domain.FetchRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx,
		selectFetchColumns+` WHERE month_key = ? AND status = ? ORDER BY fetched_at DESC, rowid DESC LIMIT 1`,
		key, domain.FetchStatusOK,
	)
	rec, err := scanFetch(row)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFetch(s scanner) (domain.FetchRecord, error) {
	var rec domain.FetchRecord
	var fetchedAt int64
	err := s.Scan(
		&rec.ID, &rec.MonthKey, &rec.Source, &rec.Status,
		&rec.Days, &rec.Rows, &rec.Bytes, &rec.Error,
		&fetchedAt,
	)
	if err == sql.ErrNoRows {
		return rec, err
	}
	if err != nil {
		return rec, fmt.Errorf("failed to scan fetch: %w", err)
	}
	rec.FetchedAt = time.UnixMilli(fetchedAt).UTC()
	return rec, nil
}
