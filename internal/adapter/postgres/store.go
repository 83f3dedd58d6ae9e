package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/strategis-io/arbiter/internal/domain"
	"github.com/strategis-io/arbiter/internal/domain/decision"
	"github.com/strategis-io/arbiter/internal/port/journal"
)

// Store implements journal.Journal using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// RecordDecision inserts a journaled decision with a pending outcome.
func (s *Store) RecordDecision(ctx context.Context, rec *journal.Record) error {
	selected, err := json.Marshal(rec.SelectedOption)
	if err != nil {
		return fmt.Errorf("marshal selected option: %w", err)
	}
	alts, err := json.Marshal(rec.Alternatives)
	if err != nil {
		return fmt.Errorf("marshal alternatives: %w", err)
	}

	const q = `
		INSERT INTO decisions (id, selected_option, confidence, reasoning, alternatives, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := s.pool.Exec(ctx, q,
		rec.DecisionID, selected, rec.Confidence, rec.Reasoning, alts, rec.CreatedAt,
	); err != nil {
		return fmt.Errorf("record decision %s: %w", rec.DecisionID, err)
	}
	return nil
}

// RecordOutcome writes the reported actuals onto a journaled decision.
func (s *Store) RecordOutcome(ctx context.Context, decisionID string, o *decision.Outcome) error {
	const q = `
		UPDATE decisions
		SET actual_benefit = $2, actual_duration_ms = $3, success = $4, outcome_at = now()
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, q, decisionID, o.ActualBenefit, o.ActualDurationMS, o.Success)
	if err != nil {
		return fmt.Errorf("record outcome %s: %w", decisionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("record outcome %s: %w", decisionID, domain.ErrNotFound)
	}
	return nil
}

// ListRecent returns the most recently journaled decisions, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]journal.Record, error) {
	const q = `
		SELECT id, selected_option, confidence, reasoning, alternatives, created_at,
		       actual_benefit, actual_duration_ms, success, outcome_at
		FROM decisions
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var result []journal.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

func scanRecord(row pgx.Row) (journal.Record, error) {
	var (
		rec      journal.Record
		selected []byte
		alts     []byte
	)
	if err := row.Scan(
		&rec.DecisionID, &selected, &rec.Confidence, &rec.Reasoning, &alts, &rec.CreatedAt,
		&rec.ActualBenefit, &rec.ActualDurationMS, &rec.Success, &rec.OutcomeAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rec, domain.ErrNotFound
		}
		return rec, fmt.Errorf("scan decision: %w", err)
	}
	if err := json.Unmarshal(selected, &rec.SelectedOption); err != nil {
		return rec, fmt.Errorf("unmarshal selected option: %w", err)
	}
	if err := json.Unmarshal(alts, &rec.Alternatives); err != nil {
		return rec, fmt.Errorf("unmarshal alternatives: %w", err)
	}
	return rec, nil
}
