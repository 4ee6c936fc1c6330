package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/warp/cardledger/ledger"
)

// =============================================================================
// RECONCILIATION RUNS (ledger.RunStore interface)
// =============================================================================

// SaveReconciliationRun records one run outside any unit-of-work.
func (s *Store) SaveReconciliationRun(ctx context.Context, run ledger.ReconciliationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	discrepancies := run.Report.Discrepancies
	if discrepancies == nil {
		discrepancies = []ledger.Discrepancy{}
	}
	payload, err := json.Marshal(discrepancies)
	if err != nil {
		return fmt.Errorf("failed to encode discrepancies: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reconciliation_runs (id, source, checked_at, items_checked, gift_cards_checked,
			orders_checked, accounts_checked, discrepancy_count, discrepancies_json, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, fmtTime(run.Report.CheckedAt),
		run.Report.Items, run.Report.GiftCards, run.Report.Orders, run.Report.Accounts,
		len(run.Report.Discrepancies), string(payload), nullString(run.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to save reconciliation run: %w", err)
	}
	return nil
}

// ListReconciliationRuns returns the newest runs first. limit <= 0 lists all.
func (s *Store) ListReconciliationRuns(ctx context.Context, limit int) ([]ledger.ReconciliationRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		SELECT id, source, checked_at, items_checked, gift_cards_checked, orders_checked,
			accounts_checked, discrepancies_json, error
		FROM reconciliation_runs ORDER BY checked_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reconciliation runs: %w", err)
	}
	defer rows.Close()

	var out []ledger.ReconciliationRun
	for rows.Next() {
		var (
			run     ledger.ReconciliationRun
			payload string
		)
		if err := rows.Scan(&run.ID, &run.Source, timeCol{&run.Report.CheckedAt},
			&run.Report.Items, &run.Report.GiftCards, &run.Report.Orders, &run.Report.Accounts,
			&payload, textCol{&run.Error}); err != nil {
			return nil, fmt.Errorf("failed to scan reconciliation run: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &run.Report.Discrepancies); err != nil {
			return nil, fmt.Errorf("failed to decode discrepancies of run %s: %w", run.ID, err)
		}
		if len(run.Report.Discrepancies) == 0 {
			run.Report.Discrepancies = nil
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
