package db

import (
	"context"
	"time"

	"github.com/lib/pq"

	"github.com/Spok95/curriculum-sync/internal/models"
)

// GetSyncStates отметки по списку scope. Отсутствующие в map не попадают.
func GetSyncStates(ctx context.Context, q Querier, scopes []string) (map[string]models.SyncState, error) {
	out := make(map[string]models.SyncState, len(scopes))
	if len(scopes) == 0 {
		return out, nil
	}
	rows, err := q.QueryContext(ctx, `
		SELECT scope, last_success_at, last_attempt_at, last_error, run_id, stats
		FROM sync_state
		WHERE scope = ANY($1)
	`, pq.Array(scopes))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			st    models.SyncState
			stats []byte
		)
		if err := rows.Scan(&st.Scope, &st.LastSuccessAt, &st.LastAttemptAt, &st.LastError, &st.RunID, &stats); err != nil {
			return nil, err
		}
		if len(stats) > 0 {
			st.Stats = stats
		}
		out[st.Scope] = st
	}
	return out, rows.Err()
}

// MarkSyncSuccess пишется в транзакции элемента: коммитится вместе с данными.
func MarkSyncSuccess(ctx context.Context, q Querier, scope, runID string, at time.Time, stats []byte) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO sync_state (scope, last_success_at, last_attempt_at, last_error, run_id, stats)
		VALUES ($1, $2, $2, NULL, $3, $4)
		ON CONFLICT (scope) DO UPDATE
		SET last_success_at = EXCLUDED.last_success_at,
		    last_attempt_at = EXCLUDED.last_attempt_at,
		    last_error = NULL,
		    run_id = EXCLUDED.run_id,
		    stats = EXCLUDED.stats
	`, scope, at, runID, nullJSON(stats))
	return err
}

// MarkSyncFailure пишется после отката, мимо транзакции элемента.
// last_success_at не трогаем.
func MarkSyncFailure(ctx context.Context, q Querier, scope, runID string, at time.Time, msg string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO sync_state (scope, last_attempt_at, last_error, run_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (scope) DO UPDATE
		SET last_attempt_at = EXCLUDED.last_attempt_at,
		    last_error = EXCLUDED.last_error,
		    run_id = EXCLUDED.run_id
	`, scope, at, msg, runID)
	return err
}
