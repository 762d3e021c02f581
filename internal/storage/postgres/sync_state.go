package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"scriptgen/internal/domain"
)

type SyncStateStore struct {
	db *sqlx.DB
}

func NewSyncStateStore(db *sqlx.DB) *SyncStateStore {
	return &SyncStateStore{db: db}
}

func (s *SyncStateStore) Get(ctx context.Context, job string) (*domain.SyncState, error) {
	query, args, err := psql.
		Select("id", "job", "last_synced_at", "last_page_id", "total_completed").
		From("sync_state").
		Where(sq.Eq{"job": job}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var state domain.SyncState
	err = sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &state, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		// First run of this job.
		return &domain.SyncState{Job: job}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *SyncStateStore) Update(ctx context.Context, state *domain.SyncState) error {
	query, args, err := psql.
		Insert("sync_state").
		Columns("job", "last_synced_at", "last_page_id", "total_completed").
		Values(state.Job, state.LastSyncedAt, state.LastPageID, state.TotalCompleted).
		Suffix(`ON CONFLICT (job) DO UPDATE SET
			last_synced_at = EXCLUDED.last_synced_at,
			last_page_id = EXCLUDED.last_page_id,
			total_completed = EXCLUDED.total_completed`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	_, err = GetExecutor(ctx, s.db).ExecContext(ctx, query, args...)
	return err
}
