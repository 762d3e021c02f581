package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"scriptgen/internal/domain"
)

type RecordStore interface {
	FindRecordsByStatus(ctx context.Context, status domain.Status) ([]domain.Record, error)
	UpdateRecord(ctx context.Context, id string, blocks []domain.Block, newStatus domain.Status, ts time.Time) error
}

type ScriptGenerator interface {
	Generate(ctx context.Context, title, description string) (*domain.Script, error)
}

type GenerationStore interface {
	Insert(ctx context.Context, g *domain.Generation) error
}

type SyncStateStore interface {
	Get(ctx context.Context, job string) (*domain.SyncState, error)
	Update(ctx context.Context, state *domain.SyncState) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, msg *domain.ScriptReady) error
	Close() error
}
