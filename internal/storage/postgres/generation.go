package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"scriptgen/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// GenerationStore keeps the audit trail of written scripts.
type GenerationStore struct {
	db *sqlx.DB
}

func NewGenerationStore(db *sqlx.DB) *GenerationStore {
	return &GenerationStore{db: db}
}

func (s *GenerationStore) Insert(ctx context.Context, g *domain.Generation) error {
	query, args, err := psql.
		Insert("script_generations").
		Columns(
			"id", "job", "page_id", "title", "model",
			"prompt_tokens", "output_tokens", "block_count", "script_chars", "generated_at",
		).
		Values(
			g.ID, g.Job, g.PageID, g.Title, g.Model,
			g.PromptTokens, g.OutputTokens, g.BlockCount, g.ScriptChars, g.GeneratedAt,
		).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = GetExecutor(ctx, s.db).ExecContext(ctx, query, args...)
	return err
}
