package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"PolicyScanner/internal/domain"
	"PolicyScanner/internal/ports"
)

// AnalysisRepository mirrors completed analyses into Postgres for audit
// and reporting. It is not on the read path; the file-backed cache stays
// the sole read-through store.
type AnalysisRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.AnalysisRepository = (*AnalysisRepository)(nil)

// NewAnalysisRepository wires a sql.DB implementation. A nil db disables
// persistence; every method becomes a no-op.
func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// SaveAnalysis upserts the analysis snapshot keyed by content hash.
func (r *AnalysisRepository) SaveAnalysis(ctx context.Context, rec domain.AnalysisRecord) error {
	if r.db == nil {
		return nil
	}

	query, args, err := r.builder.
		Insert("analyses").
		Columns("content_hash", "source_url", "score", "summary", "red_flags", "provider").
		Values(rec.Key, rec.SourceURL, rec.Score, rec.Summary, pq.StringArray(rec.RedFlags), rec.Provider).
		Suffix(`ON CONFLICT (content_hash) DO UPDATE
                SET source_url = EXCLUDED.source_url,
                    score = EXCLUDED.score,
                    summary = EXCLUDED.summary,
                    red_flags = EXCLUDED.red_flags,
                    provider = EXCLUDED.provider,
                    updated_at = NOW()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert analysis: %w", err)
	}

	return nil
}
