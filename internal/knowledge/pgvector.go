package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"brandguardian/internal/logging"
)

const defaultPGVectorTable = "brand_rules"

// PGVectorStore stores rule passages in a Postgres table with a vector column.
type PGVectorStore struct {
	pool   *pgxpool.Pool
	table  string
	logger *slog.Logger
}

// OpenPGVectorStore connects to dsn, ensures the extension and table exist,
// and returns a pooled store.
func OpenPGVectorStore(ctx context.Context, dsn, table string, dimensions int, logger *slog.Logger) (*PGVectorStore, error) {
	if strings.TrimSpace(table) == "" {
		table = defaultPGVectorTable
	}
	logger = logging.NewComponentLogger(logger, "pgvector")

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	for _, stmt := range pgvectorSchema(table, dimensions) {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			_ = conn.Close(ctx)
			return nil, fmt.Errorf("ensure pgvector schema: %w", err)
		}
	}
	_ = conn.Close(ctx)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	logger.Debug("pgvector store ready", logging.String("table", table))
	return &PGVectorStore{pool: pool, table: table, logger: logger}, nil
}

func pgvectorSchema(table string, dimensions int) []string {
	ident := pgx.Identifier{table}.Sanitize()
	index := pgx.Identifier{table + "_embedding_idx"}.Sanitize()
	vectorType := "vector"
	if dimensions > 0 {
		vectorType = fmt.Sprintf("vector(%d)", dimensions)
	}
	return []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			embedding %s,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, ident, vectorType),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)", index, ident),
	}
}

func pgvectorSearchSQL(table string) string {
	return fmt.Sprintf(`SELECT id, content, source, 1 - (embedding <=> $1) AS similarity
		FROM %s
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2`, pgx.Identifier{table}.Sanitize())
}

func pgvectorUpsertSQL(table string) string {
	return fmt.Sprintf(`INSERT INTO %s (id, content, source, embedding, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			source = EXCLUDED.source,
			embedding = EXCLUDED.embedding,
			updated_at = now()`, pgx.Identifier{table}.Sanitize())
}

// Search ranks rows by cosine distance to the query vector.
func (s *PGVectorStore) Search(ctx context.Context, query Query) ([]Match, error) {
	if len(query.Vector) == 0 {
		return nil, fmt.Errorf("pgvector search requires a query embedding")
	}
	rows, err := s.pool.Query(ctx, pgvectorSearchSQL(s.table), pgvector.NewVector(query.Vector), query.TopK)
	if err != nil {
		return nil, fmt.Errorf("pgvector search: %w", err)
	}
	defer rows.Close()

	matches := []Match{}
	for rows.Next() {
		var match Match
		if err := rows.Scan(&match.ID, &match.Content, &match.Source, &match.Score); err != nil {
			return nil, fmt.Errorf("pgvector scan: %w", err)
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgvector rows: %w", err)
	}
	return matches, nil
}

// Upsert writes documents in one batch.
func (s *PGVectorStore) Upsert(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	stmt := pgvectorUpsertSQL(s.table)
	batch := &pgx.Batch{}
	for _, doc := range docs {
		batch.Queue(stmt, doc.ID, doc.Content, doc.Source, pgvector.NewVector(doc.Vector))
	}
	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range docs {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("pgvector upsert: %w", err)
		}
	}
	return nil
}

// Close releases the pool.
func (s *PGVectorStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
