package repository

import (
	"context"
	"fmt"

	"gardena/parser/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const createTableQuery = `
	CREATE TABLE IF NOT EXISTS catalog_products (
		run_id         UUID        NOT NULL,
		position       INTEGER     NOT NULL,
		article_number TEXT        NOT NULL,
		data           JSONB       NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (run_id, position)
	)`

const insertProductQuery = `
	INSERT INTO catalog_products (run_id, position, article_number, data)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (run_id, position)
	DO UPDATE SET article_number = $3, data = $4`

// DB is the subset of pgxpool.Pool the repository needs
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type ProductRepository interface {
	SaveSnapshot(ctx context.Context, runID uuid.UUID, records []domain.ProductRecord) error
}

type productRepository struct {
	db DB
}

func NewProductRepository(db DB) ProductRepository {
	return &productRepository{
		db: db,
	}
}

func (r *productRepository) SaveSnapshot(ctx context.Context, runID uuid.UUID, records []domain.ProductRecord) error {
	if _, err := r.db.Exec(ctx, createTableQuery); err != nil {
		return fmt.Errorf("failed to ensure catalog_products table: %w", err)
	}

	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, record := range records {
		batch.Queue(insertProductQuery, runID, i, record.ArticleNumber, record)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for i := range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to save product %d of run %s: %w", i, runID, err)
		}
	}

	return nil
}
