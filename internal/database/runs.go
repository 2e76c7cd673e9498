package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrRunNotFound is returned when a run ID has no row.
var ErrRunNotFound = errors.New("run not found")

// RunRecord is the persisted form of a scrape run.
type RunRecord struct {
	ID            string     `db:"id"`
	ListingURLs   []string   `db:"listing_urls"`
	MaxPages      int        `db:"max_pages"`
	Status        string     `db:"status"`
	ProductsFound int        `db:"products_found"`
	Error         *string    `db:"error"`
	CreatedAt     time.Time  `db:"created_at"`
	StartedAt     *time.Time `db:"started_at"`
	CompletedAt   *time.Time `db:"completed_at"`
}

// RunProduct is one output record attached to a run, kept in extraction
// order.
type RunProduct struct {
	RunID    string `db:"run_id"`
	Position int    `db:"position"`
	Name     string `db:"name"`
	Price    string `db:"price"`
	Size     string `db:"size"`
}

// RunRepository persists scrape runs and their products.
type RunRepository struct {
	db *DB
}

func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// Insert creates the run row in its initial state.
func (r *RunRepository) Insert(ctx context.Context, run *RunRecord) error {
	query := `
		INSERT INTO scrape_runs (id, listing_urls, max_pages, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query,
		run.ID, run.ListingURLs, run.MaxPages, run.Status, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// MarkStarted transitions a run to running.
func (r *RunRepository) MarkStarted(ctx context.Context, runID string, at time.Time) error {
	query := `UPDATE scrape_runs SET status = 'running', started_at = $1 WHERE id = $2`
	_, err := r.db.Exec(ctx, query, at, runID)
	if err != nil {
		return fmt.Errorf("failed to mark run started: %w", err)
	}
	return nil
}

// MarkFinished records the terminal state of a run.
func (r *RunRepository) MarkFinished(ctx context.Context, runID, status string, productsFound int, runErr error, at time.Time) error {
	var errMsg *string
	if runErr != nil {
		msg := runErr.Error()
		errMsg = &msg
	}

	query := `
		UPDATE scrape_runs
		SET status = $1, products_found = $2, error = $3, completed_at = $4
		WHERE id = $5`

	_, err := r.db.Exec(ctx, query, status, productsFound, errMsg, at, runID)
	if err != nil {
		return fmt.Errorf("failed to mark run finished: %w", err)
	}
	return nil
}

// Get retrieves a run by ID.
func (r *RunRepository) Get(ctx context.Context, runID string) (*RunRecord, error) {
	query := `
		SELECT id, listing_urls, max_pages, status, products_found,
		       error, created_at, started_at, completed_at
		FROM scrape_runs
		WHERE id = $1`

	run := &RunRecord{}
	err := r.db.QueryRow(ctx, query, runID).Scan(
		&run.ID, &run.ListingURLs, &run.MaxPages, &run.Status, &run.ProductsFound,
		&run.Error, &run.CreatedAt, &run.StartedAt, &run.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs, newest first.
func (r *RunRepository) List(ctx context.Context, limit int) ([]*RunRecord, error) {
	query := `
		SELECT id, listing_urls, max_pages, status, products_found,
		       error, created_at, started_at, completed_at
		FROM scrape_runs
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		run := &RunRecord{}
		err := rows.Scan(
			&run.ID, &run.ListingURLs, &run.MaxPages, &run.Status, &run.ProductsFound,
			&run.Error, &run.CreatedAt, &run.StartedAt, &run.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ReplaceProducts swaps a run's product rows for the given set, keeping
// the write atomic so readers never see a half-written result.
func (r *RunRepository) ReplaceProducts(ctx context.Context, runID string, products []RunProduct) error {
	return r.db.Transaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM run_products WHERE run_id = $1`, runID); err != nil {
			return fmt.Errorf("failed to clear run products: %w", err)
		}

		query := `
			INSERT INTO run_products (run_id, position, name, price, size)
			VALUES ($1, $2, $3, $4, $5)`

		for i, p := range products {
			if _, err := tx.Exec(ctx, query, runID, i, p.Name, p.Price, p.Size); err != nil {
				return fmt.Errorf("failed to insert run product: %w", err)
			}
		}
		return nil
	})
}

// GetProducts returns a run's products in extraction order.
func (r *RunRepository) GetProducts(ctx context.Context, runID string) ([]RunProduct, error) {
	query := `
		SELECT run_id, position, name, price, size
		FROM run_products
		WHERE run_id = $1
		ORDER BY position`

	rows, err := r.db.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run products: %w", err)
	}
	defer rows.Close()

	var products []RunProduct
	for rows.Next() {
		var p RunProduct
		if err := rows.Scan(&p.RunID, &p.Position, &p.Name, &p.Price, &p.Size); err != nil {
			return nil, fmt.Errorf("failed to scan run product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
