package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"appaccounts/internal/lifecycle"
	"appaccounts/pkg/platform/sentinel"
	txcontext "appaccounts/pkg/platform/tx"
)

// PostgresStore persists products in app_account_products.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

var pageColumns = lifecycle.PageColumns{
	Scope:   "app_account_id",
	Updated: "updated_at",
	Status:  "status",
	Deleted: "is_deleted",
	Search:  []string{"product_name", "category", "note"},
}

const columns = `
	id, admin_app_id, admin_customer_id, app_account_id,
	product_name, category, note, image_path, status,
	action_by_id, action_by_name, created_at, updated_at, is_deleted`

func scanRow(scan func(...any) error, p *Product) error {
	return scan(
		&p.ID, &p.AdminAppID, &p.AdminCustomerID, &p.AppAccountID,
		&p.ProductName, &p.Category, &p.Note, &p.ImagePath, &p.Status,
		&p.ActionByID, &p.ActionByName, &p.CreatedAt, &p.UpdatedAt, &p.IsDeleted,
	)
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	query := `SELECT` + columns + ` FROM app_account_products WHERE id = $1`

	var p Product
	err := scanRow(s.execer(ctx).QueryRowContext(ctx, query, id).Scan, &p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) FindByBusinessKey(ctx context.Context, scopeID uuid.UUID, key string, deleted bool, excludeID uuid.UUID) (*Product, error) {
	query := `
		SELECT` + columns + `
		FROM app_account_products
		WHERE app_account_id = $1 AND product_name = $2 AND is_deleted = $3 AND id <> $4
		ORDER BY updated_at DESC
		LIMIT 1
	`
	var p Product
	err := scanRow(s.execer(ctx).QueryRowContext(ctx, query, scopeID, key, deleted, excludeID).Scan, &p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product by name: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) Insert(ctx context.Context, p *Product) error {
	query := `
		INSERT INTO app_account_products (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		p.ID, p.AdminAppID, p.AdminCustomerID, p.AppAccountID,
		p.ProductName, p.Category, p.Note, p.ImagePath, p.Status,
		p.ActionByID, p.ActionByName, p.CreatedAt, p.UpdatedAt, p.IsDeleted,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, p *Product) (int64, error) {
	query := `
		UPDATE app_account_products SET
			product_name = $2, category = $3, note = $4, image_path = $5, status = $6,
			action_by_id = $7, action_by_name = $8, updated_at = $9, is_deleted = $10
		WHERE id = $1
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		p.ID, p.ProductName, p.Category, p.Note, p.ImagePath, p.Status,
		p.ActionByID, p.ActionByName, p.UpdatedAt, p.IsDeleted,
	)
	if err != nil {
		return 0, fmt.Errorf("update product: %w", err)
	}
	return result.RowsAffected()
}

func (s *PostgresStore) Page(ctx context.Context, req lifecycle.PageRequest) ([]*Product, error) {
	tail, args := pageColumns.BuildQuery(req)
	query := `SELECT` + columns + ` FROM app_account_products` + tail

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("page products: %w", err)
	}
	defer rows.Close()

	var out []*Product
	for rows.Next() {
		var p Product
		if err := scanRow(rows.Scan, &p); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
