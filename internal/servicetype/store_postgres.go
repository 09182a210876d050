package servicetype

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

// PostgresStore persists service types in app_account_service_types.
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
	Search:  []string{"type_name", "category", "note"},
}

const columns = `
	id, admin_app_id, admin_customer_id, app_account_id,
	type_name, category, note, image_path, status,
	action_by_id, action_by_name, created_at, updated_at, is_deleted`

func scanRow(scan func(...any) error, t *ServiceType) error {
	return scan(
		&t.ID, &t.AdminAppID, &t.AdminCustomerID, &t.AppAccountID,
		&t.TypeName, &t.Category, &t.Note, &t.ImagePath, &t.Status,
		&t.ActionByID, &t.ActionByName, &t.CreatedAt, &t.UpdatedAt, &t.IsDeleted,
	)
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*ServiceType, error) {
	query := `SELECT` + columns + ` FROM app_account_service_types WHERE id = $1`

	var t ServiceType
	err := scanRow(s.execer(ctx).QueryRowContext(ctx, query, id).Scan, &t)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query service type: %w", err)
	}
	return &t, nil
}

func (s *PostgresStore) FindByBusinessKey(ctx context.Context, scopeID uuid.UUID, key string, deleted bool, excludeID uuid.UUID) (*ServiceType, error) {
	query := `
		SELECT` + columns + `
		FROM app_account_service_types
		WHERE app_account_id = $1 AND type_name = $2 AND is_deleted = $3 AND id <> $4
		ORDER BY updated_at DESC
		LIMIT 1
	`
	var t ServiceType
	err := scanRow(s.execer(ctx).QueryRowContext(ctx, query, scopeID, key, deleted, excludeID).Scan, &t)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query service type by name: %w", err)
	}
	return &t, nil
}

func (s *PostgresStore) Insert(ctx context.Context, t *ServiceType) error {
	query := `
		INSERT INTO app_account_service_types (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		t.ID, t.AdminAppID, t.AdminCustomerID, t.AppAccountID,
		t.TypeName, t.Category, t.Note, t.ImagePath, t.Status,
		t.ActionByID, t.ActionByName, t.CreatedAt, t.UpdatedAt, t.IsDeleted,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert service type: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, t *ServiceType) (int64, error) {
	query := `
		UPDATE app_account_service_types SET
			type_name = $2, category = $3, note = $4, image_path = $5, status = $6,
			action_by_id = $7, action_by_name = $8, updated_at = $9, is_deleted = $10
		WHERE id = $1
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		t.ID, t.TypeName, t.Category, t.Note, t.ImagePath, t.Status,
		t.ActionByID, t.ActionByName, t.UpdatedAt, t.IsDeleted,
	)
	if err != nil {
		return 0, fmt.Errorf("update service type: %w", err)
	}
	return result.RowsAffected()
}

func (s *PostgresStore) Page(ctx context.Context, req lifecycle.PageRequest) ([]*ServiceType, error) {
	tail, args := pageColumns.BuildQuery(req)
	query := `SELECT` + columns + ` FROM app_account_service_types` + tail

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("page service types: %w", err)
	}
	defer rows.Close()

	var out []*ServiceType
	for rows.Next() {
		var t ServiceType
		if err := scanRow(rows.Scan, &t); err != nil {
			return nil, fmt.Errorf("scan service type: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
