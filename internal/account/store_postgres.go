package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"appaccounts/pkg/platform/sentinel"
	txcontext "appaccounts/pkg/platform/tx"
)

// PostgresStore persists accounts and memberships in the app_accounts and
// app_account_users tables.
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

// execer joins an ambient transaction when one is carried in the context.
func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const accountColumns = `
	id, admin_app_id, admin_customer_id, title, status,
	action_by_id, action_by_name, created_at, updated_at, is_deleted`

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*AppAccount, error) {
	query := `SELECT` + accountColumns + ` FROM app_accounts WHERE id = $1`

	var acct AppAccount
	err := s.execer(ctx).QueryRowContext(ctx, query, id).Scan(
		&acct.ID, &acct.AdminAppID, &acct.AdminCustomerID, &acct.Title, &acct.Status,
		&acct.ActionByID, &acct.ActionByName, &acct.CreatedAt, &acct.UpdatedAt, &acct.IsDeleted,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query app account: %w", err)
	}
	return &acct, nil
}

func (s *PostgresStore) Insert(ctx context.Context, acct *AppAccount) error {
	query := `
		INSERT INTO app_accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		acct.ID, acct.AdminAppID, acct.AdminCustomerID, acct.Title, acct.Status,
		acct.ActionByID, acct.ActionByName, acct.CreatedAt, acct.UpdatedAt, acct.IsDeleted,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert app account: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, acct *AppAccount) (int64, error) {
	query := `
		UPDATE app_accounts SET
			title = $2, status = $3, action_by_id = $4, action_by_name = $5,
			updated_at = $6, is_deleted = $7
		WHERE id = $1
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		acct.ID, acct.Title, acct.Status,
		acct.ActionByID, acct.ActionByName, acct.UpdatedAt, acct.IsDeleted,
	)
	if err != nil {
		return 0, fmt.Errorf("update app account: %w", err)
	}
	return result.RowsAffected()
}

func (s *PostgresStore) InsertMembership(ctx context.Context, m *Membership) error {
	query := `
		INSERT INTO app_account_users (
			id, admin_app_id, admin_customer_id, app_account_id, login_user_id,
			user_full_name, user_role, status,
			action_by_id, action_by_name, created_at, updated_at, is_deleted
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		m.ID, m.AdminAppID, m.AdminCustomerID, m.AppAccountID, m.LoginUserID,
		m.UserFullName, m.Role, m.Status,
		m.ActionByID, m.ActionByName, m.CreatedAt, m.UpdatedAt, m.IsDeleted,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

func (s *PostgresStore) Memberships(ctx context.Context, accountID uuid.UUID) ([]*Membership, error) {
	query := `
		SELECT
			id, admin_app_id, admin_customer_id, app_account_id, login_user_id,
			user_full_name, user_role, status,
			action_by_id, action_by_name, created_at, updated_at, is_deleted
		FROM app_account_users
		WHERE app_account_id = $1 AND is_deleted = FALSE
		ORDER BY created_at
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("query memberships: %w", err)
	}
	defer rows.Close()

	var out []*Membership
	for rows.Next() {
		var m Membership
		if err := rows.Scan(
			&m.ID, &m.AdminAppID, &m.AdminCustomerID, &m.AppAccountID, &m.LoginUserID,
			&m.UserFullName, &m.Role, &m.Status,
			&m.ActionByID, &m.ActionByName, &m.CreatedAt, &m.UpdatedAt, &m.IsDeleted,
		); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
