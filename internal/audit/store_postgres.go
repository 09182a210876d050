package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	txcontext "appaccounts/pkg/platform/tx"
)

// PostgresStore implements Recorder over the entity_changes table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execer joins an ambient transaction when one is carried in the context.
func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Record(ctx context.Context, entry Entry) error {
	if entry.ActionAt.IsZero() {
		entry.ActionAt = time.Now()
	}
	if entry.Tiebreaker == 0 {
		entry.Tiebreaker = NewTiebreaker()
	}
	if entry.Changes == nil {
		entry.Changes = []string{}
	}

	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("marshal change array: %w", err)
	}

	query := `
		INSERT INTO entity_changes (
			entity_type, item_id, action_at, tiebreaker,
			action_type, change_array, action_by_id, action_by_name
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		entry.EntityType,
		entry.ItemID,
		entry.ActionAt,
		entry.Tiebreaker,
		string(entry.Action),
		changes,
		entry.ActorID,
		entry.ActorName,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecentChanges(ctx context.Context, entityType string, itemID uuid.UUID) ([]Entry, error) {
	query := `
		SELECT entity_type, item_id, action_at, tiebreaker,
		       action_type, change_array, action_by_id, action_by_name
		FROM entity_changes
		WHERE entity_type = $1 AND item_id = $2
		ORDER BY action_at DESC
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, entityType, itemID, RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry   Entry
			action  string
			changes []byte
		)
		err := rows.Scan(
			&entry.EntityType,
			&entry.ItemID,
			&entry.ActionAt,
			&entry.Tiebreaker,
			&action,
			&changes,
			&entry.ActorID,
			&entry.ActorName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.Action = Action(action)
		if len(changes) > 0 {
			if err := json.Unmarshal(changes, &entry.Changes); err != nil {
				return nil, fmt.Errorf("unmarshal change array: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
