package lifecycle

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "appaccounts/pkg/domain-errors"
)

// Direction selects which side of the cursor a page is read from.
type Direction string

const (
	// DirectionNext pages backward in time: rows updated before the
	// cursor, most recent first.
	DirectionNext Direction = "next"

	// DirectionPrevious pages forward in time: rows updated after the
	// cursor. The index scan runs ascending; the engine re-sorts the
	// result descending so callers always see one consistent order.
	DirectionPrevious Direction = "previous"
)

// StatusFilter narrows a page to one status. FilterAny is a no-op.
type StatusFilter string

const (
	FilterAny      StatusFilter = "any"
	FilterActive   StatusFilter = "active"
	FilterInactive StatusFilter = "inactive"
)

// MaxPageLimit bounds every page request; it doubles as the default when
// the transport supplies no limit.
const MaxPageLimit = 500

// PageRequest describes one keyset page over an entity collection.
// Tombstoned rows are always excluded.
type PageRequest struct {
	ScopeID   uuid.UUID
	Direction Direction
	Limit     int
	Cursor    *time.Time
	Search    string
	Status    StatusFilter
}

// normalize validates the request and fills defaults. Runs before any
// query executes.
func (r *PageRequest) normalize() error {
	if r.ScopeID == uuid.Nil {
		return dErrors.New(dErrors.CodeValidation, "appAccountId is required")
	}
	if r.Direction == "" {
		r.Direction = DirectionNext
	}
	if r.Direction != DirectionNext && r.Direction != DirectionPrevious {
		return dErrors.Newf(dErrors.CodeValidation, "invalid page type %q", r.Direction)
	}
	if r.Status == "" {
		r.Status = FilterAny
	}
	if r.Status != FilterAny && r.Status != FilterActive && r.Status != FilterInactive {
		return dErrors.Newf(dErrors.CodeValidation, "invalid status %q", r.Status)
	}
	if r.Limit == 0 {
		r.Limit = MaxPageLimit
	}
	if r.Limit < 0 || r.Limit > MaxPageLimit {
		return dErrors.Newf(dErrors.CodeValidation, "pageLimit must be between 1 and %d", MaxPageLimit)
	}
	return nil
}

// PageColumns maps PageRequest semantics onto one table's column names so
// each store shares a single parameterized query builder instead of
// interpolating filter values into SQL.
type PageColumns struct {
	Scope   string
	Updated string
	Status  string
	Deleted string
	Search  []string
}

// BuildQuery renders the WHERE / ORDER BY / LIMIT tail for a validated
// page request. Every caller-supplied value is bound as a placeholder.
func (c PageColumns) BuildQuery(req PageRequest) (string, []any) {
	var (
		b    strings.Builder
		args []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	fmt.Fprintf(&b, " WHERE %s = FALSE AND %s = %s", c.Deleted, c.Scope, next(req.ScopeID))

	order := "DESC"
	if req.Cursor != nil {
		if req.Direction == DirectionPrevious {
			fmt.Fprintf(&b, " AND %s > %s", c.Updated, next(*req.Cursor))
			order = "ASC"
		} else {
			fmt.Fprintf(&b, " AND %s < %s", c.Updated, next(*req.Cursor))
		}
	}

	if req.Status != FilterAny {
		fmt.Fprintf(&b, " AND %s = %s", c.Status, next(string(req.Status)))
	}

	if req.Search != "" {
		pattern := next("%" + strings.ToLower(req.Search) + "%")
		clauses := make([]string, len(c.Search))
		for i, col := range c.Search {
			clauses[i] = fmt.Sprintf("LOWER(%s) LIKE %s", col, pattern)
		}
		fmt.Fprintf(&b, " AND (%s)", strings.Join(clauses, " OR "))
	}

	fmt.Fprintf(&b, " ORDER BY %s %s LIMIT %s", c.Updated, order, next(req.Limit))
	return b.String(), args
}

// sortDescending re-orders a previous-direction page so callers always
// receive descending-updatedAt order regardless of direction.
func sortDescending[E any](items []*E, updatedAt func(*E) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return updatedAt(items[i]).After(updatedAt(items[j]))
	})
}
