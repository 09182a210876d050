// Package diff computes the human-readable change list recorded in the
// audit log and broadcast with change events.
//
// Snapshots are ordered field lists produced by entity descriptors, so the
// change list is stable and follows the entity's declared field order.
package diff

import (
	"fmt"
	"time"
)

// System fields are excluded from comparison regardless of whether they
// changed; they are bookkeeping, not business data. "__typename" survives
// from clients that round-trip GraphQL objects back into mutations.
var systemFields = map[string]struct{}{
	"id":         {},
	"createdAt":  {},
	"updatedAt":  {},
	"isDeleted":  {},
	"__typename": {},
}

// Field is one named value of an entity snapshot.
type Field struct {
	Name  string
	Value any
}

// Result is the outcome of comparing two snapshots.
//
// NoChanges distinguishes "the snapshots were identical" from "all
// differing fields were system fields" (Entries empty in both cases).
type Result struct {
	NoChanges bool
	Entries   []string
}

// Compare returns the ordered change descriptions between two snapshots.
// A nil or empty snapshot on either side is not a well-formed record and
// yields nil. Identical snapshots yield a Result with NoChanges set.
func Compare(before, after []Field) *Result {
	if len(before) == 0 || len(after) == 0 {
		return nil
	}

	if identical(before, after) {
		return &Result{NoChanges: true}
	}

	prior := make(map[string]any, len(before))
	for _, f := range before {
		prior[f.Name] = f.Value
	}

	var entries []string
	for _, f := range after {
		if _, ok := systemFields[f.Name]; ok {
			continue
		}
		from := prior[f.Name]
		if entry, changed := describe(f.Name, from, f.Value); changed {
			entries = append(entries, entry)
		}
	}

	return &Result{Entries: entries}
}

func identical(before, after []Field) bool {
	if len(before) != len(after) {
		return false
	}
	for i := range after {
		if after[i].Name != before[i].Name {
			return false
		}
		if !equal(before[i].Value, after[i].Value) {
			return false
		}
	}
	return true
}

func describe(name string, from, to any) (string, bool) {
	fromTime, fromIsTime := asTime(from)
	toTime, toIsTime := asTime(to)

	if fromIsTime || toIsTime {
		fromStr := render(from)
		toStr := render(to)
		if fromIsTime {
			fromStr = fromTime.Format(time.RFC3339Nano)
		}
		if toIsTime {
			toStr = toTime.Format(time.RFC3339Nano)
		}
		if fromIsTime && toIsTime && fromStr == toStr {
			return "", false
		}
		return fmt.Sprintf("%s: datetime => %s => %s", name, fromStr, toStr), true
	}

	if equal(from, to) {
		return "", false
	}
	return fmt.Sprintf("%s: %s => %s", name, render(from), render(to)), true
}

func equal(a, b any) bool {
	at, aok := asTime(a)
	bt, bok := asTime(b)
	if aok && bok {
		return at.Format(time.RFC3339Nano) == bt.Format(time.RFC3339Nano)
	}
	return a == b
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t != nil {
			return *t, true
		}
	}
	return time.Time{}, false
}

func render(v any) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%v", v)
}
