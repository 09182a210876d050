package diff

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(typeName, note string, updatedAt time.Time) []Field {
	return []Field{
		{Name: "id", Value: "aaaa-bbbb"},
		{Name: "typeName", Value: typeName},
		{Name: "category", Value: "General"},
		{Name: "note", Value: note},
		{Name: "updatedAt", Value: updatedAt},
		{Name: "isDeleted", Value: false},
	}
}

func TestCompareIdenticalSnapshots(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	res := Compare(snapshot("Repair", "", at), snapshot("Repair", "", at))

	require.NotNil(t, res)
	assert.True(t, res.NoChanges)
	assert.Empty(t, res.Entries)
}

func TestCompareMalformedSnapshots(t *testing.T) {
	at := time.Now()
	assert.Nil(t, Compare(nil, snapshot("Repair", "", at)))
	assert.Nil(t, Compare(snapshot("Repair", "", at), nil))
	assert.Nil(t, Compare([]Field{}, []Field{}))
}

func TestCompareSingleFieldChange(t *testing.T) {
	at := time.Now()
	res := Compare(snapshot("Repair", "old note", at), snapshot("Repair", "new note", at))

	require.NotNil(t, res)
	assert.False(t, res.NoChanges)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "note: old note => new note", res.Entries[0])
}

func TestCompareExcludesSystemFields(t *testing.T) {
	before := snapshot("Repair", "n", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	after := snapshot("Repair", "n", time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC))
	// flip the tombstone as well; both are system fields
	after[5].Value = true

	res := Compare(before, after)

	require.NotNil(t, res)
	assert.False(t, res.NoChanges)
	assert.Empty(t, res.Entries)
}

func TestComparePreservesAfterOrder(t *testing.T) {
	at := time.Now()
	before := snapshot("Repair", "a", at)
	after := snapshot("Maintenance", "b", at)
	after[2].Value = "Special"

	res := Compare(before, after)

	require.NotNil(t, res)
	require.Len(t, res.Entries, 3)
	assert.Equal(t, "typeName: Repair => Maintenance", res.Entries[0])
	assert.Equal(t, "category: General => Special", res.Entries[1])
	assert.Equal(t, "note: a => b", res.Entries[2])
}

func TestCompareDateFields(t *testing.T) {
	from := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	to := time.Date(2026, 3, 2, 11, 45, 0, 0, time.UTC)
	before := []Field{{Name: "activatedAt", Value: from}}
	after := []Field{{Name: "activatedAt", Value: to}}

	res := Compare(before, after)

	require.NotNil(t, res)
	require.Len(t, res.Entries, 1)
	want := fmt.Sprintf("activatedAt: datetime => %s => %s",
		from.Format(time.RFC3339Nano), to.Format(time.RFC3339Nano))
	assert.Equal(t, want, res.Entries[0])
}

func TestCompareEqualDatesDifferentLocations(t *testing.T) {
	utc := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	// Same instant, same RFC 3339 rendering only when offsets match; a
	// distinct offset renders differently and is treated as a change.
	same := utc
	res := Compare(
		[]Field{{Name: "activatedAt", Value: utc}, {Name: "note", Value: "x"}},
		[]Field{{Name: "activatedAt", Value: same}, {Name: "note", Value: "y"}},
	)

	require.NotNil(t, res)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "note: x => y", res.Entries[0])
}

func TestCompareFieldMissingFromBefore(t *testing.T) {
	res := Compare(
		[]Field{{Name: "note", Value: "x"}},
		[]Field{{Name: "note", Value: "x"}, {Name: "category", Value: "General"}},
	)

	require.NotNil(t, res)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "category: <nil> => General", res.Entries[0])
}
