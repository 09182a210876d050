package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordFillsDefaults(t *testing.T) {
	store := NewMemoryStore()
	itemID := uuid.New()

	err := store.Record(context.Background(), Entry{
		EntityType: "appAccountServiceType",
		ItemID:     itemID,
		Action:     ActionCreate,
		ActorID:    uuid.New(),
		ActorName:  "Jo",
	})
	require.NoError(t, err)

	entries, err := store.RecentChanges(context.Background(), "appAccountServiceType", itemID)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.False(t, entry.ActionAt.IsZero())
	assert.GreaterOrEqual(t, entry.Tiebreaker, 10000000)
	assert.LessOrEqual(t, entry.Tiebreaker, 99999999)
	assert.NotNil(t, entry.Changes, "empty change list is stored as [], not null")
	assert.Empty(t, entry.Changes)
}

func TestRecentChangesOrderAndCap(t *testing.T) {
	store := NewMemoryStore()
	itemID := uuid.New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < RecentLimit+20; i++ {
		err := store.Record(context.Background(), Entry{
			EntityType: "appAccountServiceType",
			ItemID:     itemID,
			ActionAt:   base.Add(time.Duration(i) * time.Second),
			Action:     ActionUpdate,
			Changes:    []string{"note: a => b"},
			ActorID:    uuid.New(),
		})
		require.NoError(t, err)
	}

	entries, err := store.RecentChanges(context.Background(), "appAccountServiceType", itemID)
	require.NoError(t, err)
	require.Len(t, entries, RecentLimit)

	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].ActionAt.After(entries[i-1].ActionAt),
			"entries must be in reverse-chronological order")
	}
	assert.Equal(t, base.Add(time.Duration(RecentLimit+19)*time.Second), entries[0].ActionAt)
}

func TestRecentChangesIsolatedByEntityType(t *testing.T) {
	store := NewMemoryStore()
	itemID := uuid.New()

	require.NoError(t, store.Record(context.Background(), Entry{
		EntityType: "appAccountServiceType", ItemID: itemID, Action: ActionCreate, ActorID: uuid.New(),
	}))
	require.NoError(t, store.Record(context.Background(), Entry{
		EntityType: "appAccountProduct", ItemID: itemID, Action: ActionCreate, ActorID: uuid.New(),
	}))

	entries, err := store.RecentChanges(context.Background(), "appAccountServiceType", itemID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
