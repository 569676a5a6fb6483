package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doorstroom/pkg/contracts/domain"
)

func TestStore_CreateAndGet(t *testing.T) {
	store := NewStore(time.Hour, nil)

	sess := store.Create()
	require.NotEmpty(t, sess.ID)

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.False(t, got.HasData())
}

func TestStore_GetUnknown(t *testing.T) {
	store := NewStore(time.Hour, nil)

	_, err := store.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	store := NewStore(time.Hour, nil)
	sess := store.Create()

	require.NoError(t, store.Delete(sess.ID))
	assert.ErrorIs(t, store.Delete(sess.ID), ErrNotFound)

	_, err := store.Get(sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_CleanupExpiresIdleSessions(t *testing.T) {
	store := NewStore(50*time.Millisecond, nil)
	stale := store.Create()
	fresh := store.Create()

	stale.mu.Lock()
	stale.lastSeen = time.Now().Add(-time.Minute)
	stale.mu.Unlock()

	removed := store.Cleanup()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())

	_, err := store.Get(stale.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestStore_GetRefreshesLastSeen(t *testing.T) {
	store := NewStore(time.Hour, nil)
	sess := store.Create()

	sess.mu.Lock()
	sess.lastSeen = time.Now().Add(-time.Minute)
	sess.mu.Unlock()
	before := sess.LastSeen()

	_, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.True(t, sess.LastSeen().After(before))
}

func TestSession_SetDataResetsSelection(t *testing.T) {
	store := NewStore(time.Hour, nil)
	sess := store.Create()

	sess.SetSelection(domain.FilterSelection{Source: "ROC van Twente", Destinations: []string{"Saxion"}})
	_, explicit := sess.Selection()
	require.True(t, explicit)

	table := &domain.Table{
		Columns: []string{domain.ColYear},
		Records: []domain.Record{{Year: 2024, Cells: map[string]string{domain.ColYear: "2024"}}},
	}
	sess.SetData(table, []domain.FileReport{{Name: "a.csv", Rows: 1}}, "hash-1")

	assert.True(t, sess.HasData())
	got, hash := sess.Data()
	assert.Equal(t, table, got)
	assert.Equal(t, "hash-1", hash)

	// New data invalidates the previous selection.
	_, explicit = sess.Selection()
	assert.False(t, explicit)
}

func TestSession_FileReportsCopied(t *testing.T) {
	store := NewStore(time.Hour, nil)
	sess := store.Create()
	sess.SetData(nil, []domain.FileReport{{Name: "a.csv", Rows: 2}}, "h")

	reports := sess.FileReports()
	require.Len(t, reports, 1)
	reports[0].Name = "mutated"

	assert.Equal(t, "a.csv", sess.FileReports()[0].Name)
}
