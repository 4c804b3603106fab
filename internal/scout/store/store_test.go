package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "candidates.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleCandidate(id string) Candidate {
	return Candidate{
		ChannelID:       id,
		Title:           "ねこみや らて",
		Description:     "新人VTuberです",
		Thumbnail:       "https://example.com/t.jpg",
		CreatedAt:       time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		SubscriberCount: 120,
		VideoCount:      5,
		ViewCount:       900,
		SourceQueries:   []string{"新人VTuber"},
	}
}

func TestMergeInsert(t *testing.T) {
	st := openTestStore(t)

	res, err := st.Merge(sampleCandidate("UC123"))
	require.NoError(t, err)
	assert.Equal(t, MergeInserted, res)

	c, found, err := st.Get("UC123")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, StatusDiscovered, c.Status)
	assert.False(t, c.DiscoveredAt.IsZero())
	assert.Equal(t, []string{"新人VTuber"}, c.SourceQueries)
}

func TestMergeIdempotent(t *testing.T) {
	st := openTestStore(t)

	_, err := st.Merge(sampleCandidate("UC123"))
	require.NoError(t, err)
	first, _, err := st.Get("UC123")
	require.NoError(t, err)

	res, err := st.Merge(sampleCandidate("UC123"))
	require.NoError(t, err)
	assert.Equal(t, MergeUnchanged, res)

	second, _, err := st.Get("UC123")
	require.NoError(t, err)
	assert.Equal(t, first, second, "repeated merge with identical input must not drift any field")
}

func TestMergeRefreshesCountsOnly(t *testing.T) {
	st := openTestStore(t)

	_, err := st.Merge(sampleCandidate("UC123"))
	require.NoError(t, err)
	before, _, err := st.Get("UC123")
	require.NoError(t, err)

	updated := sampleCandidate("UC123")
	updated.SubscriberCount = 450
	updated.SourceQueries = []string{"VTuberデビュー"}
	res, err := st.Merge(updated)
	require.NoError(t, err)
	assert.Equal(t, MergeUpdated, res)

	after, _, err := st.Get("UC123")
	require.NoError(t, err)
	assert.Equal(t, int64(450), after.SubscriberCount)
	assert.Equal(t, []string{"新人VTuber", "VTuberデビュー"}, after.SourceQueries)
	assert.Equal(t, before.Status, after.Status, "merge must not touch status")
	assert.Equal(t, before.DiscoveredAt, after.DiscoveredAt, "discovered_at is immutable")
}

func TestMergeCannotRegressTerminalStatus(t *testing.T) {
	st := openTestStore(t)

	_, err := st.Merge(sampleCandidate("UC123"))
	require.NoError(t, err)
	require.NoError(t, st.PromoteToReview("UC123"))
	require.NoError(t, st.Decide("UC123", OutcomeApprove, "紹介文", nil))

	// Re-discovery of an approved channel refreshes counts only.
	refresh := sampleCandidate("UC123")
	refresh.SubscriberCount = 99999
	_, err = st.Merge(refresh)
	require.NoError(t, err)

	c, _, err := st.Get("UC123")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, c.Status)
	assert.Equal(t, "紹介文", c.Blurb)
	assert.Equal(t, int64(99999), c.SubscriberCount)
}

func TestListOrderedByDiscovery(t *testing.T) {
	st := openTestStore(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"UC-c", "UC-a", "UC-b"} {
		c := sampleCandidate(id)
		// Newest first on purpose: list must reorder oldest-first.
		c.DiscoveredAt = base.AddDate(0, 0, 10-i)
		_, err := st.Merge(c)
		require.NoError(t, err)
	}

	list, err := st.List(StatusDiscovered)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "UC-b", list[0].ChannelID)
	assert.Equal(t, "UC-a", list[1].ChannelID)
	assert.Equal(t, "UC-c", list[2].ChannelID)
}

func TestCountByStatus(t *testing.T) {
	st := openTestStore(t)

	for _, id := range []string{"UC1", "UC2", "UC3"} {
		_, err := st.Merge(sampleCandidate(id))
		require.NoError(t, err)
	}
	require.NoError(t, st.PromoteToReview("UC1"))
	require.NoError(t, st.Decide("UC1", OutcomeReject, "", nil))

	counts, err := st.CountByStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, counts[StatusDiscovered])
	assert.Equal(t, 1, counts[StatusRejected])
}

func TestStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "candidates.db")

	st, err := Open(path)
	require.NoError(t, err)
	_, err = st.Merge(sampleCandidate("UC123"))
	require.NoError(t, err)
	original, _, err := st.Get("UC123")
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st2, err := Open(path)
	require.NoError(t, err)
	defer st2.Close()
	reloaded, found, err := st2.Get("UC123")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, original, reloaded, "records must round-trip across restarts")
}
