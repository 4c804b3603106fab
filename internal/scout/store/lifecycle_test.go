package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromoteToReview(t *testing.T) {
	st := openTestStore(t)
	_, err := st.Merge(sampleCandidate("UC123"))
	require.NoError(t, err)

	require.NoError(t, st.PromoteToReview("UC123"))
	c, _, err := st.Get("UC123")
	require.NoError(t, err)
	assert.Equal(t, StatusPendingReview, c.Status)

	// Promoting twice is invalid and changes nothing.
	err = st.PromoteToReview("UC123")
	require.ErrorIs(t, err, ErrInvalidTransition)
	c, _, err = st.Get("UC123")
	require.NoError(t, err)
	assert.Equal(t, StatusPendingReview, c.Status)
}

func TestPromoteUnknownChannel(t *testing.T) {
	st := openTestStore(t)
	err := st.PromoteToReview("UC-missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDecideApprove(t *testing.T) {
	st := openTestStore(t)
	_, err := st.Merge(sampleCandidate("UC123"))
	require.NoError(t, err)
	require.NoError(t, st.PromoteToReview("UC123"))

	videos := []Video{{VideoID: "v1", Title: "初配信", PublishedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}}
	require.NoError(t, st.Decide("UC123", OutcomeApprove, "応援しています！", videos))

	c, _, err := st.Get("UC123")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, c.Status)
	assert.Equal(t, "応援しています！", c.Blurb)
	assert.False(t, c.ApprovedAt.IsZero())
	assert.Equal(t, videos, c.LatestVideos)
}

func TestDecideRequiresPendingReview(t *testing.T) {
	st := openTestStore(t)
	_, err := st.Merge(sampleCandidate("UC123"))
	require.NoError(t, err)

	// discovered → approved skips review: invalid.
	err = st.Decide("UC123", OutcomeApprove, "x", nil)
	require.ErrorIs(t, err, ErrInvalidTransition)
	c, _, err := st.Get("UC123")
	require.NoError(t, err)
	assert.Equal(t, StatusDiscovered, c.Status)
}

func TestTerminalStatesAreFinal(t *testing.T) {
	st := openTestStore(t)
	for id, outcome := range map[string]Outcome{"UC-a": OutcomeApprove, "UC-r": OutcomeReject} {
		_, err := st.Merge(sampleCandidate(id))
		require.NoError(t, err)
		require.NoError(t, st.PromoteToReview(id))
		require.NoError(t, st.Decide(id, outcome, "b", nil))

		require.ErrorIs(t, st.PromoteToReview(id), ErrInvalidTransition)
		require.ErrorIs(t, st.Decide(id, OutcomeApprove, "b", nil), ErrInvalidTransition)
		require.ErrorIs(t, st.Decide(id, OutcomeReject, "", nil), ErrInvalidTransition)
	}

	a, _, err := st.Get("UC-a")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, a.Status)
	r, _, err := st.Get("UC-r")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, r.Status)
}

func TestDecideUnknownOutcome(t *testing.T) {
	st := openTestStore(t)
	_, err := st.Merge(sampleCandidate("UC123"))
	require.NoError(t, err)
	require.NoError(t, st.PromoteToReview("UC123"))
	require.Error(t, st.Decide("UC123", Outcome("maybe"), "", nil))
}

func TestExportApprovedSubset(t *testing.T) {
	st := openTestStore(t)
	for _, id := range []string{"UC1", "UC2", "UC3"} {
		_, err := st.Merge(sampleCandidate(id))
		require.NoError(t, err)
	}
	require.NoError(t, st.PromoteToReview("UC1"))
	require.NoError(t, st.Decide("UC1", OutcomeApprove, "紹介文", nil))
	require.NoError(t, st.PromoteToReview("UC2"))
	require.NoError(t, st.Decide("UC2", OutcomeReject, "", nil))

	path := filepath.Join(t.TempDir(), "approved.json")
	require.NoError(t, st.ExportApproved(path))

	entries, err := LoadApproved(path)
	require.NoError(t, err)
	require.Len(t, entries, 1, "only approved candidates may be published")

	entry := entries["UC1"]
	assert.Equal(t, "UC1", entry.ChannelID)
	assert.Equal(t, "紹介文", entry.Blurb)
	assert.False(t, entry.ApprovedAt.IsZero())

	// Every exported ID must trace back to an approved store record.
	for id := range entries {
		c, found, err := st.Get(id)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, StatusApproved, c.Status)
	}
}

func TestExportRoundTrip(t *testing.T) {
	st := openTestStore(t)
	_, err := st.Merge(sampleCandidate("UC1"))
	require.NoError(t, err)
	require.NoError(t, st.PromoteToReview("UC1"))
	require.NoError(t, st.Decide("UC1", OutcomeApprove, "紹介文", []Video{{VideoID: "v1", Title: "初配信"}}))

	path := filepath.Join(t.TempDir(), "approved.json")
	require.NoError(t, st.ExportApproved(path))
	first, err := LoadApproved(path)
	require.NoError(t, err)

	// Export again from the same store: untouched entries are identical.
	require.NoError(t, st.ExportApproved(path))
	second, err := LoadApproved(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLoadApprovedMissingFile(t *testing.T) {
	entries, err := LoadApproved(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
