package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition is returned for any status move outside the
// transition table. The record is left untouched.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrNotFound is returned when a channel ID is not in the store.
var ErrNotFound = errors.New("candidate not found")

// Outcome is a review decision.
type Outcome string

const (
	OutcomeApprove Outcome = "approve"
	OutcomeReject  Outcome = "reject"
)

// transitions is the single authority on status movement. Anything not
// listed here is invalid; approved and rejected have no outgoing edges.
var transitions = map[Status][]Status{
	StatusDiscovered:    {StatusPendingReview},
	StatusPendingReview: {StatusApproved, StatusRejected},
}

func canTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PromoteToReview moves a discovered candidate into the review queue.
func (s *Store) PromoteToReview(channelID string) error {
	return s.transition(channelID, StatusPendingReview, func(c *Candidate) {})
}

// Decide settles a pending_review candidate. On approval the published
// fields are stamped: approved_at, the blurb and the latest uploads the
// caller fetched for the channel. Both outcomes are terminal.
func (s *Store) Decide(channelID string, outcome Outcome, blurb string, videos []Video) error {
	switch outcome {
	case OutcomeApprove:
		return s.transition(channelID, StatusApproved, func(c *Candidate) {
			c.ApprovedAt = time.Now().UTC()
			c.Blurb = blurb
			c.LatestVideos = videos
		})
	case OutcomeReject:
		return s.transition(channelID, StatusRejected, func(c *Candidate) {})
	default:
		return fmt.Errorf("store: unknown outcome %q", outcome)
	}
}

// transition applies one table-checked status move inside a transaction.
func (s *Store) transition(channelID string, to Status, stamp func(*Candidate)) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: transition begin: %w", err)
	}
	defer tx.Rollback()

	c, found, err := getTx(tx, channelID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, channelID)
	}
	if !canTransition(c.Status, to) {
		return fmt.Errorf("%w: %s → %s for %s", ErrInvalidTransition, c.Status, to, channelID)
	}

	stamp(&c)
	videosJSON, err := marshalVideos(c.LatestVideos)
	if err != nil {
		return fmt.Errorf("store: transition %s: %w", channelID, err)
	}
	_, err = tx.Exec(`UPDATE candidates SET
		status = ?, approved_at = ?, blurb = ?, latest_videos = ?
		WHERE channel_id = ?`,
		string(to), fmtTime(c.ApprovedAt), c.Blurb, videosJSON, channelID)
	if err != nil {
		return fmt.Errorf("store: transition %s → %s: %w", channelID, to, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: transition commit: %w", err)
	}
	return nil
}

func marshalVideos(videos []Video) (string, error) {
	if videos == nil {
		return "[]", nil
	}
	data, err := json.Marshal(videos)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
