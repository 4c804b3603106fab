// Package store persists VTuber channel candidates in SQLite and owns
// the approval lifecycle. Merge refreshes metadata, the transition table
// in lifecycle.go is the only writer of status.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Status is the position of a candidate in the approval lifecycle.
type Status string

const (
	StatusDiscovered    Status = "discovered"
	StatusPendingReview Status = "pending_review"
	StatusApproved      Status = "approved"
	StatusRejected      Status = "rejected"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDiscovered, StatusPendingReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether s allows no further transition.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Video is the stored shape of a candidate's latest upload.
type Video struct {
	VideoID     string    `json:"video_id"`
	Title       string    `json:"title"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Candidate is one discovered channel.
type Candidate struct {
	ChannelID       string    `json:"channel_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	CustomURL       string    `json:"custom_url,omitempty"`
	Thumbnail       string    `json:"thumbnail,omitempty"`
	CreatedAt       time.Time `json:"created_at"` // channel creation, zero = unknown
	SubscriberCount int64     `json:"subscriber_count"`
	VideoCount      int64     `json:"video_count"`
	ViewCount       int64     `json:"view_count"`
	Keywords        string    `json:"keywords,omitempty"`
	SourceQueries   []string  `json:"source_queries"`
	Status          Status    `json:"status"`
	DiscoveredAt    time.Time `json:"discovered_at"`
	LastSeenAt      time.Time `json:"last_seen_at"`
	ApprovedAt      time.Time `json:"approved_at,omitzero"`
	Blurb           string    `json:"blurb,omitempty"`
	LatestVideos    []Video   `json:"latest_videos,omitempty"`
}

// MergeResult reports what Merge did to the store.
type MergeResult int

const (
	MergeInserted MergeResult = iota
	MergeUpdated
	MergeUnchanged
)

func (r MergeResult) String() string {
	switch r {
	case MergeInserted:
		return "inserted"
	case MergeUpdated:
		return "updated"
	case MergeUnchanged:
		return "unchanged"
	}
	return "unknown"
}

// Store is the SQLite-backed candidate store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the candidate store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS candidates (
		channel_id       TEXT PRIMARY KEY,
		title            TEXT NOT NULL,
		description      TEXT NOT NULL DEFAULT '',
		custom_url       TEXT NOT NULL DEFAULT '',
		thumbnail        TEXT NOT NULL DEFAULT '',
		created_at       TEXT NOT NULL DEFAULT '',
		subscriber_count INTEGER NOT NULL DEFAULT 0,
		video_count      INTEGER NOT NULL DEFAULT 0,
		view_count       INTEGER NOT NULL DEFAULT 0,
		keywords         TEXT NOT NULL DEFAULT '',
		source_queries   TEXT NOT NULL DEFAULT '[]',
		status           TEXT NOT NULL DEFAULT 'discovered',
		discovered_at    TEXT NOT NULL,
		last_seen_at     TEXT NOT NULL,
		approved_at      TEXT NOT NULL DEFAULT '',
		blurb            TEXT NOT NULL DEFAULT '',
		latest_videos    TEXT NOT NULL DEFAULT '[]'
	)`)
	return err
}

// Merge inserts a newly discovered candidate or refreshes an existing
// one. Only non-authoritative fields are refreshed: counts, snippet
// text, thumbnail and last-seen, plus appending an unseen source query.
// The UPDATE carries no status or discovered_at column, so merge cannot
// move a candidate through the lifecycle or rewrite its discovery time.
func (s *Store) Merge(c Candidate) (MergeResult, error) {
	if c.ChannelID == "" {
		return MergeUnchanged, fmt.Errorf("store: merge: empty channel_id")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return MergeUnchanged, fmt.Errorf("store: merge begin: %w", err)
	}
	defer tx.Rollback()

	existing, found, err := getTx(tx, c.ChannelID)
	if err != nil {
		return MergeUnchanged, err
	}

	if !found {
		discovered := c.DiscoveredAt
		if discovered.IsZero() {
			discovered = time.Now().UTC()
		}
		queries, _ := json.Marshal(dedupQueries(nil, c.SourceQueries))
		_, err = tx.Exec(`INSERT INTO candidates
			(channel_id, title, description, custom_url, thumbnail, created_at,
			 subscriber_count, video_count, view_count, keywords,
			 source_queries, status, discovered_at, last_seen_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ChannelID, c.Title, c.Description, c.CustomURL, c.Thumbnail,
			fmtTime(c.CreatedAt), c.SubscriberCount, c.VideoCount, c.ViewCount,
			c.Keywords, string(queries), string(StatusDiscovered),
			fmtTime(discovered), fmtTime(discovered))
		if err != nil {
			return MergeUnchanged, fmt.Errorf("store: merge insert %s: %w", c.ChannelID, err)
		}
		if err := tx.Commit(); err != nil {
			return MergeUnchanged, fmt.Errorf("store: merge commit: %w", err)
		}
		return MergeInserted, nil
	}

	queries := dedupQueries(existing.SourceQueries, c.SourceQueries)
	same := existing.Title == c.Title &&
		existing.Description == c.Description &&
		existing.Thumbnail == c.Thumbnail &&
		existing.Keywords == c.Keywords &&
		existing.SubscriberCount == c.SubscriberCount &&
		existing.VideoCount == c.VideoCount &&
		existing.ViewCount == c.ViewCount &&
		len(queries) == len(existing.SourceQueries)
	if same {
		return MergeUnchanged, nil
	}

	queriesJSON, _ := json.Marshal(queries)
	_, err = tx.Exec(`UPDATE candidates SET
		title = ?, description = ?, custom_url = ?, thumbnail = ?,
		subscriber_count = ?, video_count = ?, view_count = ?, keywords = ?,
		source_queries = ?, last_seen_at = ?
		WHERE channel_id = ?`,
		c.Title, c.Description, c.CustomURL, c.Thumbnail,
		c.SubscriberCount, c.VideoCount, c.ViewCount, c.Keywords,
		string(queriesJSON), fmtTime(time.Now().UTC()), c.ChannelID)
	if err != nil {
		return MergeUnchanged, fmt.Errorf("store: merge update %s: %w", c.ChannelID, err)
	}
	if err := tx.Commit(); err != nil {
		return MergeUnchanged, fmt.Errorf("store: merge commit: %w", err)
	}
	return MergeUpdated, nil
}

// Get returns the candidate for channelID, with found=false when absent.
func (s *Store) Get(channelID string) (Candidate, bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return Candidate{}, false, fmt.Errorf("store: get begin: %w", err)
	}
	defer tx.Rollback()
	return getTx(tx, channelID)
}

// List returns candidates with the given status, oldest discovery first
// (fair review order). Empty status lists everything.
func (s *Store) List(status Status) ([]Candidate, error) {
	query := `SELECT ` + candidateCols + ` FROM candidates`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY discovered_at ASC, channel_id ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CountByStatus returns candidate counts per status.
func (s *Store) CountByStatus() (map[Status]int, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM candidates GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("store: count: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var st string
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, fmt.Errorf("store: count scan: %w", err)
		}
		counts[Status(st)] = n
	}
	return counts, rows.Err()
}

const candidateCols = `channel_id, title, description, custom_url, thumbnail,
	created_at, subscriber_count, video_count, view_count, keywords,
	source_queries, status, discovered_at, last_seen_at, approved_at,
	blurb, latest_videos`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row rowScanner) (Candidate, error) {
	var c Candidate
	var createdAt, discoveredAt, lastSeenAt, approvedAt, queries, videos, status string
	err := row.Scan(&c.ChannelID, &c.Title, &c.Description, &c.CustomURL,
		&c.Thumbnail, &createdAt, &c.SubscriberCount, &c.VideoCount,
		&c.ViewCount, &c.Keywords, &queries, &status, &discoveredAt,
		&lastSeenAt, &approvedAt, &c.Blurb, &videos)
	if err != nil {
		return Candidate{}, err
	}
	c.Status = Status(status)
	c.CreatedAt = parseTime(createdAt)
	c.DiscoveredAt = parseTime(discoveredAt)
	c.LastSeenAt = parseTime(lastSeenAt)
	c.ApprovedAt = parseTime(approvedAt)
	if err := json.Unmarshal([]byte(queries), &c.SourceQueries); err != nil {
		return Candidate{}, fmt.Errorf("store: corrupt source_queries for %s: %w", c.ChannelID, err)
	}
	if err := json.Unmarshal([]byte(videos), &c.LatestVideos); err != nil {
		return Candidate{}, fmt.Errorf("store: corrupt latest_videos for %s: %w", c.ChannelID, err)
	}
	return c, nil
}

func getTx(tx *sql.Tx, channelID string) (Candidate, bool, error) {
	row := tx.QueryRow(`SELECT `+candidateCols+` FROM candidates WHERE channel_id = ?`, channelID)
	c, err := scanCandidate(row)
	if err == sql.ErrNoRows {
		return Candidate{}, false, nil
	}
	if err != nil {
		return Candidate{}, false, fmt.Errorf("store: get %s: %w", channelID, err)
	}
	return c, true, nil
}

// dedupQueries appends unseen queries to existing, preserving order.
func dedupQueries(existing, incoming []string) []string {
	out := append([]string(nil), existing...)
	seen := make(map[string]bool, len(out))
	for _, q := range out {
		seen[q] = true
	}
	for _, q := range incoming {
		if q != "" && !seen[q] {
			out = append(out, q)
			seen[q] = true
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
