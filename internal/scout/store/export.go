package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ApprovedEntry is the published shape of one approved channel, the
// contract consumed by the site projector.
type ApprovedEntry struct {
	ChannelID       string    `json:"channel_id"`
	Title           string    `json:"title"`
	Blurb           string    `json:"blurb"`
	ThumbnailURL    string    `json:"thumbnail_url,omitempty"`
	ApprovedAt      time.Time `json:"approved_at"`
	CreatedAt       time.Time `json:"created_at,omitzero"`
	SubscriberCount int64     `json:"subscriber_count"`
	CustomURL       string    `json:"custom_url,omitempty"`
	LatestVideos    []Video   `json:"latest_videos,omitempty"`
}

// ExportApproved writes the approved store file: a JSON mapping of
// channel_id to published fields, projected from rows with
// status=approved. By construction every exported ID traces back to a
// stored candidate. Written via temp file + rename so the projector
// never sees a half-written store.
func (s *Store) ExportApproved(path string) error {
	approved, err := s.List(StatusApproved)
	if err != nil {
		return err
	}

	entries := make(map[string]ApprovedEntry, len(approved))
	for _, c := range approved {
		entries[c.ChannelID] = ApprovedEntry{
			ChannelID:       c.ChannelID,
			Title:           c.Title,
			Blurb:           c.Blurb,
			ThumbnailURL:    c.Thumbnail,
			ApprovedAt:      c.ApprovedAt,
			CreatedAt:       c.CreatedAt,
			SubscriberCount: c.SubscriberCount,
			CustomURL:       c.CustomURL,
			LatestVideos:    c.LatestVideos,
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("store: export marshal: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("store: export mkdir %s: %w", dir, err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("store: export write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("store: export rename %s: %w", path, err)
	}
	return nil
}

// LoadApproved reads an approved store file back. Untouched entries
// round-trip exactly through export and load.
func LoadApproved(path string) (map[string]ApprovedEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]ApprovedEntry{}, nil
		}
		return nil, fmt.Errorf("store: load approved %s: %w", path, err)
	}
	var entries map[string]ApprovedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("store: parse approved %s: %w", path, err)
	}
	return entries, nil
}
