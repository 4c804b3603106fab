package scout

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vtmatome/scout/internal/scout/store"
)

// CollectSummary is the end-of-run report for a discovery pass.
type CollectSummary struct {
	Queries    int
	Hits       int
	Discovered int
	Updated    int
	Unchanged  int
	Skipped    int
	Failed     int
	QuotaSpent int64
}

// Collect runs one discovery pass: search every configured query, look
// up channel details (cache first), classify, and merge survivors into
// the candidate store. Quota exhaustion stops further paid calls but the
// pass still completes with whatever was fetched; a single channel's
// failure never aborts the batch.
func Collect(ctx context.Context, client *Client, st *store.Store) (CollectSummary, error) {
	var sum CollectSummary

	// queriesByID keeps every query that surfaced a channel, in hit order.
	queriesByID := make(map[string][]string)
	hitsByID := make(map[string]ChannelHit)
	var order []string

	quotaDone := false
	for _, query := range cfg.SearchQueries {
		if quotaDone {
			break
		}
		sum.Queries++
		hits, err := client.SearchChannels(ctx, query)
		if err != nil {
			if errors.Is(err, ErrQuotaExhausted) {
				slog.Warn("collect: quota exhausted, stopping searches", slog.String("query", query))
				quotaDone = true
				break
			}
			MetricAPIErrors.Add(1)
			slog.Warn("collect: search failed, skipping query", slog.String("query", query), slog.Any("error", err))
			continue
		}
		slog.Info("collect: searched", slog.String("query", query), slog.Int("hits", len(hits)))
		for _, h := range hits {
			if _, seen := queriesByID[h.ChannelID]; !seen {
				order = append(order, h.ChannelID)
				hitsByID[h.ChannelID] = h
			}
			queriesByID[h.ChannelID] = append(queriesByID[h.ChannelID], query)
		}
	}
	sum.Hits = len(order)

	// Cache first, then one batched lookup for the misses.
	metaByID := make(map[string]ChannelMetadata, len(order))
	var misses []string
	for _, id := range order {
		if meta, ok := CacheGetChannel(ctx, id); ok {
			metaByID[id] = meta
			continue
		}
		misses = append(misses, id)
	}
	if len(misses) > 0 && !quotaDone {
		metas, err := client.ChannelsInfo(ctx, misses)
		if err != nil {
			if !errors.Is(err, ErrQuotaExhausted) {
				return sum, err
			}
			slog.Warn("collect: quota exhausted during lookups", slog.Int("fetched", len(metas)))
		}
		for _, m := range metas {
			metaByID[m.ChannelID] = m
			CachePutChannel(ctx, m)
		}
	}

	now := time.Now().UTC()
	for _, id := range order {
		meta, ok := metaByID[id]
		if !ok {
			sum.Skipped++
			continue
		}
		ok, reason := Classify(meta, now, cfg.Filter)
		if !ok {
			slog.Debug("collect: filtered out", slog.String("channel", id), slog.String("title", meta.Title), slog.String("reason", reason))
			sum.Skipped++
			continue
		}

		if meta.Thumbnail == "" {
			meta.Thumbnail = hitsByID[id].Thumbnail
		}
		result, err := st.Merge(candidateFromMeta(meta, queriesByID[id]))
		if err != nil {
			slog.Warn("collect: merge failed", slog.String("channel", id), slog.Any("error", err))
			sum.Failed++
			continue
		}
		switch result {
		case store.MergeInserted:
			slog.Info("collect: new candidate", slog.String("channel", id), slog.String("title", meta.Title),
				slog.String("subscribers", FormatSubscriberCount(meta.SubscriberCount)))
			sum.Discovered++
		case store.MergeUpdated:
			sum.Updated++
		case store.MergeUnchanged:
			sum.Unchanged++
		}
	}

	sum.QuotaSpent = client.Budget().Spent()
	slog.Info("collect: done",
		slog.Int("hits", sum.Hits),
		slog.Int("discovered", sum.Discovered),
		slog.Int("updated", sum.Updated),
		slog.Int("unchanged", sum.Unchanged),
		slog.Int("skipped", sum.Skipped),
		slog.Int("failed", sum.Failed),
		slog.Int64("quota_spent", sum.QuotaSpent))
	return sum, nil
}

// candidateFromMeta maps API metadata onto a store record. Status and
// discovery time are the store's business, not set here.
func candidateFromMeta(meta ChannelMetadata, sourceQueries []string) store.Candidate {
	return store.Candidate{
		ChannelID:       meta.ChannelID,
		Title:           meta.Title,
		Description:     meta.Description,
		CustomURL:       meta.CustomURL,
		Thumbnail:       meta.Thumbnail,
		CreatedAt:       meta.CreatedAt,
		SubscriberCount: meta.SubscriberCount,
		VideoCount:      meta.VideoCount,
		ViewCount:       meta.ViewCount,
		Keywords:        meta.Keywords,
		SourceQueries:   sourceQueries,
	}
}

// StoreVideos converts API video metadata to the stored shape.
func StoreVideos(videos []VideoMetadata) []store.Video {
	out := make([]store.Video, 0, len(videos))
	for _, v := range videos {
		out = append(out, store.Video{
			VideoID:     v.VideoID,
			Title:       v.Title,
			Thumbnail:   v.Thumbnail,
			PublishedAt: v.PublishedAt,
		})
	}
	return out
}
