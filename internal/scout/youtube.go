package scout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const ytDataAPIBase = "https://www.googleapis.com/youtube/v3"

// channels.list and videos.list accept up to 50 ids per call.
const ytBatchSize = 50

// TransientAPIError marks a call that failed after bounded retries.
// Callers skip the affected items and continue the batch.
type TransientAPIError struct {
	Op  string
	Err error
}

func (e *TransientAPIError) Error() string { return "youtube " + e.Op + ": " + e.Err.Error() }
func (e *TransientAPIError) Unwrap() error { return e.Err }

// ParseError marks a Data API response missing a required field.
type ParseError struct {
	Endpoint string
	Field    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("youtube %s: response missing %s", e.Endpoint, e.Field)
}

// SubscriberCountHidden is stored when a channel hides its subscriber
// count. Fresh channels do this a lot, so the filter treats it as passing.
const SubscriberCountHidden = -1

// ChannelHit is one search.list result.
type ChannelHit struct {
	ChannelID   string
	Title       string
	Description string
	Thumbnail   string
	PublishedAt time.Time
}

// ChannelMetadata is the typed channels.list record at the ingestion
// boundary. Statistics arrive as strings on the wire and are converted
// here, never downstream.
type ChannelMetadata struct {
	ChannelID       string    `json:"channel_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	CustomURL       string    `json:"custom_url,omitempty"`
	Thumbnail       string    `json:"thumbnail,omitempty"`
	CreatedAt       time.Time `json:"created_at"` // zero = unknown
	SubscriberCount int64     `json:"subscriber_count"`
	VideoCount      int64     `json:"video_count"`
	ViewCount       int64     `json:"view_count"`
	Keywords        string    `json:"keywords,omitempty"` // brandingSettings free text
}

// VideoMetadata is the typed videos.list record.
type VideoMetadata struct {
	VideoID     string    `json:"video_id"`
	Title       string    `json:"title"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	ViewCount   int64     `json:"view_count"`
	LikeCount   int64     `json:"like_count"`
	Duration    string    `json:"duration,omitempty"`
}

// Client is the budget-aware YouTube Data API v3 client. Every paid call
// reserves its unit cost from the run budget before touching the network;
// the limiter paces requests so bursts stay polite.
type Client struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
	budget  *Budget
	limiter *rate.Limiter
}

// NewClient builds a client around the given run budget.
func NewClient(apiKey string, budget *Budget) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: ytDataAPIBase,
		httpc:   cfg.HTTPClient,
		budget:  budget,
		limiter: rate.NewLimiter(rate.Limit(4), 2),
	}
}

// Budget exposes the run budget for status reporting.
func (c *Client) Budget() *Budget { return c.budget }

// SearchChannels searches for recently created channels matching query.
// Quota cost: 100 units.
func (c *Client) SearchChannels(ctx context.Context, query string) ([]ChannelHit, error) {
	if err := c.budget.Spend(CostSearch); err != nil {
		return nil, err
	}
	MetricSearchRequests.Add(1)

	publishedAfter := time.Now().UTC().
		AddDate(0, 0, -cfg.Filter.MaxChannelAgeDays).
		Format(time.RFC3339)

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "channel")
	params.Set("maxResults", strconv.Itoa(cfg.MaxSearchResult))
	params.Set("publishedAfter", publishedAfter)
	params.Set("order", "date")
	params.Set("regionCode", "JP")
	params.Set("relevanceLanguage", "ja")

	body, err := c.get(ctx, "search", params)
	if err != nil {
		return nil, err
	}

	var result ytSearchResp
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("youtube search: decode: %w", err)
	}

	hits := make([]ChannelHit, 0, len(result.Items))
	for _, item := range result.Items {
		if item.Snippet.ChannelID == "" {
			continue
		}
		hits = append(hits, ChannelHit{
			ChannelID:   item.Snippet.ChannelID,
			Title:       item.Snippet.Title,
			Description: item.Snippet.Description,
			Thumbnail:   item.Snippet.Thumbnails.Medium.URL,
			PublishedAt: parseYTTime(item.Snippet.PublishedAt),
		})
	}
	return hits, nil
}

// ChannelsInfo fetches channel details in batches of 50. Quota cost:
// 1 unit per batch. A transient batch failure is logged and skipped;
// quota exhaustion stops the remaining batches and is returned alongside
// whatever was already fetched.
func (c *Client) ChannelsInfo(ctx context.Context, ids []string) ([]ChannelMetadata, error) {
	var out []ChannelMetadata
	for batch := range batches(ids, ytBatchSize) {
		metas, err := c.channelsBatch(ctx, batch)
		if err != nil {
			if errors.Is(err, ErrQuotaExhausted) {
				return out, err
			}
			MetricAPIErrors.Add(1)
			slog.Warn("channel batch failed, skipping", slog.Int("size", len(batch)), slog.Any("error", err))
			continue
		}
		out = append(out, metas...)
	}
	return out, nil
}

func (c *Client) channelsBatch(ctx context.Context, ids []string) ([]ChannelMetadata, error) {
	if err := c.budget.Spend(CostChannelsList); err != nil {
		return nil, err
	}
	MetricChannelLookups.Add(1)

	params := url.Values{}
	params.Set("part", "snippet,statistics,brandingSettings")
	params.Set("id", strings.Join(ids, ","))

	body, err := c.get(ctx, "channels", params)
	if err != nil {
		return nil, err
	}

	var result ytChannelsResp
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("youtube channels: decode: %w", err)
	}

	metas := make([]ChannelMetadata, 0, len(result.Items))
	for _, item := range result.Items {
		if item.ID == "" {
			return nil, &ParseError{Endpoint: "channels", Field: "items[].id"}
		}
		subs := parseYTCount(item.Statistics.SubscriberCount)
		if item.Statistics.HiddenSubscriberCount {
			subs = SubscriberCountHidden
		}
		metas = append(metas, ChannelMetadata{
			ChannelID:       item.ID,
			Title:           item.Snippet.Title,
			Description:     item.Snippet.Description,
			CustomURL:       item.Snippet.CustomURL,
			Thumbnail:       item.Snippet.Thumbnails.Medium.URL,
			CreatedAt:       parseYTTime(item.Snippet.PublishedAt),
			SubscriberCount: subs,
			VideoCount:      parseYTCount(item.Statistics.VideoCount),
			ViewCount:       parseYTCount(item.Statistics.ViewCount),
			Keywords:        item.BrandingSettings.Channel.Keywords,
		})
	}
	return metas, nil
}

// VideosInfo fetches video details in batches of 50. Quota cost: 1 unit
// per batch. Same skip semantics as ChannelsInfo.
func (c *Client) VideosInfo(ctx context.Context, ids []string) ([]VideoMetadata, error) {
	var out []VideoMetadata
	for batch := range batches(ids, ytBatchSize) {
		metas, err := c.videosBatch(ctx, batch)
		if err != nil {
			if errors.Is(err, ErrQuotaExhausted) {
				return out, err
			}
			MetricAPIErrors.Add(1)
			slog.Warn("video batch failed, skipping", slog.Int("size", len(batch)), slog.Any("error", err))
			continue
		}
		out = append(out, metas...)
	}
	return out, nil
}

func (c *Client) videosBatch(ctx context.Context, ids []string) ([]VideoMetadata, error) {
	if err := c.budget.Spend(CostVideosList); err != nil {
		return nil, err
	}
	MetricVideoLookups.Add(1)

	params := url.Values{}
	params.Set("part", "snippet,statistics,contentDetails")
	params.Set("id", strings.Join(ids, ","))

	body, err := c.get(ctx, "videos", params)
	if err != nil {
		return nil, err
	}

	var result ytVideosResp
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("youtube videos: decode: %w", err)
	}

	metas := make([]VideoMetadata, 0, len(result.Items))
	for _, item := range result.Items {
		if item.ID == "" {
			return nil, &ParseError{Endpoint: "videos", Field: "items[].id"}
		}
		metas = append(metas, VideoMetadata{
			VideoID:     item.ID,
			Title:       item.Snippet.Title,
			Thumbnail:   item.Snippet.Thumbnails.Medium.URL,
			PublishedAt: parseYTTime(item.Snippet.PublishedAt),
			ViewCount:   parseYTCount(item.Statistics.ViewCount),
			LikeCount:   parseYTCount(item.Statistics.LikeCount),
			Duration:    item.ContentDetails.Duration,
		})
	}
	return metas, nil
}

// ChannelVideos lists a channel's latest uploads via search.list.
// Quota cost: 100 units, so only called for candidates being approved.
func (c *Client) ChannelVideos(ctx context.Context, channelID string, n int) ([]VideoMetadata, error) {
	if err := c.budget.Spend(CostSearch); err != nil {
		return nil, err
	}
	MetricSearchRequests.Add(1)

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("channelId", channelID)
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(n))
	params.Set("order", "date")

	body, err := c.get(ctx, "search", params)
	if err != nil {
		return nil, err
	}

	var result ytVideoSearchResp
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("youtube search: decode: %w", err)
	}

	videos := make([]VideoMetadata, 0, len(result.Items))
	for _, item := range result.Items {
		if item.ID.VideoID == "" {
			continue
		}
		videos = append(videos, VideoMetadata{
			VideoID:     item.ID.VideoID,
			Title:       item.Snippet.Title,
			Thumbnail:   item.Snippet.Thumbnails.Medium.URL,
			PublishedAt: parseYTTime(item.Snippet.PublishedAt),
		})
	}
	return videos, nil
}

// get issues one paced, retried Data API request and returns the body.
// 403 means the daily quota died at the source: the local budget is
// drained so no further paid calls go out this run.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params.Set("key", c.apiKey)
	apiURL := c.baseURL + "/" + endpoint + "?" + params.Encode()

	resp, err := RetryHTTP(ctx, DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return c.httpc.Do(req)
	})
	if err != nil {
		return nil, &TransientAPIError{Op: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		c.budget.Drain()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: API returned 403: %s", ErrQuotaExhausted, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &TransientAPIError{Op: endpoint, Err: &APIStatusError{StatusCode: resp.StatusCode, Body: string(body)}}
	}

	return io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
}

// --- wire types ---

type ytThumbnails struct {
	Medium struct {
		URL string `json:"url"`
	} `json:"medium"`
}

type ytSearchResp struct {
	Items []struct {
		Snippet struct {
			ChannelID   string       `json:"channelId"`
			Title       string       `json:"title"`
			Description string       `json:"description"`
			PublishedAt string       `json:"publishedAt"`
			Thumbnails  ytThumbnails `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

type ytVideoSearchResp struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title       string       `json:"title"`
			PublishedAt string       `json:"publishedAt"`
			Thumbnails  ytThumbnails `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

type ytChannelsResp struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string       `json:"title"`
			Description string       `json:"description"`
			CustomURL   string       `json:"customUrl"`
			PublishedAt string       `json:"publishedAt"`
			Thumbnails  ytThumbnails `json:"thumbnails"`
		} `json:"snippet"`
		Statistics struct {
			SubscriberCount       string `json:"subscriberCount"`
			HiddenSubscriberCount bool   `json:"hiddenSubscriberCount"`
			VideoCount            string `json:"videoCount"`
			ViewCount             string `json:"viewCount"`
		} `json:"statistics"`
		BrandingSettings struct {
			Channel struct {
				Keywords string `json:"keywords"`
			} `json:"channel"`
		} `json:"brandingSettings"`
	} `json:"items"`
}

type ytVideosResp struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string       `json:"title"`
			PublishedAt string       `json:"publishedAt"`
			Thumbnails  ytThumbnails `json:"thumbnails"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
			LikeCount string `json:"likeCount"`
		} `json:"statistics"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// parseYTTime parses the API's RFC3339 timestamps; zero time on failure.
func parseYTTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// parseYTCount parses a numeric statistics string; 0 when absent.
func parseYTCount(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// batches yields id slices of at most size elements.
func batches(ids []string, size int) func(yield func([]string) bool) {
	return func(yield func([]string) bool) {
		for i := 0; i < len(ids); i += size {
			end := min(i+size, len(ids))
			if !yield(ids[i:end]) {
				return
			}
		}
	}
}
