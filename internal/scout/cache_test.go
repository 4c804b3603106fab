package scout

import (
	"testing"
	"time"
)

func TestCacheRoundTrip(t *testing.T) {
	chanCache = &tieredCache{ttl: time.Minute}
	t.Cleanup(func() { chanCache = nil })

	meta := ChannelMetadata{
		ChannelID:       "UC123",
		Title:           "ねこみや らて",
		SubscriberCount: 120,
		VideoCount:      5,
	}
	CachePutChannel(t.Context(), meta)

	got, ok := CacheGetChannel(t.Context(), "UC123")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.ChannelID != meta.ChannelID || got.Title != meta.Title {
		t.Errorf("got %+v, want %+v", got, meta)
	}
	if got.SubscriberCount != meta.SubscriberCount || got.VideoCount != meta.VideoCount {
		t.Errorf("counts drifted: got %+v, want %+v", got, meta)
	}
}

func TestCacheMiss(t *testing.T) {
	chanCache = &tieredCache{ttl: time.Minute}
	t.Cleanup(func() { chanCache = nil })

	if _, ok := CacheGetChannel(t.Context(), "UC-unknown"); ok {
		t.Error("expected miss for unknown channel")
	}
}

func TestCacheExpiry(t *testing.T) {
	chanCache = &tieredCache{ttl: -time.Second} // everything written is already stale
	t.Cleanup(func() { chanCache = nil })

	CachePutChannel(t.Context(), ChannelMetadata{ChannelID: "UC123", Title: "x"})
	if _, ok := CacheGetChannel(t.Context(), "UC123"); ok {
		t.Error("expired entry must not be served")
	}
}

func TestCacheDisabled(t *testing.T) {
	chanCache = nil
	CachePutChannel(t.Context(), ChannelMetadata{ChannelID: "UC123"})
	if _, ok := CacheGetChannel(t.Context(), "UC123"); ok {
		t.Error("nil cache must always miss")
	}
}
