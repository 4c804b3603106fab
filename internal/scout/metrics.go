package scout

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Operational counters across one process invocation.
var (
	MetricSearchRequests  atomic.Int64
	MetricChannelLookups  atomic.Int64
	MetricVideoLookups    atomic.Int64
	MetricQuotaSpent      atomic.Int64
	MetricCacheHits       atomic.Int64
	MetricCacheMisses     atomic.Int64
	MetricLLMCalls        atomic.Int64
	MetricLLMErrors       atomic.Int64
	MetricAPIErrors       atomic.Int64
)

// MetricsSnapshot returns a snapshot of all counters.
func MetricsSnapshot() map[string]int64 {
	return map[string]int64{
		"search_requests": MetricSearchRequests.Load(),
		"channel_lookups": MetricChannelLookups.Load(),
		"video_lookups":   MetricVideoLookups.Load(),
		"quota_spent":     MetricQuotaSpent.Load(),
		"cache_hits":      MetricCacheHits.Load(),
		"cache_misses":    MetricCacheMisses.Load(),
		"llm_calls":       MetricLLMCalls.Load(),
		"llm_errors":      MetricLLMErrors.Load(),
		"api_errors":      MetricAPIErrors.Load(),
	}
}

// FormatMetrics returns counters as simple text for the status command.
func FormatMetrics() string {
	m := MetricsSnapshot()
	keys := []string{
		"search_requests", "channel_lookups", "video_lookups",
		"quota_spent", "cache_hits", "cache_misses",
		"llm_calls", "llm_errors", "api_errors",
	}
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}
