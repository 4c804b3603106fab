package scout

import (
	"fmt"
	"strings"
	"time"
)

// Classify decides whether a channel is an in-scope new-VTuber candidate.
// Pure function: all conditions must hold (AND), and the same metadata,
// clock and config always produce the same answer. The second return is a
// human-readable reject reason for logs and the interactive review.
func Classify(meta ChannelMetadata, now time.Time, fc FilterConfig) (bool, string) {
	// Hidden counts pass; fresh channels hide them all the time.
	if meta.SubscriberCount != SubscriberCountHidden && meta.SubscriberCount > int64(fc.MaxSubscribers) {
		return false, fmt.Sprintf("subscriber count %d over limit %d", meta.SubscriberCount, fc.MaxSubscribers)
	}

	// No creation date means freshness cannot be verified: fail closed.
	if meta.CreatedAt.IsZero() {
		return false, "channel creation date unavailable"
	}
	age := int(now.Sub(meta.CreatedAt).Hours() / 24)
	if age > fc.MaxChannelAgeDays {
		return false, fmt.Sprintf("channel is %d days old, limit %d", age, fc.MaxChannelAgeDays)
	}

	if meta.VideoCount < int64(fc.MinVideos) {
		return false, fmt.Sprintf("only %d videos, need %d", meta.VideoCount, fc.MinVideos)
	}

	if !matchesKeyword(meta, fc.VTuberKeywords) {
		return false, "no vtuber keyword in title or description"
	}

	return true, ""
}

// matchesKeyword reports whether any configured keyword appears in the
// channel's title, description or branding keywords, case-insensitively.
func matchesKeyword(meta ChannelMetadata, keywords []string) bool {
	text := strings.ToLower(meta.Title + " " + meta.Description + " " + meta.Keywords)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
