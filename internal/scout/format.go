package scout

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/anatolykoptev/go-kit/strutil"
)

// FormatSubscriberCount renders a count the way Japanese YouTube does
// (万 = 10k, 千 = 1k). Hidden counts render as 非公開.
func FormatSubscriberCount(count int64) string {
	switch {
	case count == SubscriberCountHidden:
		return "非公開"
	case count >= 10000:
		return fmt.Sprintf("%.1f万人", float64(count)/10000)
	case count >= 1000:
		return fmt.Sprintf("%.1f千人", float64(count)/1000)
	default:
		return fmt.Sprintf("%d人", count)
	}
}

// FormatDateJP renders a date as 2006年01月02日.
func FormatDateJP(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006年01月02日")
}

// ChannelURL returns the canonical watch URL for a channel ID.
func ChannelURL(channelID string) string {
	return "https://www.youtube.com/channel/" + channelID
}

// VideoURL returns the watch URL for a video ID.
func VideoURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// ChannelSlug derives a short stable slug from a channel ID, used for
// page filenames so raw IDs never leak into site paths.
func ChannelSlug(channelID string) string {
	sum := md5.Sum([]byte(channelID))
	return hex.EncodeToString(sum[:])[:8]
}

// TruncateRunes caps s at limit runes, appending suffix if truncated.
// Safe for CJK and emoji.
func TruncateRunes(s string, limit int, suffix string) string {
	return strutil.TruncateWith(s, limit, suffix)
}
