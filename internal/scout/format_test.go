package scout

import (
	"testing"
	"time"
)

func TestFormatSubscriberCount(t *testing.T) {
	tests := []struct {
		count int64
		want  string
	}{
		{SubscriberCountHidden, "非公開"},
		{0, "0人"},
		{999, "999人"},
		{1500, "1.5千人"},
		{23000, "2.3万人"},
	}
	for _, tt := range tests {
		if got := FormatSubscriberCount(tt.count); got != tt.want {
			t.Errorf("FormatSubscriberCount(%d) = %q, want %q", tt.count, got, tt.want)
		}
	}
}

func TestFormatDateJP(t *testing.T) {
	d := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	if got := FormatDateJP(d); got != "2026年02月03日" {
		t.Errorf("FormatDateJP = %q", got)
	}
	if got := FormatDateJP(time.Time{}); got != "" {
		t.Errorf("zero time should render empty, got %q", got)
	}
}

func TestChannelSlug(t *testing.T) {
	a := ChannelSlug("UC123")
	if len(a) != 8 {
		t.Fatalf("slug length = %d, want 8", len(a))
	}
	if a != ChannelSlug("UC123") {
		t.Error("slug must be stable")
	}
	if a == ChannelSlug("UC456") {
		t.Error("different channels must get different slugs")
	}
}
