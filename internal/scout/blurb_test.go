package scout

import (
	"strings"
	"testing"
)

func TestGenerateBlurbFallbackWithoutLLM(t *testing.T) {
	initTestConfig(t) // no LLMClient configured

	meta := ChannelMetadata{
		ChannelID:   "UC123",
		Title:       "ねこみや らて",
		Description: "新人VTuberのらてです！\nゲームと歌枠をやります",
	}
	blurb := GenerateBlurb(t.Context(), meta, nil)
	if blurb == "" {
		t.Fatal("blurb must never be empty")
	}
	if !strings.Contains(blurb, "ねこみや らて") {
		t.Errorf("fallback should mention the channel title: %q", blurb)
	}
}

func TestFallbackBlurbDeterministic(t *testing.T) {
	meta := ChannelMetadata{Title: "らて", Description: "一行目\n二行目"}
	first := FallbackBlurb(meta)
	if first != FallbackBlurb(meta) {
		t.Error("fallback blurb must be deterministic")
	}
	if strings.Contains(first, "二行目") {
		t.Errorf("fallback uses only the first description line: %q", first)
	}
}

func TestFallbackBlurbEmptyMetadata(t *testing.T) {
	blurb := FallbackBlurb(ChannelMetadata{})
	if blurb == "" {
		t.Fatal("fallback must produce text even for empty metadata")
	}
}

func TestStripFences(t *testing.T) {
	if got := stripFences("```json\n{\"a\":1}\n```"); got != `{"a":1}` {
		t.Errorf("stripFences = %q", got)
	}
	if got := stripFences("plain text"); got != "plain text" {
		t.Errorf("stripFences = %q", got)
	}
}
