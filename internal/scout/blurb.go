package scout

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go-kit/llm"
)

const blurbPrompt = `以下のVTuberチャンネル情報をもとに、応援する気持ちを込めた紹介文を3行で書いてください。
フレンドリーで明るいトーンで、視聴者が「見てみたい」と思うような紹介にしてください。

チャンネル名: %s
チャンネル説明: %s
最近の動画:
%s
登録者数: %s

ルール:
- 3行以内
- 絵文字は1〜2個まで
- 「応援しています」的な前向きな締め
- マークダウンは使わない`

// GenerateBlurb produces the published introduction for an approved
// channel. Uses the LLM when configured; any failure falls back to a
// deterministic template built from the channel's own metadata. The
// fallback never fails or blocks, so approval always completes.
func GenerateBlurb(ctx context.Context, meta ChannelMetadata, videos []VideoMetadata) string {
	if cfg.LLMClient == nil {
		return FallbackBlurb(meta)
	}

	var titles strings.Builder
	for i, v := range videos {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&titles, "- %s\n", v.Title)
	}
	videoList := titles.String()
	if videoList == "" {
		videoList = "（なし）"
	}

	desc := meta.Description
	if desc == "" {
		desc = "なし"
	}
	prompt := fmt.Sprintf(blurbPrompt,
		meta.Title,
		TruncateRunes(desc, 200, ""),
		videoList,
		FormatSubscriberCount(meta.SubscriberCount),
	)

	MetricLLMCalls.Add(1)
	raw, err := cfg.LLMClient.Complete(ctx, "", prompt,
		llm.WithChatTemperature(0.7),
		llm.WithChatMaxTokens(200),
	)
	if err != nil {
		MetricLLMErrors.Add(1)
		slog.Warn("blurb: LLM failed, using fallback", slog.String("channel", meta.ChannelID), slog.Any("error", err))
		return FallbackBlurb(meta)
	}
	blurb := strings.TrimSpace(stripFences(raw))
	if blurb == "" {
		return FallbackBlurb(meta)
	}
	return blurb
}

// FallbackBlurb builds the introduction purely from channel metadata.
func FallbackBlurb(meta ChannelMetadata) string {
	title := meta.Title
	if title == "" {
		title = "名前不明"
	}
	if desc := TruncateRunes(meta.Description, 100, ""); desc != "" {
		firstLine := strings.SplitN(desc, "\n", 2)[0]
		if firstLine != "" {
			return fmt.Sprintf("%sさんがVTuberとしてデビュー！ %s", title, firstLine)
		}
	}
	return fmt.Sprintf("%sさんがVTuberとしてデビュー！ ぜひチャンネルをチェックしてみてください。", title)
}

// stripFences removes markdown code fences from LLM output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
