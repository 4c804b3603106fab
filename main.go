// scout is the 新人VTuber発掘所 pipeline.
//
// Discovers newly debuted VTuber channels through the YouTube Data API,
// keeps candidates in a local store with an approval lifecycle, and
// publishes approved channels as a static site.
//
// Commands: collect, approve, approve-all, generate, status.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-kit/llm"
	"github.com/joho/godotenv"
	"github.com/vtmatome/scout/internal/scout"
	"github.com/vtmatome/scout/internal/scout/site"
	"github.com/vtmatome/scout/internal/scout/store"
)

var version = "dev"

func main() {
	_ = godotenv.Load()
	setupLogging()

	mode := "collect"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	apiKey := env.Str("YOUTUBE_API_KEY", "")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "YOUTUBE_API_KEY is not set")
		os.Exit(1)
	}

	initScout(apiKey)
	slog.Info("scout starting", slog.String("version", version), slog.String("mode", mode))

	st, err := store.Open(scout.Cfg.StorePath)
	if err != nil {
		slog.Error("open store failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()
	approvedPath := env.Str("APPROVED_PATH", "cache/approved.json")

	switch mode {
	case "collect":
		err = runCollect(ctx, st, approvedPath)
	case "approve":
		err = runApprove(ctx, st, approvedPath)
	case "approve-all":
		err = runApproveAll(ctx, st, approvedPath)
	case "generate":
		err = runGenerate(st, approvedPath)
	case "status":
		err = runStatus(st)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode: %s\nusage: scout [collect|approve|approve-all|generate|status]\n", mode)
		os.Exit(1)
	}
	if err != nil {
		slog.Error("command failed", slog.String("mode", mode), slog.Any("error", err))
		os.Exit(1)
	}
}

func setupLogging() {
	level := slog.LevelInfo
	if env.Str("LOG_LEVEL", "") == "debug" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func initScout(apiKey string) {
	c := scout.Config{
		YouTubeAPIKey: apiKey,
		SearchQueries: scout.DefaultSearchQueries,
		Filter: scout.FilterConfig{
			MaxSubscribers:    env.Int("MAX_SUBSCRIBERS", 1000),
			MaxChannelAgeDays: env.Int("MAX_CHANNEL_AGE_DAYS", 90),
			MinVideos:         env.Int("MIN_VIDEOS", 3),
			VTuberKeywords:    scout.DefaultVTuberKeywords,
		},
		DailyQuota:      int64(env.Int("DAILY_QUOTA_BUDGET", 10000)),
		MaxSearchResult: env.Int("MAX_SEARCH_RESULTS", 10),
		StorePath:       env.Str("STORE_PATH", "cache/candidates.db"),
		SiteDir:         env.Str("SITE_DIR", "docs"),
		RedisURL:        env.Str("REDIS_URL", ""),
		SiteName:        env.Str("SITE_NAME", "新人VTuber発掘所"),
		SiteTagline:     env.Str("SITE_TAGLINE", "あなたの推しになる新人、ここで見つかる"),
		SiteURL:         env.Str("SITE_URL", "https://vtuber-matome.net"),

		LLMAPIKey:          env.Str("LLM_API_KEY", ""),
		LLMAPIKeyFallbacks: env.List("LLM_API_KEY_FALLBACKS", ""),
		LLMAPIBase:         env.Str("LLM_API_BASE", "https://api.openai.com/v1"),
		LLMModel:           env.Str("LLM_MODEL", "gpt-4o-mini"),

		CacheTTL:    env.Duration("CACHE_TTL", 12*time.Hour),
		HTTPTimeout: env.Duration("HTTP_TIMEOUT", 30*time.Second),
	}

	if path := env.Str("SCOUT_CONFIG", ""); path != "" {
		if err := scout.LoadOverrides(&c, path); err != nil {
			slog.Warn("config overrides not applied", slog.Any("error", err))
		}
	}

	// Blurb generation is optional: no key, no LLM client, fallback text.
	if c.LLMAPIKey != "" {
		c.LLMClient = llm.NewClient(c.LLMAPIBase, c.LLMAPIKey, c.LLMModel,
			llm.WithFallbackKeys(c.LLMAPIKeyFallbacks),
			llm.WithMaxTokens(200),
			llm.WithTemperature(0.7),
			llm.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
		)
	} else {
		slog.Info("LLM_API_KEY not set, blurbs use the fallback template")
	}

	scout.Init(c)
	scout.InitCache(c.RedisURL, c.CacheTTL)
}

func newClient() *scout.Client {
	return scout.NewClient(scout.Cfg.YouTubeAPIKey, scout.NewBudget(scout.Cfg.DailyQuota))
}

func runCollect(ctx context.Context, st *store.Store, approvedPath string) error {
	client := newClient()
	sum, err := scout.Collect(ctx, client, st)
	if err != nil {
		return err
	}
	fmt.Printf("検索 %d件 → ヒット %d件 / 新規 %d / 更新 %d / 変化なし %d / 除外 %d / 失敗 %d（クォータ消費 %d units）\n",
		sum.Queries, sum.Hits, sum.Discovered, sum.Updated, sum.Unchanged, sum.Skipped, sum.Failed, sum.QuotaSpent)

	printPending(st)
	return regenerateSite(st, approvedPath)
}

func runApprove(ctx context.Context, st *store.Store, approvedPath string) error {
	client := newClient()
	pending, err := reviewQueue(st)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Println("承認待ちの候補はありません。")
		return nil
	}

	printQueue(pending)
	fmt.Println("承認するチャンネル番号を入力（カンマ区切りで複数可、r3 で3番を却下、qで終了）:")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(input, "q") {
			break
		}
		for _, tok := range strings.Split(input, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			outcome := store.OutcomeApprove
			if strings.HasPrefix(strings.ToLower(tok), "r") {
				outcome = store.OutcomeReject
				tok = tok[1:]
			}
			idx, err := strconv.Atoi(tok)
			if err != nil || idx < 1 || idx > len(pending) {
				fmt.Printf("  ❌ 無効な番号: %s\n", tok)
				continue
			}
			c := pending[idx-1]
			if err := decideCandidate(ctx, client, st, c, outcome); err != nil {
				fmt.Printf("  ❌ %s: %v\n", c.Title, err)
				continue
			}
			if outcome == store.OutcomeApprove {
				fmt.Printf("  ✅ 承認: %s\n", c.Title)
			} else {
				fmt.Printf("  🚫 却下: %s\n", c.Title)
			}
		}

		pending, err = reviewQueue(st)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Println("全候補を処理しました。")
			break
		}
		printQueue(pending)
	}

	return regenerateSite(st, approvedPath)
}

func runApproveAll(ctx context.Context, st *store.Store, approvedPath string) error {
	client := newClient()
	pending, err := reviewQueue(st)
	if err != nil {
		return err
	}
	fmt.Printf("全%d件を一括承認します...\n", len(pending))
	for _, c := range pending {
		if err := decideCandidate(ctx, client, st, c, store.OutcomeApprove); err != nil {
			slog.Warn("approve-all: skipping", slog.String("channel", c.ChannelID), slog.Any("error", err))
			continue
		}
		fmt.Printf("  ✅ %s\n", c.Title)
	}
	return regenerateSite(st, approvedPath)
}

func runGenerate(st *store.Store, approvedPath string) error {
	return regenerateSite(st, approvedPath)
}

func runStatus(st *store.Store) error {
	counts, err := st.CountByStatus()
	if err != nil {
		return err
	}
	fmt.Println("📊 ステータス")
	for _, s := range []store.Status{store.StatusDiscovered, store.StatusPendingReview, store.StatusApproved, store.StatusRejected} {
		fmt.Printf("  %-15s %d件\n", s, counts[s])
	}
	fmt.Printf("  本日のクォータ予算: %d units（search=100, lookup=1）\n", scout.Cfg.DailyQuota)
	fmt.Print(scout.FormatMetrics())
	return nil
}

// reviewQueue returns candidates awaiting a decision, oldest discovery
// first, with pending_review ahead of freshly discovered.
func reviewQueue(st *store.Store) ([]store.Candidate, error) {
	pending, err := st.List(store.StatusPendingReview)
	if err != nil {
		return nil, err
	}
	discovered, err := st.List(store.StatusDiscovered)
	if err != nil {
		return nil, err
	}
	return append(pending, discovered...), nil
}

// decideCandidate walks one candidate through the state machine. For an
// approval it fetches the channel's latest uploads (budget permitting)
// and generates the blurb first, so the published record is complete the
// moment the status flips.
func decideCandidate(ctx context.Context, client *scout.Client, st *store.Store, c store.Candidate, outcome store.Outcome) error {
	if c.Status == store.StatusDiscovered {
		if err := st.PromoteToReview(c.ChannelID); err != nil {
			return err
		}
	}
	if outcome == store.OutcomeReject {
		return st.Decide(c.ChannelID, store.OutcomeReject, "", nil)
	}

	var videos []scout.VideoMetadata
	vids, err := client.ChannelVideos(ctx, c.ChannelID, 5)
	if err != nil {
		// Quota or transport trouble only costs us the video list.
		slog.Warn("latest videos unavailable", slog.String("channel", c.ChannelID), slog.Any("error", err))
	} else {
		videos = enrichVideos(ctx, client, vids)
	}

	meta := scout.ChannelMetadata{
		ChannelID:       c.ChannelID,
		Title:           c.Title,
		Description:     c.Description,
		SubscriberCount: c.SubscriberCount,
	}
	blurb := scout.GenerateBlurb(ctx, meta, videos)
	return st.Decide(c.ChannelID, store.OutcomeApprove, blurb, scout.StoreVideos(videos))
}

// enrichVideos swaps search snippets for full videos.list records (view
// counts, duration) at 1 unit per batch. The snippets are good enough
// when the lookup fails.
func enrichVideos(ctx context.Context, client *scout.Client, vids []scout.VideoMetadata) []scout.VideoMetadata {
	ids := make([]string, 0, len(vids))
	for _, v := range vids {
		ids = append(ids, v.VideoID)
	}
	detailed, err := client.VideosInfo(ctx, ids)
	if err != nil || len(detailed) == 0 {
		return vids
	}
	return detailed
}

func regenerateSite(st *store.Store, approvedPath string) error {
	if err := st.ExportApproved(approvedPath); err != nil {
		return err
	}
	entries, err := store.LoadApproved(approvedPath)
	if err != nil {
		return err
	}
	s := site.Site{
		Name:    scout.Cfg.SiteName,
		Tagline: scout.Cfg.SiteTagline,
		URL:     scout.Cfg.SiteURL,
		Domain:  env.Str("SITE_DOMAIN", "vtuber-matome.net"),
	}
	if err := site.Generate(entries, scout.Cfg.SiteDir, s); err != nil {
		return err
	}
	slog.Info("site generated", slog.String("dir", scout.Cfg.SiteDir), slog.Int("channels", len(entries)))
	return nil
}

func printPending(st *store.Store) {
	pending, err := reviewQueue(st)
	if err != nil || len(pending) == 0 {
		return
	}
	printQueue(pending)
}

func printQueue(pending []store.Candidate) {
	fmt.Printf("\n📋 承認待ちの候補: %d件\n%s\n", len(pending), strings.Repeat("-", 60))
	for i, c := range pending {
		age := ""
		if !c.CreatedAt.IsZero() {
			age = fmt.Sprintf("%d日前", int(time.Since(c.CreatedAt).Hours()/24))
		}
		fmt.Printf("  %d. %s\n", i+1, c.Title)
		fmt.Printf("     登録者: %s | 開設: %s | 動画: %d本\n", scout.FormatSubscriberCount(c.SubscriberCount), age, c.VideoCount)
		fmt.Printf("     ID: %s\n\n", c.ChannelID)
	}
}
