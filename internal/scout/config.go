package scout

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
	"gopkg.in/yaml.v3"
)

// Default search queries and VTuber keywords, from the Japanese debut scene.
// Overrideable via the SCOUT_CONFIG yaml file.
var (
	DefaultSearchQueries = []string{
		"新人VTuber",
		"VTuberデビュー",
		"初配信 VTuber",
		"個人勢VTuber デビュー",
		"新人Vtuber 自己紹介",
	}
	DefaultVTuberKeywords = []string{
		"vtuber", "ブイチューバー", "vチューバー",
		"バーチャル", "virtual", "ママ", "パパ",
		"live2d", "配信者", "ゲーム実況",
		"歌ってみた", "初配信", "デビュー",
	}
)

// FilterConfig holds the heuristic thresholds for candidate classification.
type FilterConfig struct {
	MaxSubscribers        int      `yaml:"max_subscribers"`
	MaxChannelAgeDays     int      `yaml:"max_channel_age_days"`
	MinVideos             int      `yaml:"min_videos"`
	// Recognized but not enforced: channels.list carries no last-upload
	// timestamp, and resolving one pre-filter would cost videos quota
	// per candidate.
	MaxDaysSinceLastVideo int      `yaml:"max_days_since_last_video"`
	VTuberKeywords        []string `yaml:"vtuber_keywords"`
}

// Config holds all scout configuration, injected from main.
type Config struct {
	YouTubeAPIKey   string
	SearchQueries   []string
	Filter          FilterConfig
	DailyQuota      int64 // YouTube Data API daily unit allowance
	MaxSearchResult int   // results per search call

	StorePath string // sqlite candidate store
	SiteDir   string // static site output
	RedisURL  string // optional L2 metadata cache

	SiteName    string
	SiteTagline string
	SiteURL     string

	LLMAPIKey          string
	LLMAPIKeyFallbacks []string
	LLMAPIBase         string
	LLMModel           string

	CacheTTL    time.Duration
	HTTPTimeout time.Duration
	HTTPClient  *http.Client
	LLMClient   *llm.Client // nil = blurb fallback only
}

var cfg Config

// Cfg exposes the scout configuration for sub-packages (store, site).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the scout engine with the given configuration.
func Init(c Config) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.HTTPTimeout}
	}
	cfg = c
	Cfg = &cfg
}

// fileOverrides is the shape of the optional SCOUT_CONFIG yaml file.
// Only the lists live here; scalar thresholds stay env-driven.
type fileOverrides struct {
	SearchQueries  []string `yaml:"search_queries"`
	VTuberKeywords []string `yaml:"vtuber_keywords"`
}

// LoadOverrides applies search query / keyword lists from a yaml file on
// top of c. Missing file is not an error when path came from a default.
func LoadOverrides(c *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var fo fileOverrides
	if err := yaml.Unmarshal(data, &fo); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	if len(fo.SearchQueries) > 0 {
		c.SearchQueries = fo.SearchQueries
	}
	if len(fo.VTuberKeywords) > 0 {
		c.Filter.VTuberKeywords = fo.VTuberKeywords
	}
	return nil
}
