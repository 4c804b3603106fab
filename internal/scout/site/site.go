// Package site renders the static site from the approved store
// snapshot: paginated index, per-channel pages, RSS feed, sitemap and
// supporting files. It consumes only published fields and never touches
// the candidate store or the API.
package site

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/vtmatome/scout/internal/scout"
	"github.com/vtmatome/scout/internal/scout/store"
)

const itemsPerPage = 20

// Site carries the chrome shared by every page.
type Site struct {
	Name    string
	Tagline string
	URL     string
	Domain  string
}

// card is one channel prepared for rendering.
type card struct {
	Entry       store.ApprovedEntry
	Slug        string
	ChannelURL  string
	Subscribers string
	CreatedJP   string
	AdAfter     bool // ad placeholder follows this card
}

// Generate writes the whole site into outDir.
func Generate(entries map[string]store.ApprovedEntry, outDir string, s Site) error {
	if err := os.MkdirAll(filepath.Join(outDir, "vtuber"), 0o755); err != nil {
		return fmt.Errorf("site: mkdir %s: %w", outDir, err)
	}

	cards := prepareCards(entries)

	if err := writeFile(filepath.Join(outDir, "style.css"), []byte(styleCSS)); err != nil {
		return err
	}

	totalPages := (len(cards) + itemsPerPage - 1) / itemsPerPage
	if totalPages < 1 {
		totalPages = 1
	}
	for page := 1; page <= totalPages; page++ {
		name := "index.html"
		if page > 1 {
			name = fmt.Sprintf("page%d.html", page)
		}
		start := (page - 1) * itemsPerPage
		end := min(start+itemsPerPage, len(cards))
		html, err := renderIndex(s, cards, cards[start:end], page, totalPages)
		if err != nil {
			return err
		}
		if err := writeFile(filepath.Join(outDir, name), html); err != nil {
			return err
		}
	}

	for _, c := range cards {
		html, err := renderChannelPage(s, c)
		if err != nil {
			return err
		}
		if err := writeFile(filepath.Join(outDir, "vtuber", c.Slug+".html"), html); err != nil {
			return err
		}
	}

	rss, err := renderRSS(s, cards)
	if err != nil {
		return err
	}
	if err := writeFile(filepath.Join(outDir, "feed.xml"), rss); err != nil {
		return err
	}
	sm, err := renderSitemap(s, cards)
	if err != nil {
		return err
	}
	if err := writeFile(filepath.Join(outDir, "sitemap.xml"), sm); err != nil {
		return err
	}
	robots := fmt.Sprintf("User-agent: *\nAllow: /\nSitemap: %s/sitemap.xml\n", s.URL)
	if err := writeFile(filepath.Join(outDir, "robots.txt"), []byte(robots)); err != nil {
		return err
	}
	if s.Domain != "" {
		if err := writeFile(filepath.Join(outDir, "CNAME"), []byte(s.Domain+"\n")); err != nil {
			return err
		}
	}
	return nil
}

// prepareCards sorts newest approval first and precomputes display fields.
func prepareCards(entries map[string]store.ApprovedEntry) []card {
	cards := make([]card, 0, len(entries))
	for _, e := range entries {
		cards = append(cards, card{
			Entry:       e,
			Slug:        scout.ChannelSlug(e.ChannelID),
			ChannelURL:  scout.ChannelURL(e.ChannelID),
			Subscribers: scout.FormatSubscriberCount(e.SubscriberCount),
			CreatedJP:   scout.FormatDateJP(e.CreatedAt),
		})
	}
	sort.Slice(cards, func(i, j int) bool {
		if !cards[i].Entry.ApprovedAt.Equal(cards[j].Entry.ApprovedAt) {
			return cards[i].Entry.ApprovedAt.After(cards[j].Entry.ApprovedAt)
		}
		return cards[i].Entry.ChannelID < cards[j].Entry.ChannelID
	})
	for i := range cards {
		cards[i].AdAfter = (i+1)%5 == 0
	}
	return cards
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("site: write %s: %w", path, err)
	}
	return nil
}

func jstNow() time.Time {
	return time.Now().UTC().Add(9 * time.Hour)
}
