package site

import (
	"encoding/xml"
	"fmt"
	"time"
)

const rssTimeFormat = "Mon, 02 Jan 2006 15:04:05 +0000"

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	AtomNS  string     `xml:"xmlns:atom,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language"`
	LastBuildDate string    `xml:"lastBuildDate"`
	AtomLink      atomLink  `xml:"atom:link"`
	Items         []rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	Description string  `xml:"description"`
	PubDate     string  `xml:"pubDate"`
	GUID        rssGUID `xml:"guid"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// renderRSS builds the RSS 2.0 feed from the newest 20 approvals.
func renderRSS(s Site, cards []card) ([]byte, error) {
	now := time.Now().UTC()
	items := make([]rssItem, 0, 20)
	for i, c := range cards {
		if i >= 20 {
			break
		}
		link := s.URL + "/vtuber/" + c.Slug + ".html"
		pubDate := c.Entry.ApprovedAt
		if pubDate.IsZero() {
			pubDate = now
		}
		items = append(items, rssItem{
			Title:       "【新人VTuber】" + c.Entry.Title + "さんがデビュー！",
			Link:        link,
			Description: fmt.Sprintf("%s チャンネル登録者: %s #新人VTuber", c.Entry.Blurb, c.Subscribers),
			PubDate:     pubDate.UTC().Format(rssTimeFormat),
			GUID:        rssGUID{IsPermaLink: "true", Value: link},
		})
	}

	feed := rssFeed{
		Version: "2.0",
		AtomNS:  "http://www.w3.org/2005/Atom",
		Channel: rssChannel{
			Title:         s.Name,
			Link:          s.URL,
			Description:   s.Tagline,
			Language:      "ja",
			LastBuildDate: now.Format(rssTimeFormat),
			AtomLink:      atomLink{Href: s.URL + "/feed.xml", Rel: "self", Type: "application/rss+xml"},
			Items:         items,
		},
	}
	data, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("site: render rss: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	NS      string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// renderSitemap builds sitemap.xml for the index plus every channel page.
func renderSitemap(s Site, cards []card) ([]byte, error) {
	today := time.Now().UTC().Format("2006-01-02")
	urls := []sitemapURL{{
		Loc:        s.URL + "/",
		LastMod:    today,
		ChangeFreq: "daily",
		Priority:   "1.0",
	}}
	for _, c := range cards {
		urls = append(urls, sitemapURL{
			Loc:        s.URL + "/vtuber/" + c.Slug + ".html",
			LastMod:    today,
			ChangeFreq: "weekly",
			Priority:   "0.8",
		})
	}
	data, err := xml.MarshalIndent(urlSet{NS: "http://www.sitemaps.org/schemas/sitemap/0.9", URLs: urls}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("site: render sitemap: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}
