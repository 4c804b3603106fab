package site

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/vtmatome/scout/internal/scout"
)

var tmplFuncs = template.FuncMap{
	"videoURL": scout.VideoURL,
}

type pageVideo struct {
	VideoID string
	Title   string
}

type indexData struct {
	Site       Site
	Title      string
	Desc       string
	PageURL    string
	Total      int
	Cards      []card
	Page       int
	TotalPages int
	Pages      []pageLink
	Updated    string
}

type pageLink struct {
	Num     int
	File    string
	Current bool
}

type channelData struct {
	Site    Site
	Title   string
	Desc    string
	PageURL string
	Card    card
	Videos  []pageVideo
}

const headTmpl = `<!DOCTYPE html>
<html lang="ja">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  <meta name="description" content="{{.Desc}}">
  <meta property="og:title" content="{{.Title}}">
  <meta property="og:description" content="{{.Desc}}">
  <meta property="og:type" content="website">
  <meta property="og:url" content="{{.PageURL}}">
  <meta name="twitter:card" content="summary_large_image">
  <link rel="canonical" href="{{.PageURL}}">
  <link rel="stylesheet" href="/style.css">
</head>`

const cardTmpl = `{{define "card"}}
<article class="vtuber-card">
  <div class="card-header">
    <img src="{{.Entry.ThumbnailURL}}" alt="{{.Entry.Title}}" class="card-thumbnail" loading="lazy">
    <div class="card-info">
      <div class="card-name"><a href="{{.ChannelURL}}" target="_blank" rel="noopener">{{.Entry.Title}}</a></div>
      <div class="card-meta">
        <span>📊 {{.Subscribers}}</span>
        {{if .CreatedJP}}<span>📅 {{.CreatedJP}} 開設</span>{{end}}
      </div>
    </div>
  </div>
  {{if .Entry.Blurb}}<div class="card-intro">{{.Entry.Blurb}}</div>{{end}}
  {{if .Entry.LatestVideos}}
  <div class="card-videos">
    <div class="card-videos-title">最近の動画</div>
    {{range .Entry.LatestVideos}}<a href="{{videoURL .VideoID}}" target="_blank" rel="noopener" class="video-link">▶ {{.Title}}</a>
    {{end}}
  </div>
  {{end}}
  <a href="{{.ChannelURL}}" target="_blank" rel="noopener" class="card-cta">チャンネルを見る →</a>
</article>
{{if .AdAfter}}<div class="ad-space">📢 広告スペース</div>{{end}}
{{end}}`

const indexTmpl = headTmpl + `
<body>
  <header class="header">
    <h1>{{.Site.Name}}</h1>
    <p>{{.Site.Tagline}}</p>
  </header>
  <main class="container">
    <div class="section-title">✨ 新人VTuber紹介（{{.Total}}人）</div>
    {{if .Cards}}{{range .Cards}}{{template "card" .}}{{end}}{{else}}
    <div class="empty-state">
      <div class="emoji">🔍</div>
      <p>まだ紹介済みのVTuberがいません。</p>
      <p>まもなく新人VTuberの紹介が始まります！</p>
    </div>
    {{end}}
    {{if gt .TotalPages 1}}
    <div class="pagination">
      {{range .Pages}}{{if .Current}}<span class="current">{{.Num}}</span>{{else}}<a href="/{{.File}}">{{.Num}}</a>{{end}}{{end}}
    </div>
    {{end}}
  </main>
  <footer class="footer">
    <p>{{.Site.Name}} | 最終更新: {{.Updated}} JST</p>
    <p>当サイトはYouTubeの公開データをもとに新人VTuberを紹介しています。</p>
  </footer>
</body>
</html>`

const channelTmpl = headTmpl + `
<body>
  <header class="header">
    <h1>{{.Site.Name}}</h1>
    <p>{{.Site.Tagline}}</p>
  </header>
  <main class="container">
    <a href="/" class="back-link">← トップに戻る</a>
    {{template "card" .Card}}
    {{if .Videos}}
    <div class="section-title">🎬 最近の動画</div>
    {{range .Videos}}
    <div class="video-embed">
      <iframe src="https://www.youtube.com/embed/{{.VideoID}}" allowfullscreen loading="lazy"></iframe>
      <p>{{.Title}}</p>
    </div>
    {{end}}
    {{end}}
  </main>
  <footer class="footer">
    <p>{{.Site.Name}}</p>
  </footer>
</body>
</html>`

var (
	indexPage   = template.Must(template.New("index").Funcs(tmplFuncs).Parse(cardTmpl + indexTmpl))
	channelPage = template.Must(template.New("channel").Funcs(tmplFuncs).Parse(cardTmpl + channelTmpl))
)

func renderIndex(s Site, all, page []card, num, totalPages int) ([]byte, error) {
	pageURL := s.URL
	if num > 1 {
		pageURL = fmt.Sprintf("%s/page%d.html", s.URL, num)
	}
	links := make([]pageLink, 0, totalPages)
	for i := 1; i <= totalPages; i++ {
		file := "index.html"
		if i > 1 {
			file = fmt.Sprintf("page%d.html", i)
		}
		links = append(links, pageLink{Num: i, File: file, Current: i == num})
	}
	data := indexData{
		Site:       s,
		Title:      s.Name + " - " + s.Tagline,
		Desc:       "新人VTuberを毎日発掘・紹介！あなたの新しい推しが見つかるかも。",
		PageURL:    pageURL,
		Total:      len(all),
		Cards:      page,
		Page:       num,
		TotalPages: totalPages,
		Pages:      links,
		Updated:    jstNow().Format("2006/01/02 15:04"),
	}
	var buf bytes.Buffer
	if err := indexPage.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("site: render index page %d: %w", num, err)
	}
	return buf.Bytes(), nil
}

func renderChannelPage(s Site, c card) ([]byte, error) {
	desc := c.Entry.Blurb
	if desc == "" {
		desc = c.Entry.Title + "さんの紹介ページ"
	}
	videos := make([]pageVideo, 0, 3)
	for i, v := range c.Entry.LatestVideos {
		if i >= 3 {
			break
		}
		videos = append(videos, pageVideo{VideoID: v.VideoID, Title: v.Title})
	}
	data := channelData{
		Site:    s,
		Title:   "【新人VTuber】" + c.Entry.Title + "さんがデビュー！ | " + s.Name,
		Desc:    scout.TruncateRunes(desc, 120, ""),
		PageURL: s.URL + "/vtuber/" + c.Slug + ".html",
		Card:    c,
		Videos:  videos,
	}
	var buf bytes.Buffer
	if err := channelPage.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("site: render channel %s: %w", c.Entry.ChannelID, err)
	}
	return buf.Bytes(), nil
}

const styleCSS = `:root {
  --primary: #6C5CE7;
  --primary-light: #A29BFE;
  --accent: #FD79A8;
  --bg: #F8F9FA;
  --card-bg: #FFFFFF;
  --text: #2D3436;
  --text-light: #636E72;
  --border: #E9ECEF;
  --radius: 12px;
}
* { margin: 0; padding: 0; box-sizing: border-box; }
body {
  font-family: "Hiragino Kaku Gothic ProN", "Noto Sans JP", "Segoe UI", sans-serif;
  background: var(--bg);
  color: var(--text);
  line-height: 1.7;
}
.header {
  background: linear-gradient(135deg, var(--primary), #4834D4);
  color: white;
  padding: 2rem 1rem;
  text-align: center;
}
.header h1 { font-size: 1.8rem; }
.header p { font-size: 0.95rem; opacity: 0.9; margin-top: 0.5rem; }
.container { max-width: 800px; margin: 0 auto; padding: 1.5rem 1rem; }
.section-title {
  font-size: 1.2rem;
  color: var(--primary);
  margin: 2rem 0 1rem;
  padding-bottom: 0.5rem;
  border-bottom: 2px solid var(--primary-light);
}
.vtuber-card {
  background: var(--card-bg);
  border-radius: var(--radius);
  box-shadow: 0 2px 12px rgba(0,0,0,0.08);
  padding: 1.2rem;
  margin-bottom: 1rem;
  border: 1px solid var(--border);
}
.card-header { display: flex; gap: 1rem; align-items: flex-start; }
.card-thumbnail {
  width: 64px;
  height: 64px;
  border-radius: 50%;
  object-fit: cover;
  border: 3px solid var(--primary-light);
  flex-shrink: 0;
}
.card-info { flex: 1; min-width: 0; }
.card-name { font-size: 1.1rem; font-weight: bold; }
.card-name a { color: inherit; text-decoration: none; }
.card-name a:hover { color: var(--primary); }
.card-meta {
  display: flex;
  flex-wrap: wrap;
  gap: 0.5rem;
  font-size: 0.8rem;
  color: var(--text-light);
}
.card-intro {
  font-size: 0.9rem;
  margin-top: 0.75rem;
  padding-top: 0.75rem;
  border-top: 1px solid var(--border);
}
.card-videos { margin-top: 0.75rem; padding-top: 0.75rem; border-top: 1px solid var(--border); }
.card-videos-title { font-size: 0.8rem; color: var(--text-light); margin-bottom: 0.5rem; }
.video-link {
  display: block;
  font-size: 0.85rem;
  color: var(--primary);
  text-decoration: none;
  padding: 0.3rem 0;
  white-space: nowrap;
  overflow: hidden;
  text-overflow: ellipsis;
}
.video-link:hover { text-decoration: underline; }
.card-cta {
  display: inline-block;
  margin-top: 0.75rem;
  padding: 0.5rem 1.2rem;
  background: linear-gradient(135deg, var(--accent), #E84393);
  color: white;
  border-radius: 2rem;
  text-decoration: none;
  font-size: 0.85rem;
  font-weight: bold;
}
.ad-space {
  background: #FFF3E0;
  border: 1px dashed #FFB74D;
  border-radius: var(--radius);
  padding: 1.5rem;
  margin: 1.5rem 0;
  text-align: center;
  color: #F57C00;
  font-size: 0.8rem;
}
.pagination { display: flex; justify-content: center; gap: 0.5rem; margin: 2rem 0; }
.pagination a, .pagination span {
  display: inline-block;
  padding: 0.5rem 1rem;
  border-radius: var(--radius);
  text-decoration: none;
  font-size: 0.9rem;
  border: 1px solid var(--border);
}
.pagination a { color: var(--primary); background: white; }
.pagination .current { background: var(--primary); color: white; }
.footer {
  background: #2D3436;
  color: white;
  text-align: center;
  padding: 1.5rem 1rem;
  margin-top: 3rem;
  font-size: 0.8rem;
}
.empty-state { text-align: center; padding: 3rem 1rem; color: var(--text-light); }
.empty-state .emoji { font-size: 3rem; margin-bottom: 1rem; }
.back-link { display: inline-block; margin-bottom: 1rem; color: var(--primary); text-decoration: none; }
.video-embed { margin-bottom: 1rem; }
.video-embed iframe { width: 100%; aspect-ratio: 16 / 9; border: 0; border-radius: 8px; }
.video-embed p { font-size: 0.85rem; color: var(--text-light); margin-top: 0.5rem; }
@media (max-width: 600px) {
  .header h1 { font-size: 1.4rem; }
  .card-thumbnail { width: 48px; height: 48px; }
}
`
