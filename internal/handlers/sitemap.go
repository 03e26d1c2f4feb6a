package handlers

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/kleverson/cartas/internal/api"
	"github.com/kleverson/cartas/internal/logger"
)

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

var staticPages = []sitemapURL{
	{Loc: "/", Priority: "1.0", ChangeFreq: "weekly"},
	{Loc: "/cartas", Priority: "0.9", ChangeFreq: "daily"},
	{Loc: "/sobre", Priority: "0.7", ChangeFreq: "monthly"},
}

// Sitemap handles GET /sitemap.xml
func (h *Handlers) Sitemap(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.ListSitemapEntries(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "Sitemap generation failed", "error", err)
		http.Error(w, "Error generating sitemap", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600, s-maxage=3600")
	w.Write([]byte(xml.Header))

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(buildSitemap(h.siteURL, entries, time.Now().UTC())); err != nil {
		logger.ErrorContext(r.Context(), "Sitemap encoding failed", "error", err)
	}
}

func buildSitemap(siteURL string, entries []api.SitemapEntry, now time.Time) urlSet {
	today := now.Format(time.DateOnly)
	set := urlSet{
		XMLNS: sitemapNamespace,
		URLs:  make([]sitemapURL, 0, len(staticPages)+len(entries)),
	}

	for _, page := range staticPages {
		page.Loc = siteURL + page.Loc
		page.LastMod = today
		set.URLs = append(set.URLs, page)
	}

	for _, e := range entries {
		lastmod := today
		switch {
		case e.UpdatedAt != nil:
			lastmod = e.UpdatedAt.UTC().Format(time.DateOnly)
		case e.PublishedAt != nil:
			lastmod = e.PublishedAt.UTC().Format(time.DateOnly)
		}
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        siteURL + "/artigo/" + e.Slug,
			LastMod:    lastmod,
			ChangeFreq: "monthly",
			Priority:   "0.8",
		})
	}

	return set
}
