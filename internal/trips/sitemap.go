package trips

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/gdg-garage/groupy-loopy-api/internal/models"
	"github.com/gdg-garage/groupy-loopy-api/internal/store"
)

var staticPages = []struct {
	path     string
	priority string
	freq     string
}{
	{"/", "1.0", "daily"},
	{"/Home", "1.0", "daily"},
	{"/AboutUs", "0.5", "monthly"},
	{"/Nifgashim", "0.8", "weekly"},
	{"/Memorials", "0.6", "weekly"},
	{"/PrivacyPolicy", "0.3", "yearly"},
	{"/TermsOfService", "0.3", "yearly"},
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

func BuildSitemap(siteURL string, trips []models.Trip) ([]byte, error) {
	base := strings.TrimRight(siteURL, "/")
	set := urlSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, p := range staticPages {
		set.URLs = append(set.URLs, sitemapURL{Loc: base + p.path, ChangeFreq: p.freq, Priority: p.priority})
	}
	for _, t := range trips {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        fmt.Sprintf("%s/TripDetails?id=%d", base, t.ID),
			LastMod:    t.UpdatedAt.Format("2006-01-02"),
			ChangeFreq: "weekly",
			Priority:   "0.7",
		})
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

func (s *Service) Sitemap(ctx context.Context, siteURL string) ([]byte, error) {
	trips, err := s.repo.FilterTrips(ctx, store.TripFilter{PublishedOnly: true})
	if err != nil {
		return nil, err
	}
	return BuildSitemap(siteURL, trips)
}
