package crawl

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// TalkLink is one talk found on a listing page.
type TalkLink struct {
	Title string
	URL   string
}

// ListingURL is the page enumerating the talks of one conference.
func ListingURL(base string, year int, month, lang string) string {
	return fmt.Sprintf("%s/study/general-conference/%d/%s?lang=%s",
		strings.TrimRight(base, "/"), year, month, url.QueryEscape(lang))
}

// ParseListing returns the talks linked from a conference listing in document order.
// Session overview pages and repeated links are skipped.
func ParseListing(body []byte, pageURL string, year int, month string) ([]TalkLink, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse listing url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing html: %w", err)
	}

	lang := base.Query().Get("lang")
	prefix := fmt.Sprintf("/study/general-conference/%d/%s/", year, month)
	seen := make(map[string]bool)
	var links []TalkLink

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if !strings.HasPrefix(abs.Path, prefix) {
			return
		}
		slug := strings.Trim(strings.TrimPrefix(abs.Path, prefix), "/")
		if slug == "" || strings.Contains(slug, "/") || strings.HasSuffix(slug, "session") {
			return
		}
		if seen[abs.Path] {
			return
		}
		seen[abs.Path] = true

		abs.Fragment = ""
		abs.RawQuery = ""
		if lang != "" {
			abs.RawQuery = url.Values{"lang": {lang}}.Encode()
		}
		links = append(links, TalkLink{Title: collapse(a.Text()), URL: abs.String()})
	})
	return links, nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
