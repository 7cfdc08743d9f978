package crawl

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/japaniel/talkwords/pkg/config"
)

// ErrNoParagraphs is returned when a page has no extractable body text.
var ErrNoParagraphs = errors.New("no body paragraphs found")

// Talk is the extracted text of one talk page.
type Talk struct {
	Conference config.Conference
	URL        string
	Title      string
	Paragraphs []string
}

var (
	// (?s) allows dot to match newlines
	// (?i) makes it case-insensitive
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)

	blankLines = regexp.MustCompile(`\n\s*\n`)
)

// SanitizeRuby removes ruby text (<rt>...</rt>) and ruby parentheses (<rp>...</rp>)
// so furigana on Japanese pages is not counted as words ("漢字かんじ").
func SanitizeRuby(content []byte) []byte {
	cleaned := reRT.ReplaceAll(content, []byte{})
	cleaned = reRP.ReplaceAll(cleaned, []byte{})
	return cleaned
}

// ExtractTalk pulls the ordered body paragraphs out of a talk page.
func ExtractTalk(body []byte, pageURL string) (Talk, error) {
	talk := Talk{URL: pageURL}
	body = SanitizeRuby(body)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return talk, fmt.Errorf("parse talk html: %w", err)
	}
	talk.Title = collapse(doc.Find("h1").First().Text())

	talk.Paragraphs = paragraphs(doc.Find("div.body-block p"))
	if len(talk.Paragraphs) == 0 {
		talk.Paragraphs = paragraphs(doc.Find("article p"))
	}
	if len(talk.Paragraphs) == 0 {
		u, _ := url.Parse(pageURL)
		article, err := readability.FromReader(bytes.NewReader(body), u)
		if err == nil {
			for _, block := range blankLines.Split(article.TextContent, -1) {
				if p := collapse(block); p != "" {
					talk.Paragraphs = append(talk.Paragraphs, p)
				}
			}
			if talk.Title == "" {
				talk.Title = collapse(article.Title)
			}
		}
	}
	if len(talk.Paragraphs) == 0 {
		return talk, ErrNoParagraphs
	}
	return talk, nil
}

func paragraphs(sel *goquery.Selection) []string {
	var out []string
	sel.Each(func(_ int, p *goquery.Selection) {
		if text := collapse(p.Text()); text != "" {
			out = append(out, text)
		}
	})
	return out
}
