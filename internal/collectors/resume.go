package collectors

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// maxKeywords is the number of list items kept as keywords.
const maxKeywords = 20

// ResumeFeatures is the artifact extracted from an HTML résumé.
type ResumeFeatures struct {
	Keywords       []string `json:"keywords"`
	Paragraphs     int      `json:"paragraphs"`
	Links          []string `json:"links"`
	WordCount      int      `json:"word_count"`
	KeywordDensity float64  `json:"keyword_density"`
}

// nonVisible elements hold code, not text. Their contents are skipped
// everywhere; noscript fallback text is kept.
var nonVisible = map[string]bool{
	"script":   true,
	"style":    true,
	"template": true,
}

// ResumeCollector parses an HTML résumé structurally. It never fetches
// remote resources or runs scripts.
type ResumeCollector struct{}

// NewResumeCollector creates a ResumeCollector.
func NewResumeCollector() *ResumeCollector {
	return &ResumeCollector{}
}

// Source implements Collector.
func (c *ResumeCollector) Source() Source {
	return SourceResume
}

// Collect implements Collector. It does not fail on malformed or empty input.
func (c *ResumeCollector) Collect(_ context.Context, resumeHTML string) (any, error) {
	return ExtractResumeFeatures(resumeHTML), nil
}

// ExtractResumeFeatures computes keywords, paragraph count, links, word count
// and keyword density for an HTML document.
func ExtractResumeFeatures(resumeHTML string) ResumeFeatures {
	features := ResumeFeatures{
		Keywords: []string{},
		Links:    []string{},
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resumeHTML))
	if err != nil {
		return features
	}

	doc.Find("li").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		features.Keywords = append(features.Keywords, strippedText(s.Nodes))
		return len(features.Keywords) < maxKeywords
	})

	features.Paragraphs = doc.Find("p").Length()

	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && href != "" {
			features.Links = append(features.Links, href)
		}
	})

	for _, n := range doc.Nodes {
		features.WordCount += countWords(n)
	}

	features.KeywordDensity = round2(float64(features.WordCount) / float64(max(features.Paragraphs, 1)))
	return features
}

// countWords counts whitespace-separated tokens in the visible text under n.
// Element boundaries separate words.
func countWords(n *html.Node) int {
	if n.Type == html.ElementNode && nonVisible[n.Data] {
		return 0
	}

	count := 0
	if n.Type == html.TextNode {
		count = len(strings.Fields(n.Data))
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		count += countWords(child)
	}
	return count
}

// strippedText trims every text node under nodes and joins the non-empty
// pieces without a separator, so "<li>Go <b>lang</b></li>" yields "Golang".
func strippedText(nodes []*html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && nonVisible[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(n.Data))
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return b.String()
}
