package yakka

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"excel2web/internal/util"
)

var (
	defaultKeywords = []string{"price", "yakka"}
	skipElements    = map[string]struct{}{"script": {}, "style": {}, "noscript": {}, "template": {}}
)

// Extractor finds the first price token in a search result page. A token is a
// digit run (commas and a decimal fraction allowed) directly followed by one
// of the configured suffixes, e.g. "1,234円" or "7.50円".
type Extractor struct {
	keywords []string
	pattern  *regexp.Regexp
}

// NewExtractor builds an extractor for the given suffixes; empty means "円".
func NewExtractor(suffixes []string) *Extractor {
	cleaned := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		cleaned = []string{"円"}
	}
	// longest first so "円/錠" is preferred over "円"
	sort.SliceStable(cleaned, func(i, j int) bool { return len(cleaned[i]) > len(cleaned[j]) })

	quoted := make([]string, 0, len(cleaned))
	for _, s := range cleaned {
		quoted = append(quoted, regexp.QuoteMeta(s))
	}
	expr := `\d+(?:,\d+)*(?:\.\d+)?(?:` + strings.Join(quoted, "|") + `)`
	return &Extractor{keywords: defaultKeywords, pattern: regexp.MustCompile(expr)}
}

// ParseSuffixes splits a comma separated list; a list without commas is read
// one suffix per character.
func ParseSuffixes(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if strings.Contains(value, ",") {
		return strings.Split(value, ",")
	}
	out := []string{}
	for _, r := range value {
		if r == ' ' {
			continue
		}
		out = append(out, string(r))
	}
	return out
}

// Extract returns ok=false when no token is present anywhere. An error means
// the body could not be parsed at all.
func (e *Extractor) Extract(body string) (string, bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("parse yakka html: %w", err)
	}

	found := ""
	doc.Find("[class], [id]").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if !e.isPriceElement(el) {
			return true
		}
		text := visibleText(el.Nodes)
		if m := e.pattern.FindString(text); m != "" {
			found = m
			return false
		}
		return true
	})
	if found != "" {
		return found, true, nil
	}

	if m := e.pattern.FindString(visibleText(doc.Nodes)); m != "" {
		return m, true, nil
	}
	return "", false, nil
}

func (e *Extractor) isPriceElement(el *goquery.Selection) bool {
	for _, attr := range []string{"class", "id"} {
		value, ok := el.Attr(attr)
		if !ok {
			continue
		}
		value = strings.ToLower(value)
		for _, kw := range e.keywords {
			if strings.Contains(value, kw) {
				return true
			}
		}
	}
	return false
}

// visibleText joins text nodes with a space, skipping script-like elements,
// and collapses whitespace.
func visibleText(nodes []*html.Node) string {
	parts := []string{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, skip := skipElements[n.Data]; skip {
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return util.CollapseSpaces(strings.Join(parts, " "))
}

var defaultExtractor = NewExtractor(nil)

// ExtractPriceText runs the default "円" extractor.
func ExtractPriceText(body string) (string, bool) {
	text, ok, err := defaultExtractor.Extract(body)
	if err != nil {
		return "", false
	}
	return text, ok
}
