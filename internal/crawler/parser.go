package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"merchingest/internal/model"
	"merchingest/internal/source"
)

func parseDocument(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// ParseLinks collects item addresses from a listing page in document order,
// absolute, de-duplicated and capped at d.MaxLinks.
func ParseLinks(html string, d source.Descriptor) ([]string, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return nil, err
	}

	var links []string
	seen := make(map[string]bool)
	doc.Find(d.Locators.Link).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if d.MaxLinks > 0 && len(links) >= d.MaxLinks {
			return false
		}
		href, ok := s.Attr("href")
		if !ok {
			href, _ = s.Find("a[href]").First().Attr("href")
		}
		link := NormalizeURL(d.BaseURL, href)
		if link == "" || seen[link] {
			return true
		}
		if d.LinkContains != "" && !strings.Contains(link, d.LinkContains) {
			return true
		}
		seen[link] = true
		links = append(links, link)
		return true
	})
	return links, nil
}

// ParseItem reads an item page with the source locators.
func ParseItem(html string, loc source.Locators) (model.RawProduct, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return model.RawProduct{}, err
	}
	return parseSelection(doc.Selection, loc), nil
}

// parseSelection reads product fields below s, which is either a whole item
// page or a single listing card.
func parseSelection(s *goquery.Selection, loc source.Locators) model.RawProduct {
	return model.RawProduct{
		Name:        firstText(s, loc.Title),
		Brand:       firstText(s, loc.Brand),
		Price:       firstText(s, loc.Price),
		ImageURL:    imageSource(s, loc.Image),
		SizeText:    allText(s, loc.Size),
		Description: firstText(s, loc.Description),
	}
}

func firstText(s *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(s.Find(selector).First().Text())
}

func allText(s *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	var parts []string
	s.Find(selector).Each(func(_ int, el *goquery.Selection) {
		if t := strings.TrimSpace(el.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, " ")
}

// imageSource prefers src, then the lazy-loading attributes. Inline data URIs
// are placeholders and are ignored.
func imageSource(s *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	img := s.Find(selector).First()
	if !img.Is("img") {
		if inner := img.Find("img").First(); inner.Length() > 0 {
			img = inner
		}
	}
	for _, attr := range []string{"src", "data-src", "srcset"} {
		v, ok := img.Attr(attr)
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if attr == "srcset" {
			v = firstSrcsetCandidate(v)
		}
		if v != "" && !strings.HasPrefix(v, "data:") {
			return v
		}
	}
	return ""
}

// firstSrcsetCandidate returns the URL of the first "url 2x" entry.
func firstSrcsetCandidate(srcset string) string {
	first, _, _ := strings.Cut(srcset, ",")
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
