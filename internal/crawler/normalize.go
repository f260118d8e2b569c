package crawler

import (
	"errors"
	"fmt"
	"strings"

	"merchingest/internal/model"
	"merchingest/internal/source"
)

// ErrIncompleteProduct is returned by Normalize when a required field is missing.
var ErrIncompleteProduct = errors.New("incomplete product")

// sizeVocabulary is scanned in this order; the order is kept in the result.
var sizeVocabulary = []string{"XS", "S", "M", "L", "XL", "XXL"}

// NormalizeURL makes a scraped address absolute against base.
func NormalizeURL(base, raw string) string {
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)
	switch {
	case raw == "":
		return ""
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return raw
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case strings.HasPrefix(raw, "/"):
		return strings.TrimRight(base, "/") + raw
	default:
		return strings.TrimRight(base, "/") + "/" + raw
	}
}

// ExtractSizes returns the vocabulary sizes that appear in text. Matching is
// by substring, so "XL" also reports "L". Text without any size yields the
// default size.
func ExtractSizes(text string) []string {
	var found []string
	for _, size := range sizeVocabulary {
		if strings.Contains(text, size) {
			found = append(found, size)
		}
	}
	if len(found) == 0 {
		return []string{model.DefaultSize}
	}
	return found
}

// Normalize validates raw and reshapes it into a ProductRecord for source d.
func Normalize(d source.Descriptor, raw model.RawProduct) (model.ProductRecord, error) {
	name := cleanText(raw.Name)
	image := NormalizeURL(d.BaseURL, raw.ImageURL)
	item := NormalizeURL(d.BaseURL, raw.ItemURL)

	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if image == "" {
		missing = append(missing, "image")
	}
	if item == "" {
		missing = append(missing, "item address")
	}
	if len(missing) > 0 {
		return model.ProductRecord{}, fmt.Errorf("%w: missing %s", ErrIncompleteProduct, strings.Join(missing, ", "))
	}

	brand := cleanText(raw.Brand)
	if brand == "" {
		brand = d.Name
	}
	price := cleanText(raw.Price)
	if price == "" {
		price = model.PriceUnavailable
	}
	sizes := cleanSizes(raw.Sizes)
	if len(sizes) == 0 {
		sizes = ExtractSizes(raw.SizeText)
	}

	return model.ProductRecord{
		Name:        name,
		Brand:       brand,
		Price:       price,
		ImageURL:    image,
		ItemURL:     item,
		Sizes:       sizes,
		Description: strings.TrimSpace(raw.Description),
		Category:    cleanText(raw.Category),
	}, nil
}

// cleanText collapses the whitespace runs left over by page markup.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func cleanSizes(sizes []string) []string {
	var out []string
	seen := make(map[string]bool, len(sizes))
	for _, s := range sizes {
		s = cleanText(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
