// Package source holds the catalog of merchants the pipeline can ingest from.
package source

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Kind selects which extractor implementation serves a source.
type Kind string

const (
	KindBrowser   Kind = "browser"
	KindStatic    Kind = "static"
	KindSynthetic Kind = "synthetic"
)

// DefaultKey is the source used when none is requested.
const DefaultKey = "demo"

const defaultMaxLinks = 20

//go:embed catalog.yaml
var embeddedCatalog []byte

// Locators are CSS selectors for the fields of a listing or item page.
type Locators struct {
	List        string `yaml:"list"`
	Link        string `yaml:"link"`
	Image       string `yaml:"image"`
	Title       string `yaml:"title"`
	Brand       string `yaml:"brand"`
	Price       string `yaml:"price"`
	Size        string `yaml:"size"`
	Description string `yaml:"description"`
}

type Descriptor struct {
	Key          string        `yaml:"-"`
	Name         string        `yaml:"name"`
	BaseURL      string        `yaml:"base_url"`
	Enabled      bool          `yaml:"enabled"`
	Kind         Kind          `yaml:"kind"`
	Categories   []string      `yaml:"categories"`
	Locators     Locators      `yaml:"locators"`
	RateLimit    time.Duration `yaml:"rate_limit"`
	ListingPath  string        `yaml:"listing_path"`
	LinkContains string        `yaml:"link_contains"`
	MaxLinks     int           `yaml:"max_links"`
	// CDNHost marks image hosts whose query string only carries resizing
	// parameters and can be dropped.
	CDNHost string `yaml:"cdn_host"`
}

// HasCategory reports whether category is one of the declared categories.
func (d Descriptor) HasCategory(category string) bool {
	for _, c := range d.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// ListingURL returns the absolute listing address for a category.
func (d Descriptor) ListingURL(category string) string {
	path := d.ListingPath
	if path == "" {
		path = "/{category}/"
	}
	return d.BaseURL + strings.ReplaceAll(path, "{category}", category)
}

// Registry is an immutable set of descriptors keyed by source key.
type Registry struct {
	sources map[string]Descriptor
}

// Default parses the catalog embedded in the binary.
func Default() (*Registry, error) {
	return Parse(embeddedCatalog)
}

// Load reads a catalog file, or the embedded catalog when path is empty.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Registry, error) {
	var raw map[string]Descriptor
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse sources: %w", err)
	}

	sources := make(map[string]Descriptor, len(raw))
	for key, d := range raw {
		d.Key = key
		d.BaseURL = strings.TrimRight(d.BaseURL, "/")
		if d.Name == "" {
			d.Name = key
		}
		if d.MaxLinks <= 0 {
			d.MaxLinks = defaultMaxLinks
		}
		switch d.Kind {
		case KindBrowser, KindStatic, KindSynthetic:
		default:
			return nil, fmt.Errorf("source %q: unknown kind %q", key, d.Kind)
		}
		if d.BaseURL == "" {
			return nil, fmt.Errorf("source %q: base_url is required", key)
		}
		sources[key] = d
	}
	return &Registry{sources: sources}, nil
}

// Get returns the descriptor for key. Unknown and disabled sources are
// reported as absent.
func (r *Registry) Get(key string) (Descriptor, bool) {
	d, ok := r.sources[key]
	if !ok || !d.Enabled {
		return Descriptor{}, false
	}
	d.Categories = slices.Clone(d.Categories)
	return d, true
}

// All returns every descriptor, enabled ones first, then by key.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.sources))
	for _, d := range r.sources {
		d.Categories = slices.Clone(d.Categories)
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Enabled != out[j].Enabled {
			return out[i].Enabled
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Keys lists every source key in the order of All.
func (r *Registry) Keys() []string {
	all := r.All()
	keys := make([]string, len(all))
	for i, d := range all {
		keys[i] = d.Key
	}
	return keys
}
