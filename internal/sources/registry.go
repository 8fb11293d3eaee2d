// Package sources loads the feed list and the per-domain timestamp metadata.
//
// The feed list is grouped by category and flattened, in file order, into the
// sequence the scheduler rotates over. Every source must resolve to a
// metadata entry through its domain key or loading fails.
package sources

import (
	_ "embed"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
	"gopkg.in/yaml.v3"
)

//go:embed default_news.yaml
var defaultNews []byte

//go:embed default_meta.yaml
var defaultMeta []byte

var (
	// ErrUnknownDomain is returned when a source has no metadata entry.
	ErrUnknownDomain = errors.New("no metadata for source domain")
	// ErrNoSources is returned when the (filtered) source list is empty.
	ErrNoSources = errors.New("no sources configured")
	// ErrUnknownTopic is returned when the topic filter names no category.
	ErrUnknownTopic = errors.New("unknown topic")
)

// Source identifies one pollable feed, its URL.
type Source string

func (s Source) String() string { return string(s) }

// Meta says where an item's timestamp lives and how to parse it.
type Meta struct {
	TimeField  string `yaml:"time"`
	TimeFormat string `yaml:"date"`
}

var namedLayouts = map[string]string{
	"ANSIC":    time.ANSIC,
	"UnixDate": time.UnixDate,
	"RubyDate": time.RubyDate,
	"RFC822":   time.RFC822,
	"RFC822Z":  time.RFC822Z,
	"RFC850":   time.RFC850,
	"RFC1123":  time.RFC1123,
	"RFC1123Z": time.RFC1123Z,
	"RFC3339":  time.RFC3339,
}

// Layout resolves TimeFormat to a Go reference layout.
func (m Meta) Layout() string {
	if l, ok := namedLayouts[m.TimeFormat]; ok {
		return l
	}
	return m.TimeFormat
}

// Parse parses value with the resolved layout.
func (m Meta) Parse(value string) (time.Time, error) {
	return time.Parse(m.Layout(), strings.TrimSpace(value))
}

// Category is a named group of sources.
type Category struct {
	Name    string
	Sources []Source
}

// Registry is read-only after Load.
type Registry struct {
	categories []Category
	sources    []Source
	meta       map[string]Meta
	keys       map[Source]string
}

// Load reads the news and meta files. Empty paths select the embedded
// tables. A non-empty topic keeps only that category.
func Load(newsPath, metaPath, topic string) (*Registry, error) {
	news := defaultNews
	if newsPath != "" {
		data, err := os.ReadFile(newsPath)
		if err != nil {
			return nil, fmt.Errorf("reading news file: %w", err)
		}
		news = data
	}

	meta := defaultMeta
	if metaPath != "" {
		data, err := os.ReadFile(metaPath)
		if err != nil {
			return nil, fmt.Errorf("reading meta file: %w", err)
		}
		meta = data
	}

	return Parse(news, meta, topic)
}

// Parse builds a Registry from raw tables. JSON input is accepted since it
// is valid YAML.
func Parse(news, meta []byte, topic string) (*Registry, error) {
	categories, err := parseCategories(news)
	if err != nil {
		return nil, err
	}

	if topic != "" {
		var kept []Category
		for _, c := range categories {
			if strings.EqualFold(c.Name, topic) {
				kept = append(kept, c)
			}
		}
		if len(kept) == 0 {
			return nil, fmt.Errorf("%w %q", ErrUnknownTopic, topic)
		}
		categories = kept
	}

	rawMeta := make(map[string]Meta)
	if err := yaml.Unmarshal(meta, &rawMeta); err != nil {
		return nil, fmt.Errorf("parsing meta file: %w", err)
	}
	metaByKey := make(map[string]Meta, len(rawMeta))
	for domain, m := range rawMeta {
		if m.TimeField == "" || m.TimeFormat == "" {
			return nil, fmt.Errorf("meta %q: time and date are required", domain)
		}
		metaByKey[strings.ToLower(domain)] = m
	}

	r := &Registry{
		categories: categories,
		meta:       metaByKey,
		keys:       make(map[Source]string),
	}

	seen := make(map[Source]bool)
	for _, c := range categories {
		for _, src := range c.Sources {
			if seen[src] {
				continue
			}
			seen[src] = true

			key, err := DomainKey(src)
			if err != nil {
				return nil, err
			}
			if _, ok := metaByKey[key]; !ok {
				return nil, fmt.Errorf("%w: %s (domain %q)", ErrUnknownDomain, src, key)
			}
			r.keys[src] = key
			r.sources = append(r.sources, src)
		}
	}

	if len(r.sources) == 0 {
		return nil, ErrNoSources
	}
	return r, nil
}

// parseCategories decodes a mapping of category -> URL list while keeping
// the file order, which a plain map decode would lose.
func parseCategories(data []byte) ([]Category, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing news file: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, ErrNoSources
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parsing news file: expected a mapping of category to sources at line %d", root.Line)
	}

	categories := make([]Category, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		var urls []string
		if err := root.Content[i+1].Decode(&urls); err != nil {
			return nil, fmt.Errorf("parsing news file: category %q: %w", name, err)
		}
		c := Category{Name: name}
		for _, u := range urls {
			u = strings.TrimSpace(u)
			if u == "" {
				continue
			}
			c.Sources = append(c.Sources, Source(u))
		}
		categories = append(categories, c)
	}
	return categories, nil
}

// DomainKey normalizes a source URL to the key its metadata is stored
// under: the registrable domain of the host (rss.cnn.com -> cnn.com). Hosts
// without a public suffix (IPs, localhost) are used as-is.
func DomainKey(src Source) (string, error) {
	u, err := url.Parse(string(src))
	if err != nil {
		return "", fmt.Errorf("source %q: invalid url: %w", src, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("source %q: url scheme must be http or https, got %q", src, u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("source %q: missing host", src)
	}
	if net.ParseIP(host) != nil {
		return host, nil
	}
	key, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host, nil
	}
	return key, nil
}

// Sources returns the flattened source list in poll order.
func (r *Registry) Sources() []Source {
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Categories returns the categories kept after topic filtering.
func (r *Registry) Categories() []Category {
	return r.categories
}

// Key returns the domain key of a registered source.
func (r *Registry) Key(src Source) string {
	return r.keys[src]
}

// Meta returns the metadata for src.
func (r *Registry) Meta(src Source) (Meta, error) {
	key, ok := r.keys[src]
	if !ok {
		var err error
		if key, err = DomainKey(src); err != nil {
			return Meta{}, err
		}
	}
	m, ok := r.meta[key]
	if !ok {
		return Meta{}, fmt.Errorf("%w: %s (domain %q)", ErrUnknownDomain, src, key)
	}
	return m, nil
}
