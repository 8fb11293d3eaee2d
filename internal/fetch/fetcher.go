// Package fetch retrieves a feed and flattens each entry into an Item, a
// plain field -> value record. It does not judge freshness; that is left to
// the caller.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"github.com/abelbrown/headlines/internal/sources"
)

// Field names every Item may carry. Timestamp fields hold the raw feed text
// so that per-source metadata decides how to parse them.
const (
	FieldTitle       = "title"
	FieldLink        = "link"
	FieldPublished   = "published"
	FieldUpdated     = "updated"
	FieldDescription = "description"
	FieldGUID        = "guid"
	FieldAuthor      = "author"
)

const userAgent = "headlines/1.0 (+https://github.com/abelbrown/headlines)"

// Item is one raw feed entry.
type Item map[string]string

// Title returns the item's headline.
func (i Item) Title() string { return i[FieldTitle] }

// Link returns the item's story URL.
func (i Item) Link() string { return i[FieldLink] }

// Error reports a failed fetch of one source.
type Error struct {
	Source sources.Source
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrStatus is wrapped when the server answers with a non-200 status.
var ErrStatus = errors.New("unexpected HTTP status")

// Fetcher retrieves items from feed sources. Safe for concurrent use.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewFetcher creates a Fetcher whose requests time out after timeout and
// start at most perSecond times per second across all goroutines.
// perSecond <= 0 disables the limit.
func NewFetcher(timeout time.Duration, perSecond float64) *Fetcher {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Fetch retrieves and parses src. Errors are always *Error.
func (f *Fetcher) Fetch(ctx context.Context, src sources.Source) ([]Item, error) {
	items, err := f.fetch(ctx, src)
	if err != nil {
		return nil, &Error{Source: src, Err: err}
	}
	return items, nil
}

func (f *Fetcher) fetch(ctx context.Context, src sources.Source) ([]Item, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, string(src), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}

	// gofeed parsers keep per-parse state, so each fetch gets its own.
	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, fi := range feed.Items {
		items = append(items, convertFeedItem(fi))
	}
	return items, nil
}

// convertFeedItem flattens a gofeed.Item. Empty fields are left out so a
// missing timestamp is reported as missing rather than unparseable.
func convertFeedItem(fi *gofeed.Item) Item {
	item := make(Item, 7)
	set := func(k, v string) {
		if v = strings.TrimSpace(v); v != "" {
			item[k] = v
		}
	}

	set(FieldTitle, CleanTitle(fi.Title))
	set(FieldLink, fi.Link)
	set(FieldPublished, fi.Published)
	set(FieldUpdated, fi.Updated)
	set(FieldDescription, fi.Description)
	set(FieldGUID, fi.GUID)
	if fi.Author != nil {
		set(FieldAuthor, fi.Author.Name)
	}
	return item
}

// CleanTitle strips markup and entities from a headline and collapses
// whitespace onto a single line.
func CleanTitle(s string) string {
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}
