package sources

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/RobinCoderZhao/newsagent/pkg/htmltext"
)

const (
	untitledArticle = "No Title"
	unknownSource   = "Unknown Source"
)

// FeedOptions configures how feed items are filtered and mapped.
type FeedOptions struct {
	Keywords       []string
	Timeout        time.Duration
	IncludeSummary bool
	SummaryLength  int
}

// FeedSource fetches articles from a single RSS, RDF or Atom feed.
type FeedSource struct {
	url     string
	opts    FeedOptions
	matcher Matcher
	client  *http.Client
}

// NewFeedSource creates a source for one feed URL.
func NewFeedSource(feedURL string, opts FeedOptions) *FeedSource {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.SummaryLength <= 0 {
		opts.SummaryLength = DefaultSummaryLength
	}
	return &FeedSource{
		url:     feedURL,
		opts:    opts,
		matcher: NewMatcher(opts.Keywords),
		client:  &http.Client{Timeout: opts.Timeout},
	}
}

func (f *FeedSource) Name() string { return f.url }

// Fetch downloads the feed and keeps the items published since the window start
// that mention at least one keyword.
func (f *FeedSource) Fetch(ctx context.Context, since time.Time) ([]Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}

	feed, err := parseFeed(body)
	if err != nil {
		return nil, err
	}
	return f.filter(feed, since), nil
}

func (f *FeedSource) filter(feed parsedFeed, since time.Time) []Article {
	sourceName := feed.Title
	if sourceName == "" {
		sourceName = unknownSource
	}

	articles := make([]Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		c := item.normalize()
		if c.Link == "" {
			continue
		}
		published, ok := ParseTimestamp(c.Published)
		if !ok || published.Before(since) {
			continue
		}
		if !f.matcher.Match(c.Title, c.Description, c.Content) {
			continue
		}

		title := c.Title
		if title == "" {
			title = untitledArticle
		}
		a := Article{
			Title:       title,
			URL:         c.Link,
			SourceName:  sourceName,
			PublishedAt: published,
		}
		if f.opts.IncludeSummary {
			text := c.Description
			if text == "" {
				text = c.Content
			}
			a.Summary = htmltext.Summary(text, f.opts.SummaryLength)
		}
		articles = append(articles, a)
	}
	return articles
}

// FeedSet fans out over a list of feeds. One feed failing never affects the others.
type FeedSet struct {
	feeds  []Source
	logger *slog.Logger
}

// NewFeedSet creates a FeedSource for each URL, keeping their order.
func NewFeedSet(urls []string, opts FeedOptions) *FeedSet {
	feeds := make([]Source, 0, len(urls))
	for _, u := range urls {
		feeds = append(feeds, NewFeedSource(u, opts))
	}
	return &FeedSet{feeds: feeds, logger: slog.Default()}
}

func (s *FeedSet) Name() string { return "rss" }

// Fetch gathers every feed and concatenates the successful results in feed order.
// It never returns an error.
func (s *FeedSet) Fetch(ctx context.Context, since time.Time) ([]Article, error) {
	return Articles(Gather(ctx, since, s.logger, s.feeds...)), nil
}
