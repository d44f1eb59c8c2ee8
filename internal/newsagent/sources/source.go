// Package sources defines the article sources a report run gathers from:
// the keyword-search API and the configured syndication feeds.
package sources

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/sync/errgroup"
)

const userAgent = "newsagent/1.0 (+https://github.com/RobinCoderZhao/newsagent)"

// maxBodySize caps how much of a source response is read.
const maxBodySize = 10 << 20

// Article represents a single news article. Its URL is its identity.
type Article struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	SourceName  string    `json:"source_name"`
	PublishedAt time.Time `json:"published_at"`
	Summary     string    `json:"summary,omitempty"`
}

// Source is the interface that all article sources must implement.
type Source interface {
	// Name returns a short identifier used in logs.
	Name() string

	// Fetch retrieves the articles published at or after since.
	// A source either returns all articles it found or an error, never both.
	Fetch(ctx context.Context, since time.Time) ([]Article, error)
}

// Outcome is the result of fetching one source.
type Outcome struct {
	Source   string
	Articles []Article
	Err      error
}

// Gather fetches all sources concurrently. A failing or panicking source produces an
// Outcome carrying only its error and never affects its siblings. Outcomes are
// returned in the order of srcs and failures are logged.
func Gather(ctx context.Context, since time.Time, logger *slog.Logger, srcs ...Source) []Outcome {
	if logger == nil {
		logger = slog.Default()
	}

	outcomes := make([]Outcome, len(srcs))
	var g errgroup.Group
	for i, src := range srcs {
		i, src := i, src
		g.Go(func() error {
			outcomes[i] = fetchOne(ctx, src, since)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range outcomes {
		if o.Err != nil {
			logger.Warn("source fetch failed", "source", o.Source, "error", o.Err)
			continue
		}
		logger.Debug("source fetched", "source", o.Source, "count", len(o.Articles))
	}
	return outcomes
}

func fetchOne(ctx context.Context, src Source, since time.Time) (out Outcome) {
	out.Source = src.Name()
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Source: out.Source, Err: fmt.Errorf("source panicked: %v", r)}
		}
	}()

	articles, err := src.Fetch(ctx, since)
	if err != nil {
		return Outcome{Source: out.Source, Err: err}
	}
	out.Articles = articles
	return out
}

// Articles concatenates the articles of all successful outcomes, in order.
func Articles(outcomes []Outcome) []Article {
	var n int
	for _, o := range outcomes {
		n += len(o.Articles)
	}
	all := make([]Article, 0, n)
	for _, o := range outcomes {
		if o.Err != nil {
			continue
		}
		all = append(all, o.Articles...)
	}
	return all
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
}

// rfc822Zones are the named zones RFC 822 allows besides GMT. time.Parse
// would read them as UTC.
var rfc822Zones = map[string]string{
	"UT":  "+0000",
	"EST": "-0500", "EDT": "-0400",
	"CST": "-0600", "CDT": "-0500",
	"MST": "-0700", "MDT": "-0600",
	"PST": "-0800", "PDT": "-0700",
}

// numericZone replaces a trailing RFC 822 zone name with its offset.
func numericZone(s string) string {
	i := strings.LastIndexByte(s, ' ')
	if i < 0 {
		return s
	}
	if offset, ok := rfc822Zones[strings.ToUpper(s[i+1:])]; ok {
		return s[:i+1] + offset
	}
	return s
}

// ParseTimestamp parses a publish timestamp in any of the common feed and API formats.
func ParseTimestamp(s string) (time.Time, bool) {
	s = numericZone(strings.TrimSpace(s))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	// Timestamps without a zone are taken as UTC.
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Matcher tests text against a keyword set, case-insensitively.
type Matcher struct {
	keywords []string
}

// NewMatcher lowercases keywords and drops blank ones.
func NewMatcher(keywords []string) Matcher {
	m := Matcher{keywords: make([]string, 0, len(keywords))}
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			m.keywords = append(m.keywords, k)
		}
	}
	return m
}

// Match reports whether any keyword is a substring of any of the texts.
func (m Matcher) Match(texts ...string) bool {
	lowered := make([]string, len(texts))
	for i, text := range texts {
		lowered[i] = strings.ToLower(text)
	}
	for _, k := range m.keywords {
		for _, text := range lowered {
			if strings.Contains(text, k) {
				return true
			}
		}
	}
	return false
}
