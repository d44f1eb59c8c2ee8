package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/RobinCoderZhao/newsagent/pkg/htmltext"
)

// MaxSearchResults is the fixed result cap sent to the search API.
const MaxSearchResults = 100

// DefaultSummaryLength is the summary cap, in runes, when none is configured.
const DefaultSummaryLength = 300

// SearchConfig configures the keyword-search source.
type SearchConfig struct {
	BaseURL        string
	APIKey         string
	Language       string
	Country        string
	Keywords       []string
	Timeout        time.Duration
	IncludeSummary bool
	SummaryLength  int
}

// SearchSource fetches articles from the GNews search API.
type SearchSource struct {
	cfg    SearchConfig
	client *http.Client
	logger *slog.Logger
}

// NewSearchSource creates a new search source.
func NewSearchSource(cfg SearchConfig) *SearchSource {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.SummaryLength <= 0 {
		cfg.SummaryLength = DefaultSummaryLength
	}
	return &SearchSource{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: slog.Default(),
	}
}

func (s *SearchSource) Name() string { return "gnews" }

// Query returns the OR-combined keyword query.
func (s *SearchSource) Query() string {
	keywords := make([]string, 0, len(s.cfg.Keywords))
	for _, k := range s.cfg.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	return strings.Join(keywords, " OR ")
}

type searchResponse struct {
	TotalArticles int             `json:"totalArticles"`
	Articles      []searchArticle `json:"articles"`
}

type searchArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	Image       string `json:"image"`
	PublishedAt string `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"source"`
}

// Fetch issues one search request for articles published since the window start.
func (s *SearchSource) Fetch(ctx context.Context, since time.Time) ([]Article, error) {
	endpoint, err := url.Parse(s.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse search url: %w", err)
	}
	params := url.Values{}
	params.Set("q", s.Query())
	params.Set("lang", s.cfg.Language)
	params.Set("country", s.cfg.Country)
	params.Set("max", strconv.Itoa(MaxSearchResults))
	params.Set("apikey", s.cfg.APIKey)
	params.Set("from", since.UTC().Format(time.RFC3339))
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		// The request URL carries the API key, so only the cause is reported.
		if uerr, ok := err.(*url.Error); ok {
			err = uerr.Err
		}
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search api returned status %d: %s", resp.StatusCode, htmltext.Truncate(strings.TrimSpace(string(body)), 200))
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	s.logger.Info("search api returned articles", "total", result.TotalArticles, "received", len(result.Articles))

	articles := make([]Article, 0, len(result.Articles))
	for _, item := range result.Articles {
		if item.URL == "" {
			continue
		}
		publishedAt, _ := ParseTimestamp(item.PublishedAt)
		a := Article{
			Title:       item.Title,
			URL:         item.URL,
			SourceName:  item.Source.Name,
			PublishedAt: publishedAt,
		}
		if s.cfg.IncludeSummary {
			a.Summary = htmltext.Summary(item.Description, s.cfg.SummaryLength)
		}
		articles = append(articles, a)
	}
	return articles, nil
}
