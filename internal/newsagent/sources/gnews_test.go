package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSearchSource_Fetch(t *testing.T) {
	since := time.Date(2025, 3, 9, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"q":       q.Get("q"),
			"lang":    q.Get("lang"),
			"country": q.Get("country"),
			"max":     q.Get("max"),
			"apikey":  q.Get("apikey"),
			"from":    q.Get("from"),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"totalArticles": 3,
			"articles": []map[string]any{
				{
					"title":       "AI beats benchmark",
					"description": "<p>A <b>new</b> model</p>",
					"url":         "https://news.example.com/a",
					"publishedAt": "2025-03-10T08:00:00Z",
					"source":      map[string]string{"name": "Example News", "url": "https://news.example.com"},
				},
				{
					"title":       "Odd timestamp",
					"url":         "https://news.example.com/b",
					"publishedAt": "",
					"source":      map[string]string{"name": "Example News"},
				},
				{
					"title":  "No url",
					"source": map[string]string{"name": "Example News"},
				},
			},
		})
	}))
	defer srv.Close()

	src := NewSearchSource(SearchConfig{
		BaseURL:        srv.URL,
		APIKey:         "secret",
		Language:       "en",
		Country:        "us",
		Keywords:       []string{"AI", " machine learning ", ""},
		IncludeSummary: true,
	})
	if src.Name() != "gnews" {
		t.Errorf("unexpected name %q", src.Name())
	}

	articles, err := src.Fetch(context.Background(), since)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	want := map[string]string{
		"q":       "AI OR machine learning",
		"lang":    "en",
		"country": "us",
		"max":     "100",
		"apikey":  "secret",
		"from":    "2025-03-09T11:00:00Z",
	}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("query param %s = %q, want %q", k, gotQuery[k], v)
		}
	}

	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	a := articles[0]
	if a.Title != "AI beats benchmark" || a.SourceName != "Example News" {
		t.Errorf("unexpected article %+v", a)
	}
	if !a.PublishedAt.Equal(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected published time %v", a.PublishedAt)
	}
	if a.Summary != "A new model" {
		t.Errorf("unexpected summary %q", a.Summary)
	}
	if !articles[1].PublishedAt.IsZero() {
		t.Errorf("expected zero time for missing timestamp, got %v", articles[1].PublishedAt)
	}
}

func TestSearchSource_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"errors":["quota exceeded"]}`, http.StatusForbidden)
		}},
		{"malformed json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"articles": [`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			src := NewSearchSource(SearchConfig{BaseURL: srv.URL, APIKey: "k", Keywords: []string{"ai"}})
			articles, err := src.Fetch(context.Background(), time.Now())
			if err == nil {
				t.Fatal("expected error")
			}
			if articles != nil {
				t.Errorf("expected no articles alongside an error, got %d", len(articles))
			}
		})
	}
}

func TestSearchSource_TransportErrorHidesAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	src := NewSearchSource(SearchConfig{BaseURL: base, APIKey: "topsecret", Keywords: []string{"ai"}})
	_, err := src.Fetch(context.Background(), time.Now())
	if err == nil {
		t.Fatal("expected transport error")
	}
	if strings.Contains(err.Error(), "topsecret") {
		t.Errorf("error leaks api key: %v", err)
	}
}
