package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/RobinCoderZhao/newsagent/internal/newsagent/callback"
	"github.com/RobinCoderZhao/newsagent/internal/newsagent/config"
	"github.com/RobinCoderZhao/newsagent/internal/newsagent/pipeline"
	"github.com/RobinCoderZhao/newsagent/internal/newsagent/report"
	"github.com/RobinCoderZhao/newsagent/internal/newsagent/scheduler"
	"github.com/RobinCoderZhao/newsagent/internal/newsagent/sources"
	"github.com/RobinCoderZhao/newsagent/pkg/notify"
)

// newSources returns the search source followed by the feed set, which is
// also the merge order of their articles.
func newSources(cfg config.Config) []sources.Source {
	search := sources.NewSearchSource(sources.SearchConfig{
		BaseURL:        cfg.GNews.BaseURL,
		APIKey:         cfg.GNews.APIKey,
		Language:       cfg.GNews.Language,
		Country:        cfg.GNews.Country,
		Keywords:       cfg.Keywords,
		Timeout:        cfg.GNews.Timeout,
		IncludeSummary: cfg.Report.IncludeSummary,
		SummaryLength:  cfg.Report.SummaryLength,
	})
	feeds := sources.NewFeedSet(cfg.RSS.Feeds, sources.FeedOptions{
		Keywords:       cfg.Keywords,
		Timeout:        cfg.RSS.Timeout,
		IncludeSummary: cfg.Report.IncludeSummary,
		SummaryLength:  cfg.Report.SummaryLength,
	})
	return []sources.Source{search, feeds}
}

func newRunner(cfg config.Config, tracker pipeline.Tracker) *pipeline.Runner {
	poster := notify.NewWebhookNotifier(notify.WebhookConfig{
		Timeout:   cfg.Callback.Timeout,
		UserAgent: "newsagent/" + version,
		Headers:   cfg.Callback.Headers,
	})
	return pipeline.New(pipeline.Config{
		Sources:    newSources(cfg),
		Assembler:  report.NewAssembler(),
		Dispatcher: callback.NewDispatcher(poster).WithLogger(slog.Default().With("component", "callback")),
		Tracker:    tracker,
	})
}

// newScheduler registers a report job for every configured schedule.
func newScheduler(cfg config.Config, runner scheduler.Submitter) (*scheduler.Scheduler, error) {
	sched := scheduler.NewScheduler()
	for _, s := range cfg.Schedule {
		if err := sched.Add(scheduler.ReportJob(s.Name, s.Cron, s.Period, s.CallbackURL, runner)); err != nil {
			return nil, err
		}
	}
	return sched, nil
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
