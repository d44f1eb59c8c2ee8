// NewsAgent aggregates news about configured keywords from a search API and
// RSS/Atom feeds and delivers the report to a caller's webhook.
//
// Usage:
//
//	newsagent serve                  # HTTP API and scheduled runs
//	newsagent run --period 24h --callback https://...
//	newsagent preview --period 7d    # print a report without delivering it
//	newsagent trigger                # run every configured schedule once
//	newsagent resolve 24h            # print the window start
//	newsagent version
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/RobinCoderZhao/newsagent/internal/api"
	"github.com/RobinCoderZhao/newsagent/internal/newsagent/config"
	"github.com/RobinCoderZhao/newsagent/internal/newsagent/pipeline"
	"github.com/RobinCoderZhao/newsagent/internal/newsagent/store"
	"github.com/RobinCoderZhao/newsagent/pkg/period"
)

var version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "newsagent",
		Short:         "Keyword news aggregation agent",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "newsagent.yaml", "path to the YAML config file")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(runCmd(&configPath))
	rootCmd.AddCommand(previewCmd(&configPath))
	rootCmd.AddCommand(triggerCmd(&configPath))
	rootCmd.AddCommand(resolveCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run scheduled reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
}

func runCmd(configPath *string) *cobra.Command {
	var periodSpec, callbackURL string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate one report and deliver it to a callback URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			runner := newRunner(cfg, nil)
			res := runner.Run(cmd.Context(), "", pipeline.Request{Period: periodSpec, CallbackURL: callbackURL})

			fmt.Fprintf(cmd.OutOrStdout(), "run %s: delivered=%q attempts=%d\n", res.RunID, res.Delivery.Delivered, res.Delivery.Attempts)
			if res.Err != nil {
				return fmt.Errorf("generate report: %w", res.Err)
			}
			if res.Delivery.Err != nil {
				return fmt.Errorf("deliver report: %w", res.Delivery.Err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&periodSpec, "period", "p", "24h", "trailing window, e.g. 24h or 7d")
	cmd.Flags().StringVar(&callbackURL, "callback", "", "callback URL receiving the report")
	_ = cmd.MarkFlagRequired("callback")
	return cmd
}

func previewCmd(configPath *string) *cobra.Command {
	var periodSpec string
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Generate a report and print it without delivering it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			rep, err := newRunner(cfg, nil).Build(cmd.Context(), periodSpec)
			if err != nil {
				return fmt.Errorf("generate report: %w", err)
			}

			out := cmd.OutOrStdout()
			if outputJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			fmt.Fprintf(out, "%d articles, generated %s\n\n", len(rep.Articles), rep.GeneratedAt.Format(time.RFC3339))
			for i, a := range rep.Articles {
				published := "unknown date"
				if !a.PublishedAt.IsZero() {
					published = a.PublishedAt.Local().Format("2006-01-02 15:04")
				}
				fmt.Fprintf(out, "%2d. %s\n    %s | %s\n    %s\n", i+1, a.Title, a.SourceName, published, a.URL)
				if a.Summary != "" {
					fmt.Fprintf(out, "    %s\n", a.Summary)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&periodSpec, "period", "p", "24h", "trailing window, e.g. 24h or 7d")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "print the report as JSON")
	return cmd
}

func triggerCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "trigger",
		Short: "Run every configured schedule once and wait for delivery",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return trigger(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
}

// trigger submits one run per schedule and waits for all of them.
func trigger(ctx context.Context, cfg config.Config, out io.Writer) error {
	if len(cfg.Schedule) == 0 {
		return errors.New("no schedules configured")
	}
	runner := newRunner(cfg, nil)
	sched, err := newScheduler(cfg, runner)
	if err != nil {
		return err
	}
	if err := sched.RunOnce(ctx); err != nil {
		return err
	}
	if err := runner.Wait(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d scheduled runs finished\n", sched.Len())
	return nil
}

func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <period>",
		Short: "Print the start of a trailing window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			since, err := period.Resolve(args[0], time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), since.UTC().Format(time.RFC3339))
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "newsagent %s\n", version)
		},
	}
}

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(newLogger(cfg.Log, os.Stderr))
	return cfg, nil
}

func serve(cfg config.Config) error {
	var (
		tracker pipeline.Tracker
		runs    api.RunLookup
	)
	if cfg.Store.Path != "" {
		st, err := store.New(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("open run ledger: %w", err)
		}
		defer st.Close()
		tracker, runs = st, st
	}

	runner := newRunner(cfg, tracker)

	sched, err := newScheduler(cfg, runner)
	if err != nil {
		return err
	}
	sched.Start()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewServer(runner, runs).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting newsagent API", "addr", cfg.Server.Addr, "schedules", sched.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	var serveErr error
	select {
	case <-quit:
	case serveErr = <-errCh:
		slog.Error("server failed", "error", serveErr)
	}
	slog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	sched.Stop(ctx)
	if err := runner.Wait(ctx); err != nil {
		slog.Warn("in-flight runs abandoned", "error", err)
	}
	return serveErr
}
