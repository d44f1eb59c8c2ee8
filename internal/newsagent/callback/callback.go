// Package callback delivers run outcomes to the caller's webhook.
package callback

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/RobinCoderZhao/newsagent/internal/newsagent/report"
	"github.com/RobinCoderZhao/newsagent/pkg/notify"
)

// Delivery records what a dispatch attempted.
type Delivery struct {
	// Attempts is the number of POSTs made.
	Attempts int
	// Delivered is the status of the payload that was accepted, empty if none was.
	Delivered string
	// Err is the last delivery error, nil once a payload is accepted.
	Err error
}

// OK reports whether any payload reached the callback.
func (d Delivery) OK() bool { return d.Delivered != "" }

// Dispatcher posts callback payloads.
type Dispatcher struct {
	poster notify.Poster
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher that sends through poster.
func NewDispatcher(poster notify.Poster) *Dispatcher {
	return &Dispatcher{poster: poster, logger: slog.Default()}
}

// WithLogger sets the logger used for delivery failures.
func (d *Dispatcher) WithLogger(logger *slog.Logger) *Dispatcher {
	d.logger = logger
	return d
}

// Deliver posts a COMPLETED payload. If that fails it posts a FAILED payload
// describing the failure, once. A second failure is only logged.
func (d *Dispatcher) Deliver(ctx context.Context, url string, r *report.Report) Delivery {
	var del Delivery

	del.Attempts++
	err := d.poster.Post(ctx, url, report.Completed(r))
	if err == nil {
		del.Delivered = report.StatusCompleted
		d.logger.Info("report delivered", "callback", url, "articles", len(r.Articles))
		return del
	}
	d.logger.Warn("report delivery failed, sending failure notice", "callback", url, "error", err)

	del.Attempts++
	msg := fmt.Sprintf("failed to deliver report: %v", err)
	if ferr := d.poster.Post(ctx, url, report.Failed(msg)); ferr != nil {
		del.Err = ferr
		d.logger.Error("failure notice delivery failed", "callback", url, "error", ferr)
		return del
	}
	del.Delivered = report.StatusFailed
	return del
}

// Notify posts a single FAILED payload for a run that produced no report.
func (d *Dispatcher) Notify(ctx context.Context, url, msg string) Delivery {
	del := Delivery{Attempts: 1}
	if err := d.poster.Post(ctx, url, report.Failed(msg)); err != nil {
		del.Err = err
		d.logger.Error("failure notice delivery failed", "callback", url, "error", err)
		return del
	}
	del.Delivered = report.StatusFailed
	return del
}
