// Package pipeline runs report generation: resolve the window, gather sources,
// aggregate, assemble and deliver the outcome to the caller's callback.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RobinCoderZhao/newsagent/internal/newsagent/aggregator"
	"github.com/RobinCoderZhao/newsagent/internal/newsagent/callback"
	"github.com/RobinCoderZhao/newsagent/internal/newsagent/report"
	"github.com/RobinCoderZhao/newsagent/internal/newsagent/sources"
	"github.com/RobinCoderZhao/newsagent/pkg/period"
)

// State is a run's position in its lifecycle.
type State string

const (
	StateStarted     State = "started"
	StateFetching    State = "fetching"
	StateAggregating State = "aggregating"
	StateAssembling  State = "assembling"
	StateDelivering  State = "delivering"
	StateDone        State = "done"
)

// Request is one report generation request.
type Request struct {
	Period      string
	CallbackURL string
}

// Event describes a state transition of a run.
type Event struct {
	RunID    string
	State    State
	Request  Request
	Articles int
	// Err is set on the delivering and done events of a failed run.
	Err string
	// Delivered is the status of the accepted callback payload, set on done.
	Delivered string
	At        time.Time
}

// Tracker observes run transitions. Tracker errors are logged and never
// change the outcome of a run.
type Tracker interface {
	Track(ctx context.Context, ev Event) error
}

// Result is the outcome of a finished run.
type Result struct {
	RunID    string
	Report   *report.Report
	Err      error
	Delivery callback.Delivery
}

// Config holds the collaborators of a Runner.
type Config struct {
	// Sources are gathered concurrently; their merge order is the slice order.
	Sources    []sources.Source
	Assembler  *report.Assembler
	Dispatcher *callback.Dispatcher
	Tracker    Tracker
	Now        func() time.Time
	Logger     *slog.Logger
}

// Runner executes runs. It holds no per-run state and is safe for concurrent use.
type Runner struct {
	sources    []sources.Source
	assembler  *report.Assembler
	dispatcher *callback.Dispatcher
	tracker    Tracker
	now        func() time.Time
	logger     *slog.Logger
	wg         sync.WaitGroup
}

// New creates a Runner.
func New(cfg Config) *Runner {
	r := &Runner{
		sources:    cfg.Sources,
		assembler:  cfg.Assembler,
		dispatcher: cfg.Dispatcher,
		tracker:    cfg.Tracker,
		now:        cfg.Now,
		logger:     cfg.Logger,
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.assembler == nil {
		r.assembler = report.NewAssemblerWithClock(r.now)
	}
	return r
}

// Submit starts a run in the background and returns its id immediately.
// The run is detached from any request context.
func (r *Runner) Submit(req Request) string {
	id := uuid.NewString()
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.Run(context.Background(), id, req)
	}()
	return id
}

// Wait blocks until all submitted runs finish or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for runs: %w", ctx.Err())
	}
}

// Run executes one run synchronously. It always ends with exactly one
// delivery step: the report on success, a failure notice otherwise.
func (r *Runner) Run(ctx context.Context, id string, req Request) Result {
	if id == "" {
		id = uuid.NewString()
	}
	logger := r.logger.With("run_id", id)
	res := Result{RunID: id}

	r.track(ctx, logger, Event{RunID: id, State: StateStarted, Request: req})
	logger.Info("run started", "period", req.Period)

	res.Report, res.Err = r.generate(ctx, id, req, logger)

	ev := Event{RunID: id, State: StateDelivering, Request: req}
	if res.Err != nil {
		ev.Err = res.Err.Error()
	} else {
		ev.Articles = len(res.Report.Articles)
	}
	r.track(ctx, logger, ev)

	if res.Err != nil {
		logger.Error("run failed", "error", res.Err)
	}
	res.Delivery = r.deliver(ctx, logger, req.CallbackURL, res)

	ev.State = StateDone
	ev.Delivered = res.Delivery.Delivered
	r.track(ctx, logger, ev)
	logger.Info("run finished", "delivered", res.Delivery.Delivered, "attempts", res.Delivery.Attempts)
	return res
}

// Build runs the generation stages without tracking or delivery.
func (r *Runner) Build(ctx context.Context, periodSpec string) (*report.Report, error) {
	return r.generate(ctx, "", Request{Period: periodSpec}, r.logger)
}

// generate runs the fetching, aggregating and assembling stages. A panic in
// any stage is returned as an error.
func (r *Runner) generate(ctx context.Context, id string, req Request, logger *slog.Logger) (rep *report.Report, err error) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("run panicked", "panic", p, "stack", string(debug.Stack()))
			rep, err = nil, fmt.Errorf("internal error: %v", p)
		}
	}()

	since, err := period.Resolve(req.Period, r.now())
	if err != nil {
		return nil, err
	}

	r.track(ctx, logger, Event{RunID: id, State: StateFetching, Request: req})
	outcomes := sources.Gather(ctx, since, logger, r.sources...)
	batches := make([][]sources.Article, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err == nil {
			batches = append(batches, o.Articles)
		}
	}

	r.track(ctx, logger, Event{RunID: id, State: StateAggregating, Request: req})
	articles := aggregator.Aggregate(batches...)
	logger.Info("articles aggregated", "count", len(articles), "since", since)

	r.track(ctx, logger, Event{RunID: id, State: StateAssembling, Request: req, Articles: len(articles)})
	return r.assembler.Assemble(articles), nil
}

// deliver sends the run outcome. A panic while delivering is recorded as a
// delivery error.
func (r *Runner) deliver(ctx context.Context, logger *slog.Logger, url string, res Result) (del callback.Delivery) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("delivery panicked", "panic", p, "stack", string(debug.Stack()))
			del.Err = fmt.Errorf("internal error: %v", p)
		}
	}()

	if res.Err != nil {
		return r.dispatcher.Notify(ctx, url, res.Err.Error())
	}
	return r.dispatcher.Deliver(ctx, url, res.Report)
}

func (r *Runner) track(ctx context.Context, logger *slog.Logger, ev Event) {
	if r.tracker == nil || ev.RunID == "" {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			logger.Error("tracker panicked", "state", ev.State, "panic", p)
		}
	}()
	ev.At = r.now()
	if err := r.tracker.Track(ctx, ev); err != nil {
		logger.Warn("track run state failed", "state", ev.State, "error", err)
	}
}
