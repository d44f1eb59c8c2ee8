package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RobinCoderZhao/newsagent/internal/newsagent/pipeline"
)

type fakeSubmitter struct {
	requests []pipeline.Request
}

func (f *fakeSubmitter) Submit(req pipeline.Request) string {
	f.requests = append(f.requests, req)
	return "run-id"
}

func TestAdd_InvalidSchedule(t *testing.T) {
	s := NewScheduler()
	err := s.Add(Job{Name: "bad", Schedule: "every tuesday", Fn: func(context.Context) error { return nil }})
	if err == nil {
		t.Fatal("expected error for invalid schedule")
	}
	if s.Len() != 0 {
		t.Errorf("invalid job should not be registered")
	}
}

func TestRunOnce(t *testing.T) {
	s := NewScheduler()
	var order []string
	for _, name := range []string{"first", "second"} {
		name := name
		if err := s.Add(Job{Name: name, Schedule: "0 8 * * *", Fn: func(context.Context) error {
			order = append(order, name)
			return nil
		}}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("unexpected run order %v", order)
	}
}

func TestRunOnce_StopsOnError(t *testing.T) {
	s := NewScheduler()
	boom := errors.New("boom")
	ran := false
	s.Add(Job{Name: "failing", Schedule: "@daily", Fn: func(context.Context) error { return boom }})
	s.Add(Job{Name: "after", Schedule: "@daily", Fn: func(context.Context) error { ran = true; return nil }})

	if err := s.RunOnce(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	if ran {
		t.Error("jobs after a failure should not run")
	}
}

func TestReportJob(t *testing.T) {
	sub := &fakeSubmitter{}
	s := NewScheduler()
	if err := s.Add(ReportJob("morning", "0 7 * * 1-5", "24h", "https://cb", sub)); err != nil {
		t.Fatal(err)
	}
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(sub.requests) != 1 {
		t.Fatalf("expected 1 submitted run, got %d", len(sub.requests))
	}
	if got := sub.requests[0]; got.Period != "24h" || got.CallbackURL != "https://cb" {
		t.Errorf("unexpected request %+v", got)
	}
}

func TestStartStop(t *testing.T) {
	s := NewScheduler()
	s.Add(Job{Name: "noop", Schedule: "@hourly", Fn: func(context.Context) error { return nil }})
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	if ctx.Err() != nil {
		t.Error("Stop should return before the deadline when no job is running")
	}
}
