// Package report builds the report a run delivers and the callback payloads
// that carry it.
package report

import (
	"time"

	"github.com/RobinCoderZhao/newsagent/internal/newsagent/sources"
)

// Status values sent in callback payloads.
const (
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Report is the outcome of a successful run.
type Report struct {
	GeneratedAt time.Time         `json:"generatedAt"`
	Articles    []sources.Article `json:"articles"`
}

// Assembler stamps aggregated articles into a Report.
type Assembler struct {
	now func() time.Time
}

// NewAssembler creates an assembler using the wall clock.
func NewAssembler() *Assembler {
	return &Assembler{now: time.Now}
}

// NewAssemblerWithClock creates an assembler with an injected clock.
func NewAssemblerWithClock(now func() time.Time) *Assembler {
	return &Assembler{now: now}
}

// Assemble wraps articles into a Report. The articles slice is never nil so it
// encodes as [] rather than null.
func (a *Assembler) Assemble(articles []sources.Article) *Report {
	if articles == nil {
		articles = []sources.Article{}
	}
	return &Report{
		GeneratedAt: a.now().UTC(),
		Articles:    articles,
	}
}

// Payload is the JSON body posted to a callback URL. Exactly one of Report
// and Error is set, matching Status.
type Payload struct {
	Status string  `json:"status"`
	Report *Report `json:"report,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// Completed returns the payload announcing a finished report.
func Completed(r *Report) Payload {
	return Payload{Status: StatusCompleted, Report: r}
}

// Failed returns the payload announcing a failed run or delivery.
func Failed(msg string) Payload {
	return Payload{Status: StatusFailed, Error: msg}
}
