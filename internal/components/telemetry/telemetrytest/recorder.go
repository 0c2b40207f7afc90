// Package telemetrytest provides a telemetry.API that records reports so tests can
// assert on them.
package telemetrytest

import (
	"strings"
	"sync"
)

type Kind int

const (
	KIND_BROKEN Kind = iota
	KIND_WARNING
	KIND_DEBUG
	KIND_COUNT
)

type Report struct {
	Kind   Kind
	ID     string
	Params []any
	Count  int64
}

// Recorder implements telemetry.API.
type Recorder struct {
	mu      sync.Mutex
	reports []Report
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(report Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.add(Report{Kind: KIND_BROKEN, ID: id, Params: params})
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.add(Report{Kind: KIND_WARNING, ID: id, Params: params})
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	r.add(Report{Kind: KIND_DEBUG, ID: msg, Params: params})
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.add(Report{Kind: KIND_COUNT, ID: id, Count: count})
}

// Reports returns every report of the given kind whose id ends with suffix.
func (r *Recorder) Reports(kind Kind, suffix string) []Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Report
	for _, report := range r.reports {
		if report.Kind == kind && strings.HasSuffix(report.ID, suffix) {
			out = append(out, report)
		}
	}
	return out
}
