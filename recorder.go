package gormprobe

import (
	"context"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm/logger"
)

// TracedQuery is one statement observed by a QueryRecorder.
type TracedQuery struct {
	SQL     string
	Rows    int64
	Err     error
	Elapsed time.Duration
}

// QueryRecorder is a session logger that captures every traced statement so
// suites can assert on what actually reached the database: statement counts
// for batched loads, lock clauses, cache bypasses.
type QueryRecorder struct {
	mu      sync.Mutex
	queries []TracedQuery
}

func NewQueryRecorder() *QueryRecorder {
	return &QueryRecorder{}
}

// LogMode implements logger.Interface. The recorder captures regardless of
// level.
func (r *QueryRecorder) LogMode(logger.LogLevel) logger.Interface { return r }

func (r *QueryRecorder) Info(context.Context, string, ...any)  {}
func (r *QueryRecorder) Warn(context.Context, string, ...any)  {}
func (r *QueryRecorder) Error(context.Context, string, ...any) {}

// Trace implements logger.Interface.
func (r *QueryRecorder) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	sql, rows := fc()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, TracedQuery{
		SQL:     sql,
		Rows:    rows,
		Err:     err,
		Elapsed: time.Since(begin),
	})
}

// Count returns how many statements were traced since the last Reset.
func (r *QueryRecorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queries)
}

// CountMatching returns how many traced statements contain substr.
func (r *QueryRecorder) CountMatching(substr string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, q := range r.queries {
		if strings.Contains(q.SQL, substr) {
			n++
		}
	}
	return n
}

// Queries returns a copy of the traced statements in execution order.
func (r *QueryRecorder) Queries() []TracedQuery {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TracedQuery, len(r.queries))
	copy(out, r.queries)
	return out
}

// SQLs returns the traced statement texts in execution order.
func (r *QueryRecorder) SQLs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.queries))
	for _, q := range r.queries {
		out = append(out, q.SQL)
	}
	return out
}

// Reset discards everything traced so far.
func (r *QueryRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = nil
}
