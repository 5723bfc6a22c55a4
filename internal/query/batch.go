package query

import (
	"context"
	"encoding/json"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"github.com/SedlarDavid/readonly-sql-mcp/internal/logger"
	"github.com/SedlarDavid/readonly-sql-mcp/internal/sqlguard"
	"github.com/SedlarDavid/readonly-sql-mcp/internal/tracer"
)

// ErrNoStatements is returned for input that holds only whitespace,
// comments or semicolons.
var ErrNoStatements = errors.New("no SQL statements found in query")

// Outcome is the result of one statement: rows on success, Err otherwise.
type Outcome struct {
	Statement string
	Columns   []string
	Rows      []Row
	Err       error
}

// Failed reports whether the statement failed to execute.
func (o Outcome) Failed() bool { return o.Err != nil }

// MarshalJSON renders {query, count, rows} or {query, error}.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Err != nil {
		return json.Marshal(struct {
			Query string `json:"query"`
			Error string `json:"error"`
		}{o.Statement, o.Err.Error()})
	}
	rows := o.Rows
	if rows == nil {
		rows = []Row{}
	}
	return json.Marshal(struct {
		Query string `json:"query"`
		Count int    `json:"count"`
		Rows  []Row  `json:"rows"`
	}{o.Statement, len(rows), rows})
}

// BatchResult holds one Outcome per statement, in input order.
type BatchResult struct {
	Outcomes []Outcome
}

// Failures counts statements that failed to execute.
func (r *BatchResult) Failures() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Failed() {
			n++
		}
	}
	return n
}

// MarshalJSON renders the outcomes as a JSON array.
func (r *BatchResult) MarshalJSON() ([]byte, error) {
	if r.Outcomes == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.Outcomes)
}

// RunBatch splits raw into statements and runs them one at a time, in
// order, validating each just before it executes. A forbidden keyword
// aborts the batch: later statements are never sent, results gathered so
// far are dropped, and the returned error wraps
// sqlguard.ErrSecurityViolation. An execution failure is recorded in its
// Outcome and the batch moves on.
func (e *Executor) RunBatch(ctx context.Context, t Target, raw string) (*BatchResult, error) {
	stmts := sqlguard.SplitStatements(raw)
	if len(stmts) == 0 {
		return nil, ErrNoStatements
	}

	ctx, span := e.tracer.StartSpan(ctx, "readonly.batch")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", t.DBSystem()),
		attribute.Int("db.statement_count", len(stmts)),
	)

	e.log.Debug("Running batch", logger.Ctx{"statements": len(stmts), "system": t.DBSystem()})

	result := &BatchResult{Outcomes: make([]Outcome, 0, len(stmts))}
	for i, stmt := range stmts {
		if err := sqlguard.ValidateSplitStatement(stmt); err != nil {
			var v *sqlguard.SecurityViolationError
			if errors.As(err, &v) {
				e.log.Warn("Rejected statement", logger.Ctx{"keyword": v.Keyword, "index": i})
			}
			tracer.Finish(span, err)
			return nil, err
		}

		out := e.runTraced(ctx, t, stmt)
		if out.Failed() {
			e.log.Info("Statement failed", logger.Ctx{"index": i, "err": out.Err.Error()})
		}
		result.Outcomes = append(result.Outcomes, out)
	}

	tracer.Finish(span, nil)
	return result, nil
}
