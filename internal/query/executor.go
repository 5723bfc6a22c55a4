// Package query runs read-only statement batches. Every statement is
// validated up front and then executed inside a transaction that is
// always rolled back.
package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/SedlarDavid/readonly-sql-mcp/internal/logger"
	"github.com/SedlarDavid/readonly-sql-mcp/internal/tracer"
)

// Beginner starts transactions. *sql.DB and *db.Connection satisfy it.
type Beginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Target is a connection a batch runs against.
type Target interface {
	Beginner
	// DBSystem names the engine, e.g. "postgresql".
	DBSystem() string
}

// ExecutionError is a database failure for one validated statement.
type ExecutionError struct {
	Statement string
	Err       error
}

func (e *ExecutionError) Error() string { return e.Err.Error() }

func (e *ExecutionError) Unwrap() error { return e.Err }

// Executor runs statements in always-rolled-back transactions.
type Executor struct {
	tracer tracer.Tracer
	log    logger.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithTracer sets the tracer used for batch and statement spans.
func WithTracer(t tracer.Tracer) Option {
	return func(e *Executor) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.log = l
		}
	}
}

// NewExecutor returns an Executor with a no-op tracer and the default
// logger unless overridden.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		tracer: tracer.NoopTracer{},
		log:    logger.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes one statement in a fresh transaction and fetches all of
// its rows. The transaction is rolled back before Run returns, whatever
// the outcome. Statement validation is the caller's job.
func (e *Executor) Run(ctx context.Context, b Beginner, stmt string, args ...any) (columns []string, rows []Row, err error) {
	tx, err := b.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, &ExecutionError{Statement: stmt, Err: fmt.Errorf("begin transaction: %w", err)}
	}
	defer func() {
		// ErrTxDone means the driver already ended the transaction.
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			e.log.Warn("Rollback failed", logger.Ctx{"err": rbErr.Error()})
		}
	}()

	res, err := tx.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, nil, &ExecutionError{Statement: stmt, Err: err}
	}
	defer res.Close()

	columns, rows, err = fetchAll(res)
	if err != nil {
		return nil, nil, &ExecutionError{Statement: stmt, Err: err}
	}
	return columns, rows, nil
}

// runTraced wraps Run in a statement span.
func (e *Executor) runTraced(ctx context.Context, t Target, stmt string) Outcome {
	ctx, span := e.tracer.StartSpan(ctx, "readonly.statement")
	defer span.End()
	span.SetAttributes(tracer.StatementAttributes(t.DBSystem(), stmt)...)

	cols, rows, err := e.Run(ctx, t, stmt)
	tracer.Finish(span, err)
	if err != nil {
		return Outcome{Statement: stmt, Err: err}
	}
	span.SetAttributes(attribute.Int("db.rows_returned", len(rows)))
	return Outcome{Statement: stmt, Columns: cols, Rows: rows}
}
