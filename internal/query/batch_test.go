package query

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SedlarDavid/readonly-sql-mcp/internal/sqlguard"
)

func TestRunBatch_abortsOnViolation(t *testing.T) {
	target, d := newMockTarget(t)

	res, err := newTestExecutor().RunBatch(context.Background(), target, "SELECT 1; DROP TABLE x; SELECT 2")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, sqlguard.ErrSecurityViolation)

	var v *sqlguard.SecurityViolationError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "DROP", v.Keyword)

	_, rollbacks, _, queries := d.snapshot()
	assert.Equal(t, []string{"SELECT 1"}, queries)
	assert.NotContains(t, queries, "SELECT 2")
	assert.Equal(t, 1, rollbacks)
}

func TestRunBatch_partialFailure(t *testing.T) {
	c := newSQLiteConnection(t)

	res, err := newTestExecutor().RunBatch(context.Background(), c,
		"SELECT 1 AS val; SELECT * FROM missing_table; SELECT 2 AS val")
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 3)
	assert.Equal(t, 1, res.Failures())

	first := res.Outcomes[0]
	require.False(t, first.Failed())
	require.Len(t, first.Rows, 1)
	v, _ := first.Rows[0].Get("val")
	assert.Equal(t, int64(1), v)

	second := res.Outcomes[1]
	require.True(t, second.Failed())
	assert.Equal(t, "SELECT * FROM missing_table", second.Statement)
	assert.Contains(t, second.Err.Error(), "missing_table")

	third := res.Outcomes[2]
	require.False(t, third.Failed())
	v, _ = third.Rows[0].Get("val")
	assert.Equal(t, int64(2), v)
}

func TestRunBatch_everyStatementRolledBack(t *testing.T) {
	target, d := newMockTarget(t)

	res, err := newTestExecutor().RunBatch(context.Background(), target,
		"SELECT 1; SELECT * FROM missing; SELECT 'a;b'")
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 3)

	begins, rollbacks, commits, queries := d.snapshot()
	assert.Equal(t, 3, begins)
	assert.Equal(t, 3, rollbacks)
	assert.Zero(t, commits)
	assert.Equal(t, []string{"SELECT 1", "SELECT * FROM missing", "SELECT 'a;b'"}, queries)
}

func TestRunBatch_noStatements(t *testing.T) {
	target, d := newMockTarget(t)

	for _, raw := range []string{"", "   ", ";;", "-- just a comment", "/* block */ ;"} {
		_, err := newTestExecutor().RunBatch(context.Background(), target, raw)
		assert.ErrorIs(t, err, ErrNoStatements, "input %q", raw)
	}
	begins, _, _, _ := d.snapshot()
	assert.Zero(t, begins)
}

func TestRunBatch_commentedKeywordPasses(t *testing.T) {
	target, _ := newMockTarget(t)

	res, err := newTestExecutor().RunBatch(context.Background(), target, "-- DROP TABLE x\nSELECT 1")
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 1)
	assert.False(t, res.Outcomes[0].Failed())
}

func TestOutcome_MarshalJSON(t *testing.T) {
	c := newSQLiteConnection(t)

	res, err := newTestExecutor().RunBatch(context.Background(), c,
		"SELECT 2 AS z, 1 AS a; SELECT * FROM items; SELECT * FROM missing_table")
	require.NoError(t, err)

	raw, err := json.Marshal(res.Outcomes[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":"SELECT 2 AS z, 1 AS a","count":1,"rows":[{"z":2,"a":1}]}`, string(raw))
	assert.Contains(t, string(raw), `{"z":2,"a":1}`)

	raw, err = json.Marshal(res.Outcomes[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":"SELECT * FROM items","count":0,"rows":[]}`, string(raw))

	raw, err = json.Marshal(res.Outcomes[2])
	require.NoError(t, err)
	var failed map[string]any
	require.NoError(t, json.Unmarshal(raw, &failed))
	assert.Equal(t, "SELECT * FROM missing_table", failed["query"])
	assert.Contains(t, failed["error"], "missing_table")
	assert.NotContains(t, failed, "rows")

	raw, err = json.Marshal(res)
	require.NoError(t, err)
	var all []map[string]any
	require.NoError(t, json.Unmarshal(raw, &all))
	assert.Len(t, all, 3)
}

// writableTarget is a plain sqlite pool without the read-only session, so
// only the statement checks and the rollback stand between a batch and the data.
type writableTarget struct {
	*sql.DB
}

func (writableTarget) DBSystem() string { return "sqlite" }

func TestRunBatch_dashInLiteralCannotHideWrites(t *testing.T) {
	raw, err := sql.Open("sqlite", newSQLiteFile(t))
	require.NoError(t, err)
	defer raw.Close()
	ctx := context.Background()
	_, err = raw.ExecContext(ctx, `INSERT INTO items (name) VALUES ('a'), ('b')`)
	require.NoError(t, err)

	batch := "SELECT '--', '\\'; DELETE FROM items; COMMIT; --"
	res, err := newTestExecutor().RunBatch(ctx, writableTarget{DB: raw}, batch)
	assert.Nil(t, res)
	require.ErrorIs(t, err, sqlguard.ErrSecurityViolation)

	var n int
	require.NoError(t, raw.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n))
	assert.Equal(t, 2, n)

	target, d := newMockTarget(t)
	_, err = newTestExecutor().RunBatch(ctx, target, batch)
	require.ErrorIs(t, err, sqlguard.ErrSecurityViolation)
	begins, _, _, queries := d.snapshot()
	assert.Zero(t, begins)
	assert.Empty(t, queries)
}
