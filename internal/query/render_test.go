package query

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchResult_Markdown(t *testing.T) {
	row := NewRow()
	row.Set("id", int64(1))
	row.Set("note", "a|b\nc")
	row.Set("deleted_at", nil)

	res := &BatchResult{Outcomes: []Outcome{
		{Statement: "SELECT id, note, deleted_at FROM t", Columns: []string{"id", "note", "deleted_at"}, Rows: []Row{row}},
		{Statement: "SELECT * FROM empty", Columns: []string{"id"}, Rows: []Row{}},
		{Statement: "SELECT * FROM missing", Err: errors.New("no such table: missing")},
	}}

	md := res.Markdown()
	assert.Contains(t, md, "### Query 1")
	assert.Contains(t, md, "```sql\nSELECT id, note, deleted_at FROM t\n```")
	assert.Contains(t, md, "1 row(s)")
	assert.Contains(t, md, "deleted_at")
	assert.Contains(t, md, `a\|b c`)
	assert.Contains(t, md, "NULL")
	assert.Contains(t, md, "### Query 2")
	assert.Contains(t, md, "No rows returned.")
	assert.Contains(t, md, "### Query 3")
	assert.Contains(t, md, "Error: no such table: missing")
}

func TestBatchResult_Markdown_backticksInStatement(t *testing.T) {
	stmt := "SELECT '```' AS fence, '`' AS tick"
	res := &BatchResult{Outcomes: []Outcome{{Statement: stmt, Columns: []string{"fence"}}}}

	md := res.Markdown()
	assert.Contains(t, md, "````sql\n"+stmt+"\n````\n")
	assert.Equal(t, 2, strings.Count(md, "````"))
}

func TestCodeFence(t *testing.T) {
	assert.Equal(t, "```", codeFence("SELECT 1"))
	assert.Equal(t, "```", codeFence("SELECT `id` FROM t"))
	assert.Equal(t, "````", codeFence("SELECT '```'"))
	assert.Equal(t, "``````", codeFence("SELECT '`````'"))
}

func TestFormatCell(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		in   any
		want string
	}{
		{nil, "NULL"},
		{"plain", "plain"},
		{int64(42), "42"},
		{3.5, "3.5"},
		{true, "true"},
		{[]byte{0xff, 0x00}, "<2 bytes>"},
		{ts, "2024-03-01T12:00:00Z"},
		{map[string]any{"k": "v"}, `{"k":"v"}`},
		{"x|y", `x\|y`},
		{"line1\r\nline2", "line1 line2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatCell(tt.in))
	}
}

func TestBatchResult_Structured(t *testing.T) {
	target, _ := newMockTarget(t)
	res, err := newTestExecutor().RunBatch(context.Background(), target, "SELECT 1; SELECT * FROM missing")
	require.NoError(t, err)

	raw, err := json.Marshal(res.Structured())
	require.NoError(t, err)

	var got struct {
		Results []map[string]any `json:"results"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Len(t, got.Results, 2)
	assert.Equal(t, "SELECT 1", got.Results[0]["query"])
	assert.EqualValues(t, 1, got.Results[0]["count"])
	assert.Equal(t, "SELECT * FROM missing", got.Results[1]["query"])
	assert.Equal(t, "no such table: missing", got.Results[1]["error"])

	empty, err := json.Marshal((&BatchResult{}).Structured())
	require.NoError(t, err)
	assert.JSONEq(t, `{"results":[]}`, string(empty))
}
