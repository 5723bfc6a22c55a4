package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Markdown renders every outcome as a heading with the statement followed
// by a table of rows or the error message.
func (r *BatchResult) Markdown() string {
	var b strings.Builder
	for i, o := range r.Outcomes {
		if i > 0 {
			b.WriteString("\n")
		}
		fence := codeFence(o.Statement)
		fmt.Fprintf(&b, "### Query %d\n\n%ssql\n%s\n%s\n\n", i+1, fence, o.Statement, fence)
		if o.Failed() {
			fmt.Fprintf(&b, "Error: %s\n", o.Err)
			continue
		}
		if len(o.Rows) == 0 {
			b.WriteString("No rows returned.\n")
			continue
		}
		fmt.Fprintf(&b, "%d row(s)\n\n", len(o.Rows))
		b.WriteString(markdownTable(o.Columns, o.Rows))
	}
	return b.String()
}

// codeFence returns a backtick fence longer than any backtick run in s.
func codeFence(s string) string {
	longest, run := 0, 0
	for _, r := range s {
		if r != '`' {
			run = 0
			continue
		}
		run++
		longest = max(longest, run)
	}
	return strings.Repeat("`", max(3, longest+1))
}

func markdownTable(columns []string, rows []Row) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader(columns)

	data := make([][]string, 0, len(rows))
	for _, row := range rows {
		line := make([]string, 0, len(columns))
		for _, c := range columns {
			v, _ := row.Get(c)
			line = append(line, formatCell(v))
		}
		data = append(data, line)
	}
	table.AppendBulk(data)
	table.Render()
	return buf.String()
}

// formatCell renders one value on a single line, safe inside a markdown
// table cell.
func formatCell(v any) string {
	var s string
	switch x := v.(type) {
	case nil:
		s = "NULL"
	case string:
		s = x
	case []byte:
		s = fmt.Sprintf("<%d bytes>", len(x))
	case time.Time:
		s = x.Format(time.RFC3339Nano)
	case map[string]any, []any:
		raw, err := json.Marshal(x)
		if err != nil {
			s = fmt.Sprintf("%v", x)
		} else {
			s = string(raw)
		}
	default:
		s = fmt.Sprintf("%v", x)
	}
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

// Structured returns the machine-readable form, {"results": [...]}.
func (r *BatchResult) Structured() map[string]any {
	outcomes := r.Outcomes
	if outcomes == nil {
		outcomes = []Outcome{}
	}
	return map[string]any{"results": outcomes}
}
