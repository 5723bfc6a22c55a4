package sqlguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{"two statements", "SELECT 1; SELECT 2", []string{"SELECT 1", "SELECT 2"}},
		{"single no semicolon", "SELECT * FROM users", []string{"SELECT * FROM users"}},
		{"trailing semicolon", "SELECT 1;", []string{"SELECT 1"}},
		{"empty statements dropped", "SELECT 1;;  ; SELECT 2;", []string{"SELECT 1", "SELECT 2"}},
		{
			"semicolon and quote inside literals",
			`SELECT ';' LIMIT 1; SELECT "'" LIMIT 1`,
			[]string{`SELECT ';' LIMIT 1`, `SELECT "'" LIMIT 1`},
		},
		{"doubled single quote", "SELECT 'It''s a test' LIMIT 1", []string{"SELECT 'It''s a test' LIMIT 1"}},
		{"doubled double quote", `SELECT "a""b;c"; SELECT 2`, []string{`SELECT "a""b;c"`, "SELECT 2"}},
		{"backslash escaped quote", `SELECT 'a\'; b' AS x; SELECT 2`, []string{`SELECT 'a\'; b' AS x`, "SELECT 2"}},
		{"dash comment hides semicolon", "-- first; not a split\nSELECT 1", []string{"SELECT 1"}},
		{"hash comment hides semicolon", "SELECT 1 # note; here\n; SELECT 2", []string{"SELECT 1", "SELECT 2"}},
		{"line comment keeps newline", "SELECT 1 -- x\n, 2", []string{"SELECT 1 \n, 2"}},
		{"block comment becomes space", "SELECT /* a; b */ 1", []string{"SELECT   1"}},
		{"multi-line block comment", "SELECT 1 /* a;\n b; */; SELECT 2", []string{"SELECT 1", "SELECT 2"}},
		{"comment markers inside literal", `SELECT '--;'; SELECT '/*;*/'; SELECT '#;'`, []string{`SELECT '--;'`, `SELECT '/*;*/'`, `SELECT '#;'`}},
		{"multibyte text", "SELECT 'héllo;wörld'; SELECT 'ü'", []string{"SELECT 'héllo;wörld'", "SELECT 'ü'"}},
		{"unterminated block comment", "SELECT 1; /* never closed; SELECT 2", []string{"SELECT 1"}},
		{"whitespace only", "  \n\t ", nil},
		{"separators only", " ; ;; ", nil},
		{"comment only", "-- nothing here", nil},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitStatements(tt.sql)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitStatements_neverReturnsEmptyEntries(t *testing.T) {
	inputs := []string{
		";;;",
		"SELECT 1;\n;\n-- c\n;",
		"/* x */;/* y */;SELECT 2",
		"# only\n;\t;",
	}
	for _, in := range inputs {
		for _, s := range SplitStatements(in) {
			assert.NotEmpty(t, s, "input %q", in)
		}
	}
}
