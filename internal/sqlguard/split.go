// Package sqlguard holds the pure, connection-free parts of the read-only
// pipeline: splitting a caller-supplied batch into statements and rejecting
// statements that carry write, DDL or transaction-control keywords.
package sqlguard

import "strings"

// SplitStatements breaks sql into its individual statements on ';'.
//
// Semicolons inside quoted literals ('...' or "...") and inside comments
// (-- and # line comments, /* */ block comments) never separate statements.
// A doubled quote ('' or "") inside a literal is an escaped quote, and a
// backslash escapes the character that follows it. Line comments are dropped
// but their terminating newline is kept; block comments collapse to a single
// space. Statements are trimmed and empty ones are discarded, so the result
// may be empty for input made only of whitespace, comments and ';'.
func SplitStatements(sql string) []string {
	var (
		stmts []string
		buf   strings.Builder

		inLineComment  bool
		inBlockComment bool
		inString       bool
		quote          byte
		escaped        bool
	)

	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			stmts = append(stmts, s)
		}
		buf.Reset()
	}

	// All markers are ASCII, so scanning bytes leaves UTF-8 sequences intact.
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		var next byte
		if i+1 < len(sql) {
			next = sql[i+1]
		}

		switch {
		case inLineComment:
			if c == '\n' {
				inLineComment = false
				buf.WriteByte(c)
			}
		case inBlockComment:
			if c == '*' && next == '/' {
				inBlockComment = false
				buf.WriteByte(' ')
				i++
			}
		case escaped:
			buf.WriteByte(c)
			escaped = false
		case c == '\\':
			buf.WriteByte(c)
			escaped = true
		case inString:
			buf.WriteByte(c)
			if c != quote {
				continue
			}
			if next == quote {
				buf.WriteByte(next)
				i++
				continue
			}
			inString = false
		case c == '#':
			inLineComment = true
		case c == '-' && next == '-':
			inLineComment = true
			i++
		case c == '/' && next == '*':
			inBlockComment = true
			i++
		case c == '\'' || c == '"':
			inString = true
			quote = c
			buf.WriteByte(c)
		case c == ';':
			flush()
		default:
			buf.WriteByte(c)
		}
	}
	flush()

	return stmts
}
