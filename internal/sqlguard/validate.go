package sqlguard

import (
	"regexp"
	"strings"
)

// forbiddenKeywords are checked in this order; the first match is reported.
var forbiddenKeywords = [...]string{
	"COMMIT", "ROLLBACK", "TRANSACTION",
	"INSERT", "UPDATE", "DELETE",
	"DROP", "ALTER", "CREATE", "TRUNCATE",
	"EXEC", "EXECUTE", "MERGE", "INTO",
	"GRANT", "REVOKE",
}

var (
	sqlLineComment  = regexp.MustCompile(`--[^\n]*`)
	sqlBlockComment = regexp.MustCompile(`/\*[\s\S]*?\*/`)
	sqlWhitespace   = regexp.MustCompile(`\s+`)

	forbiddenKeywordRes = compileKeywordPatterns(forbiddenKeywords[:])
)

func compileKeywordPatterns(words []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		res[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
	}
	return res
}

// ForbiddenKeywords returns a copy of the keywords that make a statement
// non-read-only.
func ForbiddenKeywords() []string {
	out := make([]string, len(forbiddenKeywords))
	copy(out, forbiddenKeywords[:])
	return out
}

// NormalizeStatement removes -- and /* */ comments and collapses whitespace.
func NormalizeStatement(stmt string) string {
	s := sqlLineComment.ReplaceAllString(stmt, " ")
	s = sqlBlockComment.ReplaceAllString(s, " ")
	s = sqlWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ValidateStatement returns a *SecurityViolationError naming the first
// forbidden keyword that appears as a whole word in stmt once comments are
// removed. Keywords inside string literals are still rejected.
func ValidateStatement(stmt string) error {
	return scanKeywords(NormalizeStatement(stmt), stmt)
}

// ValidateSplitStatement validates a statement produced by SplitStatements.
// The splitter has already dropped real comments, so comment markers left
// in stmt sit inside string literals and must not hide what follows them:
// the text is scanned both with and without comment stripping.
func ValidateSplitStatement(stmt string) error {
	if err := ValidateStatement(stmt); err != nil {
		return err
	}
	return scanKeywords(sqlWhitespace.ReplaceAllString(stmt, " "), stmt)
}

func scanKeywords(text, stmt string) error {
	for i, re := range forbiddenKeywordRes {
		if re.MatchString(text) {
			return &SecurityViolationError{Keyword: forbiddenKeywords[i], Statement: stmt}
		}
	}
	return nil
}
