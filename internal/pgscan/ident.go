package pgscan

import "strings"

// NormalizeIdentifier turns a scanned identifier token's raw text into
// the form used for table-identity comparisons: quoted identifiers are
// unquoted and compared as-is (Postgres preserves their case), unquoted
// identifiers are lowercased (Postgres folds them, and so does the
// filename convention this system derives ids from).
func NormalizeIdentifier(tokenType TokenType, raw string) (string, bool) {
	switch tokenType {
	case QuotedIdentifierToken:
		inner := raw[1 : len(raw)-1]
		return strings.ReplaceAll(inner, `""`, `"`), true
	case UnquotedIdentifierToken:
		return strings.ToLower(raw), true
	default:
		return "", false
	}
}
