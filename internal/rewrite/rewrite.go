// Package rewrite implements dev-stage schema rewriting: producing a
// transformed SQL string where qualified references to a chosen set of
// (schema, table) tuples are rewritten to point at a developer schema,
// the way the teacher's preprocess.go rewrites `[code]` to
// `[code@hash]` by walking tokens and substituting in place rather than
// reparsing into a tree.
package rewrite

import (
	"fmt"
	"strings"

	"github.com/sqlscheduler/sqlscheduler/internal/pgscan"
	"github.com/sqlscheduler/sqlscheduler/internal/task"
)

// Rewrite retokenizes sql and substitutes the schema of every
// <identifier> . <identifier> run whose normalized (schema, table) is a
// member of replace with devSchema, emitted unquoted. Everything outside
// a rewritten span — whitespace, comments, string literals, punctuation
// — is copied through byte-for-byte, reconstructed from the original
// token text rather than from byte offsets.
func Rewrite(file pgscan.FileRef, sql string, replace map[task.ID]struct{}, devSchema string) (string, error) {
	if len(replace) == 0 {
		return sql, nil
	}

	toks, err := tokenizeAll(file, sql)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	out.Grow(len(sql))

	i := 0
	for i < len(toks) {
		if i+2 < len(toks) && isQualifiedTriple(toks, i) {
			schema, _ := pgscan.NormalizeIdentifier(toks[i].typ, toks[i].text)
			table, _ := pgscan.NormalizeIdentifier(toks[i+2].typ, toks[i+2].text)
			if _, ok := replace[task.ID{Schema: schema, Table: table}]; ok {
				out.WriteString(devSchema)
				out.WriteByte('.')
				out.WriteString(toks[i+2].text)
				i += 3
				continue
			}
		}
		out.WriteString(toks[i].text)
		i++
	}

	return out.String(), nil
}

type tok struct {
	typ  pgscan.TokenType
	text string
}

func isQualifiedTriple(toks []tok, i int) bool {
	if !isIdentifierLike(toks[i]) {
		return false
	}
	if toks[i+1].typ != pgscan.DotToken {
		return false
	}
	return isIdentifierLike(toks[i+2])
}

func isIdentifierLike(t tok) bool {
	return t.typ == pgscan.QuotedIdentifierToken || t.typ == pgscan.UnquotedIdentifierToken
}

func tokenizeAll(file pgscan.FileRef, sql string) ([]tok, error) {
	s := pgscan.NewScanner(file, sql)
	var toks []tok
	for {
		tt := s.NextToken()
		switch tt {
		case pgscan.EOFToken:
			return toks, nil
		case pgscan.UnterminatedStringLiteralErrorToken, pgscan.UnterminatedQuotedIdentifierErrorToken, pgscan.NonUTF8ErrorToken:
			pos := s.Start()
			return nil, fmt.Errorf("%s: unterminated or invalid token starting at %d:%d", file, pos.Line, pos.Col)
		}
		toks = append(toks, tok{typ: tt, text: s.Token()})
	}
}
