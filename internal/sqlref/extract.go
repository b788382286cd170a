// Package sqlref walks the token stream of an INSERT (or DDL) script to
// find the schema-qualified tables it reads and writes, the way the
// teacher's sqlparser/pgsql/batch.go walks tokens dispatching on
// reserved-word context rather than building a full parse tree.
package sqlref

import (
	"fmt"
	"strings"

	"github.com/sqlscheduler/sqlscheduler/internal/pgscan"
	"github.com/sqlscheduler/sqlscheduler/internal/task"
)

// Result is everything the extractor found in one script.
type Result struct {
	// Reads is every FROM/JOIN target, deduplicated.
	Reads map[task.ID]struct{}
	// Writes is every INSERT INTO/UPDATE/DELETE FROM/CREATE TABLE/DROP
	// TABLE target, in source order (may repeat the same id; the Suite
	// Loader is responsible for checking they all agree).
	Writes []task.ID
}

type tok struct {
	typ  pgscan.TokenType
	text string
	pos  pgscan.Pos
}

// Extract tokenizes sql and returns the tables it reads and writes. An
// error is returned only for a lexical problem (unterminated literal,
// non-UTF8 input) — Extract never validates the SQL itself.
func Extract(file pgscan.FileRef, sql string) (Result, error) {
	toks, err := tokenize(file, sql)
	if err != nil {
		return Result{}, err
	}

	result := Result{Reads: map[task.ID]struct{}{}}

	i := 0
	for i < len(toks) {
		switch lower(toks[i]) {
		case "insert":
			if i+1 < len(toks) && lower(toks[i+1]) == "into" {
				if id, next, ok := parseQualified(toks, i+2); ok {
					result.Writes = append(result.Writes, id)
					i = next
					continue
				}
				i += 2
				continue
			}
		case "update":
			if id, next, ok := parseQualified(toks, i+1); ok {
				result.Writes = append(result.Writes, id)
				i = next
				continue
			}
		case "delete":
			if i+1 < len(toks) && lower(toks[i+1]) == "from" {
				if id, next, ok := parseQualified(toks, i+2); ok {
					result.Writes = append(result.Writes, id)
					i = next
					continue
				}
				i += 2
				continue
			}
		case "create":
			if i+1 < len(toks) && lower(toks[i+1]) == "table" {
				j := skipIfExistsClause(toks, i+2, true)
				if id, next, ok := parseQualified(toks, j); ok {
					result.Writes = append(result.Writes, id)
					i = next
					continue
				}
				i = j
				continue
			}
		case "drop":
			if i+1 < len(toks) && lower(toks[i+1]) == "table" {
				j := skipIfExistsClause(toks, i+2, false)
				if id, next, ok := parseQualified(toks, j); ok {
					result.Writes = append(result.Writes, id)
					i = next
					continue
				}
				i = j
				continue
			}
		case "from", "join":
			if id, next, ok := parseQualified(toks, i+1); ok {
				result.Reads[id] = struct{}{}
				i = next
				continue
			}
		}
		i++
	}

	return result, nil
}

// skipIfExistsClause advances past an optional "IF NOT EXISTS" (create)
// or "IF EXISTS" (drop) clause starting at i.
func skipIfExistsClause(toks []tok, i int, allowNot bool) int {
	if i >= len(toks) || lower(toks[i]) != "if" {
		return i
	}
	j := i + 1
	if allowNot && j < len(toks) && lower(toks[j]) == "not" {
		j++
	}
	if j < len(toks) && lower(toks[j]) == "exists" {
		j++
		return j
	}
	return i
}

// parseQualified reads <identifier> . <identifier> starting at i,
// returning the normalized id and the index just past it.
func parseQualified(toks []tok, i int) (task.ID, int, bool) {
	if i+2 >= len(toks) {
		return task.ID{}, i, false
	}
	schema, ok := identifierText(toks[i])
	if !ok {
		return task.ID{}, i, false
	}
	if toks[i+1].typ != pgscan.DotToken {
		return task.ID{}, i, false
	}
	table, ok := identifierText(toks[i+2])
	if !ok {
		return task.ID{}, i, false
	}
	return task.ID{Schema: schema, Table: table}, i + 3, true
}

func identifierText(t tok) (string, bool) {
	return pgscan.NormalizeIdentifier(t.typ, t.text)
}

func lower(t tok) string {
	switch t.typ {
	case pgscan.ReservedWordToken, pgscan.UnquotedIdentifierToken:
		return strings.ToLower(t.text)
	default:
		return ""
	}
}

func tokenize(file pgscan.FileRef, sql string) ([]tok, error) {
	s := pgscan.NewScanner(file, sql)
	var toks []tok
	for {
		tt := s.NextNonWhitespaceCommentToken()
		switch tt {
		case pgscan.EOFToken:
			return toks, nil
		case pgscan.UnterminatedStringLiteralErrorToken, pgscan.UnterminatedQuotedIdentifierErrorToken, pgscan.NonUTF8ErrorToken:
			return nil, fmt.Errorf("%s: unterminated or invalid token starting at %d:%d", file, s.Start().Line, s.Start().Col)
		}
		toks = append(toks, tok{typ: tt, text: s.Token(), pos: s.Start()})
	}
}
