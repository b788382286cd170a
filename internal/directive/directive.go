// Package directive extracts test directives (granularity, not_null,
// relationship) from the block comments of an INSERT script, the way
// the teacher's pragma.go scans `--sqlcode:` line comments for
// structured directives rather than treating comments as dead text.
package directive

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sqlscheduler/sqlscheduler/internal/pgscan"
	"github.com/sqlscheduler/sqlscheduler/internal/sqlerr"
	"github.com/sqlscheduler/sqlscheduler/internal/task"
)

var lineRegexp = regexp.MustCompile(`^\s*(granularity|not_null|relationship)\s*:\s*(.*?)\s*$`)
var relationshipRegexp = regexp.MustCompile(`^(\S+)\s*=\s*([^.\s]+)\.([^.\s]+)\.(\S+)$`)

// Parse scans every block comment in sql and returns the test directives
// found, in source order. A directive line that names a kind but fails
// to parse as that kind's payload is a load-time error.
func Parse(file pgscan.FileRef, sql string) ([]task.TestDirective, error) {
	s := pgscan.NewScanner(file, sql)

	var directives []task.TestDirective
	for {
		tt := s.NextToken()
		if tt == pgscan.EOFToken {
			break
		}
		if tt != pgscan.MultilineCommentToken {
			continue
		}

		start := s.Start()
		body := stripCommentDelimiters(s.Token())
		for lineNo, line := range strings.Split(body, "\n") {
			m := lineRegexp.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			kind, payload := m[1], m[2]
			d, err := parseDirective(kind, payload)
			if err != nil {
				return nil, sqlerr.LoadError{
					File:    string(file),
					Pos:     pgscan.Pos{File: file, Line: start.Line + lineNo, Col: 1},
					Message: fmt.Sprintf("malformed %s directive: %q: %s", kind, strings.TrimSpace(line), err),
				}
			}
			directives = append(directives, d)
		}
	}
	return directives, nil
}

func stripCommentDelimiters(raw string) string {
	raw = strings.TrimPrefix(raw, "/*")
	raw = strings.TrimSuffix(raw, "*/")
	return raw
}

func parseDirective(kind, payload string) (task.TestDirective, error) {
	switch kind {
	case "granularity":
		cols, err := splitColumns(payload)
		if err != nil {
			return task.TestDirective{}, err
		}
		return task.TestDirective{Kind: task.Granularity, Columns: cols, Source: payload}, nil
	case "not_null":
		cols, err := splitColumns(payload)
		if err != nil {
			return task.TestDirective{}, err
		}
		return task.TestDirective{Kind: task.NotNull, Columns: cols, Source: payload}, nil
	case "relationship":
		m := relationshipRegexp.FindStringSubmatch(payload)
		if m == nil {
			return task.TestDirective{}, fmt.Errorf("expected '<local_col> = <schema>.<table>.<col>'")
		}
		return task.TestDirective{
			Kind:        task.Relationship,
			LocalColumn: m[1],
			Foreign:     task.ForeignRef{Schema: m[2], Table: m[3], Column: m[4]},
			Source:      payload,
		}, nil
	default:
		return task.TestDirective{}, fmt.Errorf("unknown directive kind %q", kind)
	}
}

func splitColumns(payload string) ([]string, error) {
	parts := strings.Split(payload, ",")
	cols := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("column list contains an empty entry")
		}
		cols = append(cols, p)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("column list must not be empty")
	}
	return cols, nil
}
