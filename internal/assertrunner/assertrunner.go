// Package assertrunner translates a parsed TestDirective into a COUNT
// query and interprets the result, the tagged-variant dispatch the
// spec's design notes call for (§9, "exhaustive case analysis").
package assertrunner

import (
	"context"
	"fmt"
	"strings"

	"github.com/sqlscheduler/sqlscheduler/internal/dbconn"
	"github.com/sqlscheduler/sqlscheduler/internal/sqlerr"
	"github.com/sqlscheduler/sqlscheduler/internal/task"
)

// Run executes d against schema.table — the Task's target, already
// schema-rewritten by the caller if running in dev stage, and with
// d.Foreign already resolved the same way for a Relationship directive
// — and returns a sqlerr.TestFailure if the assertion's count is
// nonzero.
func Run(ctx context.Context, conn dbconn.Conn, id task.ID, schema, table string, d task.TestDirective) error {
	query, err := buildQuery(schema, table, d)
	if err != nil {
		return fmt.Errorf("%s: %w", id, err)
	}

	var count int64
	if err := conn.QueryRow(ctx, query).Scan(&count); err != nil {
		return fmt.Errorf("%s: assertion query failed (%s): %w", id, d, err)
	}
	if count > 0 {
		return sqlerr.TestFailure{Task: id, Directive: d.String(), Count: count}
	}
	return nil
}

func buildQuery(schema, table string, d task.TestDirective) (string, error) {
	target := fmt.Sprintf("%s.%s", schema, table)
	switch d.Kind {
	case task.Granularity:
		return fmt.Sprintf(
			"SELECT COUNT(*) FROM (SELECT 1 FROM %s GROUP BY %s HAVING COUNT(*) > 1) s",
			target, strings.Join(d.Columns, ", "),
		), nil
	case task.NotNull:
		conds := make([]string, len(d.Columns))
		for i, c := range d.Columns {
			conds[i] = fmt.Sprintf("(%s IS NULL)", c)
		}
		return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", target, strings.Join(conds, " OR ")), nil
	case task.Relationship:
		f := d.Foreign
		return fmt.Sprintf(
			"SELECT COUNT(*) FROM %s WHERE %s IS NOT NULL AND %s NOT IN (SELECT %s FROM %s.%s)",
			target, d.LocalColumn, d.LocalColumn, f.Column, f.Schema, f.Table,
		), nil
	default:
		return "", fmt.Errorf("unknown directive kind %d", d.Kind)
	}
}
