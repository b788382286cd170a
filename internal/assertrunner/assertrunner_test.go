package assertrunner

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlscheduler/sqlscheduler/internal/sqlerr"
	"github.com/sqlscheduler/sqlscheduler/internal/task"
)

type fakeRow struct {
	count int64
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.count
	return nil
}

type fakeConn struct {
	lastQuery string
	row       fakeRow
}

func (c *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (c *fakeConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	c.lastQuery = sql
	return c.row
}

func (c *fakeConn) Release() {}

func TestRun_GranularityBuildsGroupByQuery(t *testing.T) {
	conn := &fakeConn{row: fakeRow{count: 0}}
	d := task.TestDirective{Kind: task.Granularity, Columns: []string{"order_id", "line_no"}}

	err := Run(context.Background(), conn, task.ID{Schema: "s", Table: "a"}, "s", "a", d)
	require.NoError(t, err)
	assert.Contains(t, conn.lastQuery, "GROUP BY order_id, line_no")
	assert.Contains(t, conn.lastQuery, "HAVING COUNT(*) > 1")
}

func TestRun_NotNullBuildsOrConditions(t *testing.T) {
	conn := &fakeConn{row: fakeRow{count: 0}}
	d := task.TestDirective{Kind: task.NotNull, Columns: []string{"id", "customer_id"}}

	err := Run(context.Background(), conn, task.ID{Schema: "s", Table: "a"}, "s", "a", d)
	require.NoError(t, err)
	assert.Contains(t, conn.lastQuery, "(id IS NULL) OR (customer_id IS NULL)")
}

func TestRun_RelationshipBuildsNotInQuery(t *testing.T) {
	conn := &fakeConn{row: fakeRow{count: 0}}
	d := task.TestDirective{
		Kind:        task.Relationship,
		LocalColumn: "customer_id",
		Foreign:     task.ForeignRef{Schema: "raw", Table: "customers", Column: "id"},
	}

	err := Run(context.Background(), conn, task.ID{Schema: "s", Table: "a"}, "s", "a", d)
	require.NoError(t, err)
	assert.Contains(t, conn.lastQuery, "NOT IN (SELECT id FROM raw.customers)")
}

func TestRun_NonZeroCountIsTestFailure(t *testing.T) {
	conn := &fakeConn{row: fakeRow{count: 3}}
	d := task.TestDirective{Kind: task.NotNull, Columns: []string{"id"}}

	err := Run(context.Background(), conn, task.ID{Schema: "s", Table: "a"}, "s", "a", d)
	require.Error(t, err)
	var tf sqlerr.TestFailure
	require.ErrorAs(t, err, &tf)
	assert.Equal(t, int64(3), tf.Count)
}
