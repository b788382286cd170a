package directive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlscheduler/sqlscheduler/internal/task"
)

func TestParse_GranularityAndNotNull(t *testing.T) {
	sql := `/*
granularity: order_id, line_no
not_null: order_id, customer_id
*/
INSERT INTO s.a SELECT 1;`

	directives, err := Parse("a.sql", sql)
	require.NoError(t, err)
	require.Len(t, directives, 2)

	assert.Equal(t, task.Granularity, directives[0].Kind)
	assert.Equal(t, []string{"order_id", "line_no"}, directives[0].Columns)

	assert.Equal(t, task.NotNull, directives[1].Kind)
	assert.Equal(t, []string{"order_id", "customer_id"}, directives[1].Columns)
}

func TestParse_Relationship(t *testing.T) {
	sql := `/* relationship: customer_id = raw.customers.id */
INSERT INTO s.a SELECT 1;`

	directives, err := Parse("a.sql", sql)
	require.NoError(t, err)
	require.Len(t, directives, 1)

	d := directives[0]
	assert.Equal(t, task.Relationship, d.Kind)
	assert.Equal(t, "customer_id", d.LocalColumn)
	assert.Equal(t, task.ForeignRef{Schema: "raw", Table: "customers", Column: "id"}, d.Foreign)
}

func TestParse_OrderIsPreserved(t *testing.T) {
	sql := `/*
not_null: a
granularity: b
relationship: c = s.t.c
*/
SELECT 1;`

	directives, err := Parse("a.sql", sql)
	require.NoError(t, err)
	require.Len(t, directives, 3)
	assert.Equal(t, task.NotNull, directives[0].Kind)
	assert.Equal(t, task.Granularity, directives[1].Kind)
	assert.Equal(t, task.Relationship, directives[2].Kind)
}

func TestParse_UnrelatedCommentsIgnored(t *testing.T) {
	sql := `/* this is just documentation, not a directive */
SELECT 1;`

	directives, err := Parse("a.sql", sql)
	require.NoError(t, err)
	assert.Empty(t, directives)
}

func TestParse_MalformedGranularityIsLoadError(t *testing.T) {
	sql := `/* granularity: , */
SELECT 1;`
	_, err := Parse("a.sql", sql)
	assert.Error(t, err)
}

func TestParse_MalformedRelationshipIsLoadError(t *testing.T) {
	sql := `/* relationship: customer_id raw.customers.id */
SELECT 1;`
	_, err := Parse("a.sql", sql)
	assert.Error(t, err)
}
