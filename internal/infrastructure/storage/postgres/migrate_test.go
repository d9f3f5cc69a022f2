package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaFiles_Ordered(t *testing.T) {
	names, err := SchemaFiles()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(names), 2)
	assert.Equal(t, "schema/001_init.sql", names[0])
	assert.Equal(t, "schema/002_idempotency.sql", names[1])
}

func TestSchemaFiles_Idempotent(t *testing.T) {
	names, err := SchemaFiles()
	require.NoError(t, err)

	for _, name := range names {
		script, err := schemaFS.ReadFile(name)
		require.NoError(t, err)
		for _, stmt := range strings.Split(string(script), ";") {
			stmt = strings.ToUpper(strings.TrimSpace(stmt))
			if strings.HasPrefix(stmt, "CREATE TABLE") || strings.HasPrefix(stmt, "CREATE INDEX") {
				assert.Contains(t, stmt, "IF NOT EXISTS", "%s: %s", name, stmt)
			}
		}
	}
}
