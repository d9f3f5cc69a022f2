package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"physio/pkg/logger"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// SchemaFiles returns the embedded schema scripts in apply order.
func SchemaFiles() ([]string, error) {
	names, err := fs.Glob(schemaFS, "schema/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Migrate applies every embedded schema script in one transaction.
// Scripts are idempotent (IF NOT EXISTS), so Migrate may run on every start.
func Migrate(ctx context.Context, txm *TxManager) error {
	names, err := SchemaFiles()
	if err != nil {
		return fmt.Errorf("list schema files: %w", err)
	}

	return txm.RunInTransaction(ctx, func(ctx context.Context) error {
		q := txm.GetQuerier(ctx)
		for _, name := range names {
			script, err := schemaFS.ReadFile(name)
			if err != nil {
				return fmt.Errorf("read %s: %w", name, err)
			}
			if _, err := q.Exec(ctx, string(script)); err != nil {
				return fmt.Errorf("apply %s: %w", name, err)
			}
			logger.Debug(ctx, "schema applied", "file", name)
		}
		return nil
	})
}
