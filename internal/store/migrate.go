package store

import (
	"context"
	"fmt"
	"sort"

	schemasql "stagefinder/internal/store/sql"
)

// ApplySchema executes the embedded schema files in lexical order. All
// statements are idempotent, so this is safe to run on every startup.
func (s *Store) ApplySchema(ctx context.Context) error {
	entries, err := schemasql.Content.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("read embedded schema: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		ddl, err := schemasql.Content.ReadFile("schema/" + name)
		if err != nil {
			return fmt.Errorf("read schema file %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(ddl)); err != nil {
			return fmt.Errorf("apply schema file %s: %w", name, err)
		}
	}
	return nil
}
