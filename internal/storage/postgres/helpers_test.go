// Package postgres provides a PostgreSQL implementation of storage interfaces.
// This file contains test helpers only available during testing.
package postgres

import (
	"context"
	"fmt"
)

// TruncateForTest removes all rows from the lexicon table.
func (s *LexiconStore) TruncateForTest(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "TRUNCATE TABLE lexicon_entries")
	if err != nil {
		return fmt.Errorf("postgres: failed to truncate lexicon_entries: %w", err)
	}
	return nil
}
