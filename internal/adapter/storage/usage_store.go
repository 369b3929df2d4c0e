// internal/adapter/storage/usage_store.go

package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// UsageStore resolves persisted hashtag usage counts from the
// application database. The engine only reads from it; the usage counts
// themselves are maintained by the tweet-processing pipeline.
type UsageStore struct {
	db *pgxpool.Pool
}

// NewUsageStore creates a usage-count store.
func NewUsageStore(db *pgxpool.Pool) *UsageStore {
	return &UsageStore{
		db: db,
	}
}

// UsageCounts returns usage counts for the given normalized hashtag
// names in one batched query. Names without a persisted count are absent
// from the result.
func (s *UsageStore) UsageCounts(ctx context.Context, names []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(names))
	if len(names) == 0 {
		return counts, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT name, usage_count FROM hashtags WHERE name = ANY($1)`,
		names,
	)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var count int64
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("error scanning usage count: %w", err)
		}
		counts[name] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage counts: %w", err)
	}

	return counts, nil
}
