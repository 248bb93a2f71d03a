package earnings

import "context"

// Store is the durable leaderboard store the cache writes behind to.
type Store interface {
	// Upsert inserts the record or replaces the stored copy keyed by UserID.
	Upsert(ctx context.Context, rec Record) error
	// FetchAll returns every stored record, used to rehydrate the cache.
	FetchAll(ctx context.Context) ([]Record, error)
}

// BatchStore is implemented by stores that can write several records in one
// round trip. A failed batch is retried record by record so one bad record
// does not hold back the rest.
type BatchStore interface {
	Store
	UpsertBatch(ctx context.Context, recs []Record) error
}
