package counters

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const (
	KeyFilesCount = "sc:files" // HASH. domain -> stored file count
	KeyBytesTotal = "sc:bytes" // HASH. domain -> stored byte total
)

// countersRepository mirrors per-domain write counters to redis so crawl
// progress can be watched without scanning the storage trees. The sidecar
// stays the durable copy; this is an operational convenience.
type countersRepository struct {
	cl  *redis.Client
	log *slog.Logger
}

func NewCountersRepository(cl *redis.Client, log *slog.Logger) *countersRepository {
	return &countersRepository{
		cl:  cl,
		log: log.With(slog.String("item", "CountersRepository")),
	}
}

func (r *countersRepository) Record(ctx context.Context, domain string, size int64) error {
	pipe := r.cl.Pipeline()
	pipe.HIncrBy(ctx, KeyFilesCount, domain, 1)
	pipe.HIncrBy(ctx, KeyBytesTotal, domain, size)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cannot increment counters for domain %s: %w", domain, err)
	}

	return nil
}
