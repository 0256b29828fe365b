package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meridian/oddsync/internal/store"
)

// Stream names for downstream consumers.
const (
	EdgeStream    = "edges.americanfootball_ncaaf"
	SummaryStream = "sync.summaries"
)

// maxStreamLen bounds stream growth; consumers that lag further than this
// re-read from the REST API instead.
const maxStreamLen = 10000

// RedisPublisher publishes pipeline events to Redis streams
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisherFromClient wraps an existing client. The caller owns the
// connection.
func NewRedisPublisherFromClient(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// PublishEdge publishes an edge record to the edge stream
func (rp *RedisPublisher) PublishEdge(ctx context.Context, edge *store.Edge) error {
	data, err := json.Marshal(edge)
	if err != nil {
		return err
	}

	return rp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: EdgeStream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
}

// PublishSummary publishes a run-end sync summary to the summary stream
func (rp *RedisPublisher) PublishSummary(ctx context.Context, summary interface{}) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	return rp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: SummaryStream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
}
