package sequence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"lablend/engine"
)

const refKey = "lablend:req:seq"

// RefCounter issues request reference codes from a Redis counter, so codes
// stay unique across replicas without a database round-trip.
type RefCounter struct {
	rdb *redis.Client
}

func NewRefCounter(rdb *redis.Client) *RefCounter { return &RefCounter{rdb: rdb} }

var _ engine.RefSource = (*RefCounter)(nil)

func (c *RefCounter) NextRef(ctx context.Context) (string, error) {
	n, err := c.rdb.Incr(ctx, refKey).Result()
	if err != nil {
		return "", fmt.Errorf("%w: reference counter: %v", engine.ErrUpstream, err)
	}
	return fmt.Sprintf("REQ-%06d", n), nil
}
