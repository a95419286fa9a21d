package clients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"registry-report/pkg/cache/redis"

	goredis "github.com/redis/go-redis/v9"
)

// ErrReportNotFound is returned when a report record has expired or never existed.
var ErrReportNotFound = errors.New("report record not found")

type RedisConfig struct {
	redis.Config
	Prefix string
}

// RedisClient stores report history. Each report is a JSON value under
// reports:<id>, and each user owns a set report_ids:<user> of ids. Both keys
// share the record TTL so a user's history disappears with their last report.
type RedisClient struct {
	rdb    *goredis.Client
	prefix string
}

func NewRedisClient(ctx context.Context, cfg RedisConfig) (*RedisClient, error) {
	rdb, err := redis.Open(ctx, cfg.Config)
	if err != nil {
		return nil, err
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "registry_report:"
	}
	return &RedisClient{rdb: rdb, prefix: prefix}, nil
}

func (c *RedisClient) Close() {
	if c == nil || c.rdb == nil {
		return
	}
	_ = c.rdb.Close()
}

func (c *RedisClient) reportKey(id string) string {
	return c.prefix + "reports:" + id
}

func (c *RedisClient) userKey(userID int64) string {
	return fmt.Sprintf("%sreport_ids:%d", c.prefix, userID)
}

// PutReport writes the record and indexes it for the user in one transaction.
func (c *RedisClient) PutReport(ctx context.Context, userID int64, id string, payload []byte, ttl time.Duration) error {
	index := c.userKey(userID)
	_, err := c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, c.reportKey(id), payload, ttl)
		pipe.SAdd(ctx, index, id)
		pipe.Expire(ctx, index, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("put report %s: %w", id, err)
	}
	return nil
}

func (c *RedisClient) GetReport(ctx context.Context, id string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, c.reportKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", id, err)
	}
	return data, nil
}

func (c *RedisClient) ReportIDs(ctx context.Context, userID int64) ([]string, error) {
	ids, err := c.rdb.SMembers(ctx, c.userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list report ids: %w", err)
	}
	return ids, nil
}

// ForgetReports drops ids from the user's index. The records themselves are
// left to expire.
func (c *RedisClient) ForgetReports(ctx context.Context, userID int64, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]any, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	return c.rdb.SRem(ctx, c.userKey(userID), members...).Err()
}
