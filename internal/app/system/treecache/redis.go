package treecache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis is a Cache shared by every instance connected to the same server.
// Keys are namespaced by prefix; each tag is a Redis set of member keys.
type Redis struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis wraps an existing client. A ttl <= 0 uses DefaultTTL.
func NewRedis(rdb *redis.Client, prefix string, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if prefix == "" {
		prefix = "organigram"
	}
	return &Redis{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(k string) string    { return r.prefix + ":cache:" + k }
func (r *Redis) tagKey(t string) string { return r.prefix + ":tag:" + t }
func (r *Redis) versionKey() string     { return r.prefix + ":version" }

// Values are stored as "<version>\n<payload>".
func pin(version string, val []byte) []byte {
	out := make([]byte, 0, len(version)+1+len(val))
	out = append(out, version...)
	out = append(out, '\n')
	return append(out, val...)
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	vals, err := r.rdb.MGet(ctx, r.key(key), r.versionKey()).Result()
	if err != nil {
		return nil, false, err
	}
	raw, okRaw := vals[0].(string)
	current, okVer := vals[1].(string)
	if !okRaw || !okVer {
		return nil, false, nil
	}
	version, payload, found := strings.Cut(raw, "\n")
	if !found || version != current {
		return nil, false, nil
	}
	return []byte(payload), true, nil
}

func (r *Redis) Set(ctx context.Context, key, version string, val []byte, tags ...string) (bool, error) {
	if version == "" {
		return false, nil
	}
	stored := false
	err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, r.versionKey()).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.key(key), pin(version, val), r.ttl)
			for _, t := range tags {
				pipe.SAdd(ctx, r.tagKey(t), key)
				pipe.Expire(ctx, r.tagKey(t), r.ttl)
			}
			return nil
		})
		stored = err == nil
		return err
	}, r.versionKey())
	if errors.Is(err, redis.TxFailedErr) {
		// The version rotated between the check and the write.
		return false, nil
	}
	return stored, err
}

func (r *Redis) Invalidate(ctx context.Context, key string) error {
	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, r.key(key))
	pipe.Set(ctx, r.versionKey(), uuid.NewString(), 0)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Redis) InvalidateTag(ctx context.Context, tag string) error {
	members, err := r.rdb.SMembers(ctx, r.tagKey(tag)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	pipe := r.rdb.TxPipeline()
	for _, m := range members {
		pipe.Del(ctx, r.key(m))
	}
	pipe.Del(ctx, r.tagKey(tag))
	pipe.Set(ctx, r.versionKey(), uuid.NewString(), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Redis) Version(ctx context.Context) (string, error) {
	v, err := r.rdb.Get(ctx, r.versionKey()).Result()
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, redis.Nil) {
		return "", err
	}
	// First reader seeds the token; concurrent seeders agree via SETNX.
	if err := r.rdb.SetNX(ctx, r.versionKey(), uuid.NewString(), 0).Err(); err != nil {
		return "", err
	}
	return r.rdb.Get(ctx, r.versionKey()).Result()
}
