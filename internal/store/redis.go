package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/rate-limiter-go/internal/ratelimit"
)

// admitScript collapses the whole check-and-increment into one atomic
// round trip. The expiry is set only when INCR created the key, so the
// window stays anchored at the first admission and is never extended.
// Denied requests read but never write.
var admitScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
local count = 0
if current then
	count = tonumber(current)
	if count == nil then
		return redis.error_reply('counter is not an integer')
	end
end
local limit = tonumber(ARGV[1])
if count >= limit then
	return {0, count, redis.call('PTTL', KEYS[1])}
end
count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return {1, count, redis.call('PTTL', KEYS[1])}
`)

// RedisCounterStore is a Redis implementation of ratelimit.CounterStore,
// safe to share across any number of service instances.
type RedisCounterStore struct {
	client *redis.Client
}

// NewRedisCounterStore creates a Redis-backed counter store.
func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

func (s *RedisCounterStore) Admit(
	ctx context.Context, key string, limit int64, window time.Duration,
) (ratelimit.Admission, error) {
	res, err := admitScript.Run(ctx, s.client,
		[]string{key}, limit, window.Milliseconds()).Slice()
	if err != nil {
		return ratelimit.Admission{}, wrapRedisErr("admit", err)
	}

	if len(res) != 3 {
		return ratelimit.Admission{}, fmt.Errorf(
			"%w: admit script returned %d values", ratelimit.ErrStoreUnavailable, len(res))
	}

	admitted, ok1 := res[0].(int64)
	count, ok2 := res[1].(int64)
	pttl, ok3 := res[2].(int64)

	if !ok1 || !ok2 || !ok3 {
		return ratelimit.Admission{}, fmt.Errorf(
			"%w: admit script returned unexpected types", ratelimit.ErrStoreUnavailable)
	}

	return ratelimit.Admission{
		Admitted: admitted == 1,
		Count:    count,
		ResetIn:  pttlToDuration(pttl),
	}, nil
}

func (s *RedisCounterStore) Count(ctx context.Context, key string) (int64, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}

		return 0, wrapRedisErr("get", err)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil || count < 0 {
		return 0, fmt.Errorf("%w: key %q holds %q", ratelimit.ErrCorruptState, key, val)
	}

	return count, nil
}

func (s *RedisCounterStore) TimeToLive(ctx context.Context, key string) (time.Duration, bool, error) {
	d, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, false, wrapRedisErr("pttl", err)
	}

	// PTTL reports -2 for a missing key and -1 for a key without expiry;
	// neither is an active window.
	if d < 0 {
		return 0, false, nil
	}

	return d, true, nil
}

func pttlToDuration(pttl int64) time.Duration {
	if pttl < 0 {
		return 0
	}

	return time.Duration(pttl) * time.Millisecond
}

func wrapRedisErr(op string, err error) error {
	if strings.Contains(err.Error(), "not an integer") {
		return fmt.Errorf("%w: %s: %v", ratelimit.ErrCorruptState, op, err)
	}

	return fmt.Errorf("%w: %s: %v", ratelimit.ErrStoreUnavailable, op, err)
}

// Compile-time check.
var _ ratelimit.CounterStore = (*RedisCounterStore)(nil)
