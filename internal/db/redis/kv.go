package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/shopper/internal/db"
)

// mgetChunk bounds the number of GETs pipelined in one round-trip.
const mgetChunk = 256

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := s.b().Get().Key(key).Build()
	data, err := s.do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// MGet fetches many keys with pipelined GETs, mgetChunk per round-trip.
// Missing keys come back as nil entries.
func (s *Store) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	out := make([][]byte, 0, len(keys))
	for offset := 0; offset < len(keys); offset += mgetChunk {
		chunk := keys[offset:min(offset+mgetChunk, len(keys))]

		cmds := make(rueidis.Commands, len(chunk))
		for i, key := range chunk {
			cmds[i] = s.b().Get().Key(key).Build()
		}

		for i, res := range s.client.DoMulti(ctx, cmds...) {
			data, err := res.AsBytes()
			if err != nil {
				if rueidis.IsRedisNil(err) {
					out = append(out, nil)
					continue
				}
				return nil, &db.Error{Op: db.OpMGet, Err: fmt.Errorf("key %s: %w", chunk[i], err)}
			}
			out = append(out, data)
		}
	}
	return out, nil
}

// Set stores a value at the given key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	cmd := s.b().Set().Key(key).Value(rueidis.BinaryString(value)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// SetWithTTL stores a value with an expiration. A non-positive ttl stores without expiry.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return s.Set(ctx, key, value)
	}
	cmd := s.b().Set().Key(key).Value(rueidis.BinaryString(value)).Ex(ttl).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}
