// Package redisstore keeps revocation records and watermarks in Redis.
//
// Each revoked credential is a string key holding a small JSON document. A sorted set
// scored by expiry (unix milliseconds) indexes those keys so PurgeExpired can find
// expired records without scanning the keyspace. The index lives outside the record
// namespace so no credential can collide with it. Watermarks are plain string keys
// holding a unix-nanosecond timestamp.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/jrsteele09/storefront-sessions/revocation"
)

const defaultPrefix = "sessions"

// Store implements revocation.Store on top of a go-redis client.
type Store struct {
	client red.UniversalClient
	prefix string
}

var _ revocation.Store = (*Store)(nil)

// New wires a Redis client into a revocation store. An empty prefix selects "sessions".
func New(client red.UniversalClient, keyPrefix string) *Store {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

type recordEnvelope struct {
	SubjectID string    `json:"subject_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Store) IsRevoked(ctx context.Context, credential string) (bool, error) {
	n, err := s.client.Exists(ctx, s.recordKey(credential)).Result()
	if err != nil {
		return false, revocation.StorageError("redis exists revoked credential", err)
	}
	return n > 0, nil
}

func (s *Store) Revoke(ctx context.Context, record revocation.Record) error {
	if record.Credential == "" {
		return fmt.Errorf("credential is required")
	}

	data, err := json.Marshal(recordEnvelope{SubjectID: record.SubjectID, ExpiresAt: record.ExpiresAt.UTC()})
	if err != nil {
		return fmt.Errorf("encode revocation record: %w", err)
	}

	// The index entry is written on every call, not only when SETNX creates the key:
	// a retry after a failed index write must still leave the record purgeable.
	// No key TTL is set; expiry is judged against the caller's clock by PurgeExpired.
	key := s.recordKey(record.Credential)
	score := float64(record.ExpiresAt.UnixMilli())
	_, err = s.client.TxPipelined(ctx, func(pipe red.Pipeliner) error {
		pipe.SetNX(ctx, key, data, 0)
		pipe.ZAdd(ctx, s.indexKey(), red.Z{Score: score, Member: key})
		return nil
	})
	if err != nil {
		return revocation.StorageError("redis revoke credential", err)
	}
	return nil
}

func (s *Store) SetWatermark(ctx context.Context, subjectID string, now time.Time) error {
	if subjectID == "" {
		return fmt.Errorf("subject id is required")
	}
	value := strconv.FormatInt(now.UnixNano(), 10)
	if err := s.client.Set(ctx, s.watermarkKey(subjectID), value, 0).Err(); err != nil {
		return revocation.StorageError("redis set watermark", err)
	}
	return nil
}

func (s *Store) GetWatermark(ctx context.Context, subjectID string) (revocation.Watermark, bool, error) {
	value, err := s.client.Get(ctx, s.watermarkKey(subjectID)).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return revocation.Watermark{}, false, nil
		}
		return revocation.Watermark{}, false, revocation.StorageError("redis get watermark", err)
	}

	nanos, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return revocation.Watermark{}, false, revocation.StorageError("decode watermark", err)
	}
	return revocation.Watermark{SubjectID: subjectID, RevokedBefore: time.Unix(0, nanos).UTC()}, true, nil
}

func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	// "(" makes the upper bound exclusive: records expiring exactly at now are kept.
	// Scores are whole milliseconds, so a record expiring within now's millisecond
	// waits for the next sweep rather than being removed early.
	keys, err := s.client.ZRangeByScore(ctx, s.indexKey(), &red.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, revocation.StorageError("redis zrangebyscore revocation index", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	members := make([]any, len(keys))
	for i, k := range keys {
		members[i] = k
	}

	var deleted *red.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe red.Pipeliner) error {
		deleted = pipe.Del(ctx, keys...)
		pipe.ZRem(ctx, s.indexKey(), members...)
		return nil
	})
	if err != nil {
		return 0, revocation.StorageError("redis purge expired records", err)
	}
	return deleted.Val(), nil
}

func (s *Store) recordKey(credential string) string {
	return s.prefix + ":revoked:" + credential
}

func (s *Store) indexKey() string {
	return s.prefix + ":revoked-index"
}

func (s *Store) watermarkKey(subjectID string) string {
	return s.prefix + ":watermark:" + subjectID
}
