package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps countdown records in a Redis hash keyed by event id,
// with two secondary indexes: a sorted set on the target instant and a set
// of active event ids. The indexes are maintained for range queries but the
// core evaluation path only uses GetAll.
type RedisStore struct {
	client  *redis.Client
	name    string
	version int
}

// OpenRedis opens the store at (name, version). A missing or older
// versioned keyspace is (re)initialized: the version marker is bumped and
// records from the previous version are dropped rather than migrated,
// since records are rebuilt from the relational events on the next write.
func OpenRedis(ctx context.Context, client *redis.Client, name string, version int) (*RedisStore, error) {
	s := &RedisStore{client: client, name: name, version: version}

	stored, err := client.Get(ctx, s.versionKey()).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err == redis.Nil || stored != strconv.Itoa(version) {
		if err := s.migrate(ctx, stored); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *RedisStore) versionKey() string {
	return s.name + ":version"
}

func (s *RedisStore) recordsKey() string {
	return fmt.Sprintf("%s:v%d:records", s.name, s.version)
}

func (s *RedisStore) byDateKey() string {
	return fmt.Sprintf("%s:v%d:by_date", s.name, s.version)
}

func (s *RedisStore) activeKey() string {
	return fmt.Sprintf("%s:v%d:active", s.name, s.version)
}

func (s *RedisStore) migrate(ctx context.Context, previous string) error {
	pipe := s.client.TxPipeline()
	if previous != "" {
		if old, err := strconv.Atoi(previous); err == nil {
			pipe.Del(ctx,
				fmt.Sprintf("%s:v%d:records", s.name, old),
				fmt.Sprintf("%s:v%d:by_date", s.name, old),
				fmt.Sprintf("%s:v%d:active", s.name, old),
			)
		}
	}
	pipe.Set(ctx, s.versionKey(), strconv.Itoa(s.version), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Put(ctx context.Context, record *Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.recordsKey(), record.ID.String(), payload)
	pipe.ZAdd(ctx, s.byDateKey(), redis.Z{
		Score:  float64(record.Event.Date.UnixMilli()),
		Member: record.ID.String(),
	})
	if record.Event.IsActive {
		pipe.SAdd(ctx, s.activeKey(), record.ID.String())
	} else {
		pipe.SRem(ctx, s.activeKey(), record.ID.String())
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	payload, err := s.client.HGet(ctx, s.recordsKey(), id.String()).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var record Record
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &record, nil
}

func (s *RedisStore) GetAll(ctx context.Context) ([]*Record, error) {
	payloads, err := s.client.HGetAll(ctx, s.recordsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	records := make([]*Record, 0, len(payloads))
	for id, payload := range payloads {
		var record Record
		if err := json.Unmarshal([]byte(payload), &record); err != nil {
			// Skip corrupt entries rather than failing the whole cycle
			continue
		}
		if record.ID == uuid.Nil {
			if parsed, err := uuid.Parse(id); err == nil {
				record.ID = parsed
			}
		}
		records = append(records, &record)
	}
	return records, nil
}

func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	pipe := s.client.TxPipeline()
	pipe.HDel(ctx, s.recordsKey(), id.String())
	pipe.ZRem(ctx, s.byDateKey(), id.String())
	pipe.SRem(ctx, s.activeKey(), id.String())

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	// The client is shared with the broker; the owner closes it.
	return nil
}
