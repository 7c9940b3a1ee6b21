package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// MaxChatMessages caps the stored transcript; older lines are trimmed.
const MaxChatMessages = 50

// RedisStore keeps records as JSON strings and transcripts as lists, both with the same TTL.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisStore returns a redis-backed store.
func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func recordKey(id string) string { return fmt.Sprintf("growth:session:%s", id) }
func chatKey(id string) string   { return fmt.Sprintf("growth:chat:%s", id) }

// Get returns ErrNotFound for unknown or expired ids.
func (s *RedisStore) Get(ctx context.Context, id string) (*Record, error) {
	raw, err := s.client.Get(ctx, recordKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var record Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("session: decode record: %w", err)
	}
	return &record, nil
}

// Save replaces the record and refreshes the transcript TTL.
func (s *RedisStore) Save(ctx context.Context, record Record) error {
	if record.ID == "" {
		return errors.New("session: record id is required")
	}
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, recordKey(record.ID), data, s.ttl)
		pipe.Expire(ctx, chatKey(record.ID), s.ttl)
		return nil
	})
	return err
}

// Delete drops the record and the transcript.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, recordKey(id), chatKey(id)).Err()
}

// AppendChat pushes messages and keeps only the newest MaxChatMessages.
func (s *RedisStore) AppendChat(ctx context.Context, id string, msgs ...ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return err
		}
		values = append(values, data)
	}
	key := chatKey(id)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		pipe.LTrim(ctx, key, -MaxChatMessages, -1)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	return err
}

// Chat returns the transcript oldest first.
func (s *RedisStore) Chat(ctx context.Context, id string) ([]ChatMessage, error) {
	raw, err := s.client.LRange(ctx, chatKey(id), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]ChatMessage, 0, len(raw))
	for _, item := range raw {
		var m ChatMessage
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, fmt.Errorf("session: decode chat message: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}
