package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "studypact/internal/platform/errors"
)

// RedisStore keeps each document under one key and publishes every write on
// a channel of the same name, which is what Watch subscribes to.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "studypact"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// DialRedis opens a client and verifies the server answers.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

func (s *RedisStore) redisKey(key Key) string {
	return s.prefix + ":" + key.String()
}

func (s *RedisStore) Get(ctx context.Context, key Key, v any) error {
	if err := key.Validate(); err != nil {
		return err
	}
	payload, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("redis get %s: %w", key.Kind, err)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode %s: %w", key.Kind, err)
	}
	return nil
}

func (s *RedisStore) Put(ctx context.Context, key Key, v any) error {
	if err := key.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key.Kind, err)
	}
	name := s.redisKey(key)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, name, payload, 0)
	pipe.Publish(ctx, name, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis put %s: %w", key.Kind, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	name := s.redisKey(key)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, name)
	pipe.Publish(ctx, name, "")
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete %s: %w", key.Kind, err)
	}
	return nil
}

func (s *RedisStore) Watch(ctx context.Context, key Key, fn func(Change)) (func(), error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: watch callback is required", apperrors.ErrInvalidInput)
	}
	sub := s.client.Subscribe(ctx, s.redisKey(key))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", key.Kind, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				change := Change{Key: key, At: time.Now().UTC()}
				if msg.Payload == "" {
					change.Deleted = true
				} else {
					change.Data = []byte(msg.Payload)
				}
				fn(change)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			_ = sub.Close()
			<-done
		})
	}, nil
}
