package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/shrimpsizemoose/eduportal/internal/models"
	"github.com/shrimpsizemoose/eduportal/internal/store"
)

// RedisStore keeps the document as a plain string value.
type RedisStore struct {
	client *goredis.Client
	key    string
}

func NewRedisStore(config *store.DBConfig) (*RedisStore, error) {
	opt, err := goredis.ParseURL(config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := goredis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client, key: config.Key()}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Load(ctx context.Context) (*models.Document, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, store.ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", s.key, err)
	}
	return store.Decode(data)
}

func (s *RedisStore) Save(ctx context.Context, doc *models.Document) error {
	data, err := store.Encode(doc)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save document %s: %w", s.key, err)
	}
	return nil
}
