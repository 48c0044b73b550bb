package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/shrimpsizemoose/eduportal/internal/models"
)

const (
	timeFormat    = "2006-01-02 15:04:05"
	sessionKeyTpl = "session:%s" // session:${token}
)

var ErrSessionNotFound = errors.New("session not found")

type SessionManager struct {
	redis *redis.Client
	ttl   time.Duration
	now   func() time.Time
}

func NewSessionManager(redis *redis.Client, ttl time.Duration) *SessionManager {
	return &SessionManager{redis: redis, ttl: ttl, now: time.Now}
}

func sessionKey(token string) string {
	return fmt.Sprintf(sessionKeyTpl, token)
}

func (sm *SessionManager) Create(ctx context.Context, user *models.User) (*models.Session, error) {
	token := uuid.NewString()
	key := sessionKey(token)
	now := sm.now().UTC()

	pipe := sm.redis.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"user_id":               user.ID,
		"role":                  string(user.Type),
		"request_count":         0,
		"last_request_dttm_utc": now.Format(timeFormat),
		"created_dttm_utc":      now.Format(timeFormat),
	})
	if sm.ttl > 0 {
		pipe.Expire(ctx, key, sm.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &models.Session{
		Token:           token,
		UserID:          user.ID,
		Role:            user.Type,
		LastRequestTime: now.Truncate(time.Second),
		CreatedTime:     now.Truncate(time.Second),
	}, nil
}

// Touch looks up a session and records one more request against it. Every
// touch extends the session lifetime.
func (sm *SessionManager) Touch(ctx context.Context, token string) (*models.Session, error) {
	key := sessionKey(token)

	exists, err := sm.redis.Exists(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check session: %w", err)
	}
	if exists == 0 {
		return nil, ErrSessionNotFound
	}

	pipe := sm.redis.Pipeline()
	pipe.HIncrBy(ctx, key, "request_count", 1)
	pipe.HSet(ctx, key, "last_request_dttm_utc", sm.now().UTC().Format(timeFormat))
	if sm.ttl > 0 {
		pipe.Expire(ctx, key, sm.ttl)
	}
	values := pipe.HGetAll(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to update session stats: %w", err)
	}

	// The key can expire between EXISTS and the pipeline, leaving a hash
	// recreated by HINCRBY with only the counters in it.
	if _, ok := values.Val()["user_id"]; !ok {
		sm.redis.Del(ctx, key)
		return nil, ErrSessionNotFound
	}
	return parseSession(token, values.Val())
}

func (sm *SessionManager) Revoke(ctx context.Context, token string) error {
	return sm.redis.Del(ctx, sessionKey(token)).Err()
}

func (sm *SessionManager) Close() error {
	if sm.redis != nil {
		return sm.redis.Close()
	}
	return nil
}

func parseSession(token string, values map[string]string) (*models.Session, error) {
	if _, ok := values["user_id"]; !ok {
		return nil, ErrSessionNotFound
	}
	userID, err := strconv.Atoi(values["user_id"])
	if err != nil {
		return nil, fmt.Errorf("corrupt session %s: %w", token, err)
	}

	lastReqTime, _ := time.Parse(timeFormat, values["last_request_dttm_utc"])
	createdTime, _ := time.Parse(timeFormat, values["created_dttm_utc"])
	reqCount, _ := strconv.Atoi(values["request_count"])

	return &models.Session{
		Token:           token,
		UserID:          userID,
		Role:            models.Role(values["role"]),
		RequestCount:    reqCount,
		LastRequestTime: lastReqTime,
		CreatedTime:     createdTime,
	}, nil
}
