// internal/app/auth.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/eduportal/internal/models"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Auth resolves the caller of a request. With auth enabled callers present a
// bearer token issued by Login; otherwise they name themselves through the
// user id header.
type Auth struct {
	enabled      bool
	sessions     *SessionManager
	tokenHeader  string
	userIDHeader string
}

func NewAuth(config *Config) (*Auth, error) {
	if !config.Server.EnableAuth {
		return &Auth{enabled: false, userIDHeader: config.API.UserIDHeader}, nil
	}

	opt, err := redis.ParseURL(config.Auth.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl, err := config.SessionTTL()
	if err != nil {
		client.Close()
		return nil, err
	}

	return NewSessionAuth(NewSessionManager(client, ttl), config), nil
}

func NewSessionAuth(sessions *SessionManager, config *Config) *Auth {
	return &Auth{
		enabled:      true,
		sessions:     sessions,
		tokenHeader:  config.Auth.TokenHeader,
		userIDHeader: config.API.UserIDHeader,
	}
}

func (a *Auth) Enabled() bool {
	return a.enabled
}

func (a *Auth) Close() error {
	if a.sessions != nil {
		return a.sessions.Close()
	}
	return nil
}

// Issue opens a session for the user. It returns an empty token when auth is
// disabled.
func (a *Auth) Issue(ctx context.Context, user *models.User) (string, error) {
	if !a.enabled {
		return "", nil
	}
	session, err := a.sessions.Create(ctx, user)
	if err != nil {
		return "", err
	}
	logger.Debug.Printf("Opened session for user %d (%s)", user.ID, user.Type)
	return session.Token, nil
}

func (a *Auth) Revoke(ctx context.Context, r *http.Request) error {
	if !a.enabled {
		return nil
	}
	token, err := a.bearerToken(r)
	if err != nil {
		return err
	}
	return a.sessions.Revoke(ctx, token)
}

// UserID identifies the caller of the request.
func (a *Auth) UserID(r *http.Request) (int, error) {
	if !a.enabled {
		id, err := ParseUserID(r.Header.Get(a.userIDHeader))
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
		}
		return id, nil
	}

	token, err := a.bearerToken(r)
	if err != nil {
		return 0, err
	}

	session, err := a.sessions.Touch(r.Context(), token)
	if errors.Is(err, ErrSessionNotFound) {
		logger.Debug.Printf("Session not found for token %s", token)
		return 0, fmt.Errorf("%w: session expired or unknown", ErrUnauthenticated)
	}
	if err != nil {
		logger.Debug.Printf("Redis error: %v", err)
		return 0, fmt.Errorf("redis error: %w", err)
	}
	return session.UserID, nil
}

func (a *Auth) bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get(a.tokenHeader)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", fmt.Errorf("%w: invalid authorization header format", ErrUnauthenticated)
	}
	return strings.TrimPrefix(authHeader, "Bearer "), nil
}
