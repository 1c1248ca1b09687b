package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/neon-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/neon-tictactoe/internal/tictactoe"
)

const sessionKeyPrefix = "session:"

// SessionRepository keeps snapshots of running sessions. Snapshots expire, so
// scores never outlive the session they belong to.
type SessionRepository interface {
	Save(ctx context.Context, id string, session tictactoe.Session, ttl time.Duration) error
	GetByID(ctx context.Context, id string) (tictactoe.Session, error)
	DeleteByID(ctx context.Context, id string) error
}

type dbSession struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) SessionRepository {
	return &dbSession{
		client: client,
	}
}

func (that *dbSession) Save(ctx context.Context, id string, session tictactoe.Session, ttl time.Duration) error {
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("could not marshal session: %w", err)
	}

	if err = that.client.Set(ctx, sessionKeyPrefix+id, sessionJSON, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}

	return nil
}

func (that *dbSession) GetByID(ctx context.Context, id string) (tictactoe.Session, error) {
	response, err := that.client.Get(ctx, sessionKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return tictactoe.Session{}, apperror.ErrSessionNotFound
	}

	if err != nil {
		return tictactoe.Session{}, fmt.Errorf("failed to get session by id: %w", err)
	}

	var session tictactoe.Session
	if err = json.Unmarshal([]byte(response), &session); err != nil {
		return tictactoe.Session{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return session, nil
}

func (that *dbSession) DeleteByID(ctx context.Context, id string) error {
	deleted, err := that.client.Del(ctx, sessionKeyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session by id: %w", err)
	}

	if deleted == 0 {
		return apperror.ErrSessionNotFound
	}

	return nil
}
