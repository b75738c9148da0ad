package redis

import (
	"context"
	"fmt"
	"time"

	"fotomagic-pro/internal/domain"
	"fotomagic-pro/internal/domain/ports/repository"
)

// Ensure the adapter implements the port interface.
var _ repository.SessionRepository = (*SessionRepo)(nil)

// SessionRepo keeps each browser session's activated code in Redis.
type SessionRepo struct {
	client *Client
	ttl    time.Duration
}

func NewSessionRepo(client *Client, ttl time.Duration) repository.SessionRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionRepo{client: client, ttl: ttl}
}

func (s *SessionRepo) sessionKey(sessionID string) string {
	return fmt.Sprintf("active_code:%s", sessionID)
}

func (s *SessionRepo) ActivateCode(ctx context.Context, sessionID, code string) error {
	return s.client.Set(ctx, s.sessionKey(sessionID), code, s.ttl)
}

func (s *SessionRepo) ActiveCode(ctx context.Context, sessionID string) (string, error) {
	code, err := s.client.Get(ctx, s.sessionKey(sessionID))
	if err != nil {
		if IsNil(err) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return code, nil
}

func (s *SessionRepo) DeactivateCode(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.sessionKey(sessionID))
}
