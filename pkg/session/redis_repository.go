package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisSessionPrefix   = "ecsauth:session:"
	redisUserIndexPrefix = "ecsauth:user_sessions:"
	redisCASRetries      = 4
)

// RedisSessionRepository implements SessionRepository on Redis. Each session
// is a JSON value under its own key plus a per-user index set. Conditional
// mutations (touch, terminate) run inside WATCH transactions and retry on
// conflict, so the active-state check and the write are atomic.
type RedisSessionRepository struct {
	client *redis.Client
}

// NewRedisSessionRepository creates a new Redis session repository
func NewRedisSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{
		client: client,
	}
}

func sessionKey(id string) string {
	return redisSessionPrefix + id
}

func userIndexKey(userID uuid.UUID) string {
	return redisUserIndexPrefix + userID.String()
}

// Create adds a new session row
func (r *RedisSessionRepository) Create(ctx context.Context, session Session) (Session, error) {
	data, err := json.Marshal(session)
	if err != nil {
		return Session{}, fmt.Errorf("failed to encode session: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.ID), data, 0)
	pipe.SAdd(ctx, userIndexKey(session.UserID), session.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return Session{}, fmt.Errorf("failed to store session: %w", err)
	}
	return session, nil
}

// GetByID returns a session by ID
func (r *RedisSessionRepository) GetByID(ctx context.Context, id string) (Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, fmt.Errorf("failed to get session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return Session{}, fmt.Errorf("failed to decode session: %w", err)
	}
	return session, nil
}

func (r *RedisSessionRepository) sessionsForUser(ctx context.Context, userID uuid.UUID) ([]Session, error) {
	ids, err := r.client.SMembers(ctx, userIndexKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read user session index: %w", err)
	}

	var sessions []Session
	for _, id := range ids {
		session, err := r.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				// Dangling index entry left by a purge; drop it.
				r.client.SRem(ctx, userIndexKey(userID), id)
				continue
			}
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// ListActiveByUser returns active sessions for a user, oldest login first
func (r *RedisSessionRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]Session, error) {
	sessions, err := r.sessionsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var active []Session
	for _, s := range sessions {
		if s.Active {
			active = append(active, s)
		}
	}
	sortByLoginAsc(active)
	return active, nil
}

// ListByUser returns all sessions for a user, newest login first
func (r *RedisSessionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Session, error) {
	sessions, err := r.sessionsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sortByLoginDesc(sessions)
	return sessions, nil
}

// mutateIfActive runs a WATCH-guarded read-modify-write on one session key.
// mutate returns the updated session, or false to leave the row untouched.
func (r *RedisSessionRepository) mutateIfActive(ctx context.Context, id string, mutate func(Session) (Session, bool)) (bool, error) {
	key := sessionKey(id)

	for i := 0; i < redisCASRetries; i++ {
		var applied bool

		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			var session Session
			if err := json.Unmarshal(data, &session); err != nil {
				return fmt.Errorf("failed to decode session: %w", err)
			}

			updated, ok := mutate(session)
			if !ok {
				return nil
			}

			encoded, err := json.Marshal(updated)
			if err != nil {
				return fmt.Errorf("failed to encode session: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, 0)
				return nil
			})
			if err != nil {
				return err
			}
			applied = true
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return false, nil
			}
			return false, err
		}
		return applied, nil
	}

	return false, fmt.Errorf("session %s: too many concurrent updates", id)
}

// Touch updates last_activity on an active session
func (r *RedisSessionRepository) Touch(ctx context.Context, id string, now time.Time) (bool, error) {
	return r.mutateIfActive(ctx, id, func(s Session) (Session, bool) {
		if !s.Active {
			return s, false
		}
		s.LastActivity = now
		return s, true
	})
}

// Terminate ends a session; false when missing or already terminated
func (r *RedisSessionRepository) Terminate(ctx context.Context, id string, now time.Time) (bool, error) {
	return r.mutateIfActive(ctx, id, func(s Session) (Session, bool) {
		if !s.Active {
			return s, false
		}
		s.Active = false
		logout := now
		s.LogoutTime = &logout
		return s, true
	})
}

// TerminateAllForUser ends every active session for a user except one
func (r *RedisSessionRepository) TerminateAllForUser(ctx context.Context, userID uuid.UUID, exceptID string, now time.Time) (int, error) {
	sessions, err := r.sessionsForUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, s := range sessions {
		if !s.Active || s.ID == exceptID {
			continue
		}
		terminated, err := r.Terminate(ctx, s.ID, now)
		if err != nil {
			return count, err
		}
		if terminated {
			count++
		}
	}
	return count, nil
}

// TerminateIdleSince ends active sessions idle since before the cutoff. The
// idle check runs inside the per-key transaction, so a session touched after
// the scan is left alone.
func (r *RedisSessionRepository) TerminateIdleSince(ctx context.Context, cutoff time.Time, now time.Time) (int, error) {
	count := 0

	iter := r.client.Scan(ctx, 0, redisSessionPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		id := iter.Val()[len(redisSessionPrefix):]
		terminated, err := r.mutateIfActive(ctx, id, func(s Session) (Session, bool) {
			if !s.Active || !s.LastActivity.Before(cutoff) {
				return s, false
			}
			s.Active = false
			logout := now
			s.LogoutTime = &logout
			return s, true
		})
		if err != nil {
			return count, err
		}
		if terminated {
			count++
		}
	}
	if err := iter.Err(); err != nil {
		return count, fmt.Errorf("failed to scan sessions: %w", err)
	}
	return count, nil
}

// DeleteInactiveOlderThan removes dead rows older than the cutoff
func (r *RedisSessionRepository) DeleteInactiveOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	count := 0

	iter := r.client.Scan(ctx, 0, redisSessionPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		session, err := r.GetByID(ctx, key[len(redisSessionPrefix):])
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				continue
			}
			return count, err
		}
		if session.Active || !session.LastActivity.Before(cutoff) {
			continue
		}

		pipe := r.client.TxPipeline()
		pipe.Del(ctx, key)
		pipe.SRem(ctx, userIndexKey(session.UserID), session.ID)
		if _, err := pipe.Exec(ctx); err != nil {
			return count, fmt.Errorf("failed to delete session: %w", err)
		}
		count++
	}
	if err := iter.Err(); err != nil {
		return count, fmt.Errorf("failed to scan sessions: %w", err)
	}
	return count, nil
}

func sortByLoginAsc(sessions []Session) {
	for i := 1; i < len(sessions); i++ {
		for j := i; j > 0 && sessions[j].LoginTime.Before(sessions[j-1].LoginTime); j-- {
			sessions[j], sessions[j-1] = sessions[j-1], sessions[j]
		}
	}
}

func sortByLoginDesc(sessions []Session) {
	for i := 1; i < len(sessions); i++ {
		for j := i; j > 0 && sessions[j].LoginTime.After(sessions[j-1].LoginTime); j-- {
			sessions[j], sessions[j-1] = sessions[j-1], sessions[j]
		}
	}
}
