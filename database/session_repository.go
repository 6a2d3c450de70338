package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Sarthak210905/studioform-ecommerce-sub000/models"
)

// SessionRepository stores checkout sessions in Redis. It also owns the
// submission locks that make order placement single-flight across replicas.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *SessionRepository) getKey(sessionID string) string {
	return fmt.Sprintf("checkout:session:%s", sessionID)
}

func (r *SessionRepository) getLockKey(sessionID string) string {
	return fmt.Sprintf("checkout:submit:%s", sessionID)
}

func (r *SessionRepository) getUserKey(userID string) string {
	return fmt.Sprintf("checkout:user:%s", userID)
}

func (r *SessionRepository) GetSession(ctx context.Context, sessionID string) (*models.CheckoutSession, error) {
	data, err := r.client.Get(ctx, r.getKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session models.CheckoutSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) SaveSession(ctx context.Context, session *models.CheckoutSession) error {
	session.UpdatedAt = time.Now()

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, r.getKey(session.ID), data, r.ttl).Err(); err != nil {
		return err
	}
	// User index for cart-change notifications: one active session per user.
	return r.client.Set(ctx, r.getUserKey(session.UserID), session.ID, r.ttl).Err()
}

// GetSessionByUser returns the user's active checkout session, or nil when
// none exists. A dangling index entry resolves to nil; it expires with its
// own TTL after the session is deleted.
func (r *SessionRepository) GetSessionByUser(ctx context.Context, userID string) (*models.CheckoutSession, error) {
	sessionID, err := r.client.Get(ctx, r.getUserKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.GetSession(ctx, sessionID)
}

func (r *SessionRepository) DeleteSession(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, r.getKey(sessionID)).Err()
}

// AcquireSubmitLock takes the single-flight submission lock for a session.
// Returns false if a submission is already in flight.
func (r *SessionRepository) AcquireSubmitLock(ctx context.Context, sessionID string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, r.getLockKey(sessionID), time.Now().Format(time.RFC3339), ttl).Result()
}

// ReleaseSubmitLock frees the submission lock once the attempt resolves.
func (r *SessionRepository) ReleaseSubmitLock(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, r.getLockKey(sessionID)).Err()
}
