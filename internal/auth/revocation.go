package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/dochub-service/internal/domain"
)

// RevocationStore holds the single currently-live token per (subject,
// purpose) pair. A signed token is honored only while it is byte-identical
// to the stored entry; overwriting or deleting the entry is the system's
// only revocation mechanism.
type RevocationStore interface {
	// Put records token as the live token for (subjectID, purpose),
	// replacing and thereby invalidating any previous one.
	Put(ctx context.Context, subjectID string, purpose domain.Purpose, token string, ttl time.Duration) error

	// Get returns the live token for the pair; ok is false when no entry
	// exists (never issued, revoked, or TTL-expired).
	Get(ctx context.Context, subjectID string, purpose domain.Purpose) (token string, ok bool, err error)

	// Revoke deletes the entry for one purpose.
	Revoke(ctx context.Context, subjectID string, purpose domain.Purpose) error

	// RevokeAll deletes every purpose entry for the subject. The sweep
	// enumerates keys then deletes them one by one; an entry written for the
	// same subject during the sweep may survive. Best effort, not a hard
	// guarantee.
	RevokeAll(ctx context.Context, subjectID string) error
}

// revocationKey builds the store key "{subject_id}_{purpose}". No other key
// shapes are reserved by this package.
func revocationKey(subjectID string, purpose domain.Purpose) string {
	return fmt.Sprintf("%s_%s", subjectID, purpose)
}

type redisRevocationStore struct {
	client *redis.Client
}

// NewRedisRevocationStore wraps a Redis client as a RevocationStore, relying
// on Redis server-side expiry for entry TTLs.
func NewRedisRevocationStore(client *redis.Client) RevocationStore {
	return &redisRevocationStore{client: client}
}

func (s *redisRevocationStore) Put(ctx context.Context, subjectID string, purpose domain.Purpose, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, revocationKey(subjectID, purpose), token, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *redisRevocationStore) Get(ctx context.Context, subjectID string, purpose domain.Purpose) (string, bool, error) {
	val, err := s.client.Get(ctx, revocationKey(subjectID, purpose)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return val, true, nil
}

func (s *redisRevocationStore) Revoke(ctx context.Context, subjectID string, purpose domain.Purpose) error {
	if err := s.client.Del(ctx, revocationKey(subjectID, purpose)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *redisRevocationStore) RevokeAll(ctx context.Context, subjectID string) error {
	keys, err := s.client.Keys(ctx, subjectID+"_*").Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	for _, key := range keys {
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}
	return nil
}
