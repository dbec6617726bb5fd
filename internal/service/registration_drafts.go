package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/superdoll/tracker-api/internal/cache"
	"github.com/superdoll/tracker-api/internal/domain"
)

// RegistrationDraftStore keeps wizard states between requests, keyed by an
// opaque token handed to the client.
type RegistrationDraftStore struct {
	store cache.Store
	ttl   time.Duration
}

func NewRegistrationDraftStore(store cache.Store, ttl time.Duration) *RegistrationDraftStore {
	return &RegistrationDraftStore{store: store, ttl: ttl}
}

// Load returns the draft for token. An empty or expired token starts a new
// draft under a fresh token.
func (d *RegistrationDraftStore) Load(ctx context.Context, token string) (string, domain.RegistrationState, error) {
	if token != "" {
		var state domain.RegistrationState
		found, err := d.store.Get(ctx, cache.RegistrationKey(token), &state)
		if err != nil {
			return "", domain.RegistrationState{}, fmt.Errorf("failed to load registration draft: %w", err)
		}
		if found {
			return token, state, nil
		}
	}
	return uuid.NewString(), domain.NewRegistrationState(), nil
}

func (d *RegistrationDraftStore) Save(ctx context.Context, token string, state domain.RegistrationState) error {
	if err := d.store.Set(ctx, cache.RegistrationKey(token), state, d.ttl); err != nil {
		return fmt.Errorf("failed to save registration draft: %w", err)
	}
	return nil
}

func (d *RegistrationDraftStore) Discard(ctx context.Context, token string) error {
	if err := d.store.Invalidate(ctx, cache.RegistrationKey(token)); err != nil {
		return fmt.Errorf("failed to discard registration draft: %w", err)
	}
	return nil
}
