package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/inkhouse/inkhouse/internal/config"
	"github.com/inkhouse/inkhouse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKeyStore struct {
	mu   sync.Mutex
	keys map[uuid.UUID]*models.APIKey
}

func newFakeKeyStore() *fakeKeyStore {
	return &fakeKeyStore{keys: make(map[uuid.UUID]*models.APIKey)}
}

func (f *fakeKeyStore) Create(ctx context.Context, apiKey *models.APIKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if apiKey.ID == uuid.Nil {
		apiKey.ID = uuid.New()
	}
	apiKey.CreatedAt = time.Now()

	stored := *apiKey
	f.keys[apiKey.ID] = &stored
	return nil
}

func (f *fakeKeyStore) FindByHash(ctx context.Context, hash string) (*models.APIKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, key := range f.keys {
		if key.KeyHash == hash {
			copied := *key
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeKeyStore) FindByID(ctx context.Context, id uuid.UUID) (*models.APIKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key, ok := f.keys[id]
	if !ok {
		return nil, nil
	}
	copied := *key
	return &copied, nil
}

func (f *fakeKeyStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.APIKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var keys []models.APIKey
	for _, key := range f.keys {
		if key.UserID == userID {
			keys = append(keys, *key)
		}
	}
	return keys, nil
}

func (f *fakeKeyStore) Revoke(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if key, ok := f.keys[id]; ok {
		key.Status = models.APIKeyStatusRevoked
	}
	return nil
}

func (f *fakeKeyStore) UpdateLastUsed(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if key, ok := f.keys[id]; ok {
		now := time.Now()
		key.LastUsedAt = &now
	}
	return nil
}

func testKeyConfig() config.APIKeyConfig {
	return config.APIKeyConfig{Prefix: "ink_", SecretBytes: 32}
}

func TestIssueReturnsSecretOnce(t *testing.T) {
	store := newFakeKeyStore()
	svc := NewAPIKeyService(store, testKeyConfig())
	userID := uuid.New()

	apiKey, secret, err := svc.Issue(context.Background(), userID, "ci key", 0)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(secret, "ink_"))
	assert.True(t, strings.HasPrefix(secret, apiKey.KeyPrefix))
	assert.NotContains(t, apiKey.KeyHash, secret)
	assert.Equal(t, models.APIKeyStatusActive, apiKey.Status)
	assert.Nil(t, apiKey.ExpiresAt)
	assert.Equal(t, userID, apiKey.UserID)
}

func TestIssueWithExpiry(t *testing.T) {
	store := newFakeKeyStore()
	svc := NewAPIKeyService(store, testKeyConfig())

	apiKey, _, err := svc.Issue(context.Background(), uuid.New(), "short lived", 30)
	require.NoError(t, err)

	require.NotNil(t, apiKey.ExpiresAt)
	expected := time.Now().AddDate(0, 0, 30)
	assert.WithinDuration(t, expected, *apiKey.ExpiresAt, time.Minute)
}

func TestAuthenticateSucceedsForActiveKey(t *testing.T) {
	store := newFakeKeyStore()
	svc := NewAPIKeyService(store, testKeyConfig())
	userID := uuid.New()

	apiKey, secret, err := svc.Issue(context.Background(), userID, "good key", 0)
	require.NoError(t, err)

	result, err := svc.Authenticate(context.Background(), "Bearer "+secret)
	require.NoError(t, err)
	assert.Equal(t, userID, result.UserID)
	assert.Equal(t, apiKey.ID, result.KeyID)
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	svc := NewAPIKeyService(newFakeKeyStore(), testKeyConfig())

	for _, header := range []string{
		"",
		"ink_raw_token_without_scheme",
		"Basic dXNlcjpwYXNz",
		"Bearer",
		"Bearer ",
	} {
		_, err := svc.Authenticate(context.Background(), header)
		assert.ErrorIs(t, err, ErrMalformedAuthHeader, "header %q", header)
	}
}

func TestAuthenticateUnknownKey(t *testing.T) {
	svc := NewAPIKeyService(newFakeKeyStore(), testKeyConfig())

	_, err := svc.Authenticate(context.Background(), "Bearer ink_never_issued")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestAuthenticateRevokedKey(t *testing.T) {
	store := newFakeKeyStore()
	svc := NewAPIKeyService(store, testKeyConfig())

	apiKey, secret, err := svc.Issue(context.Background(), uuid.New(), "doomed", 0)
	require.NoError(t, err)

	// Works before revocation
	_, err = svc.Authenticate(context.Background(), "Bearer "+secret)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(context.Background(), apiKey.ID))

	_, err = svc.Authenticate(context.Background(), "Bearer "+secret)
	assert.ErrorIs(t, err, ErrAPIKeyRevoked)
}

func TestAuthenticateExpiredKey(t *testing.T) {
	store := newFakeKeyStore()
	svc := NewAPIKeyService(store, testKeyConfig())

	_, secret, err := svc.Issue(context.Background(), uuid.New(), "stale", 30)
	require.NoError(t, err)

	// Jump past the expiry
	svc.now = func() time.Time { return time.Now().AddDate(0, 0, 31) }

	_, err = svc.Authenticate(context.Background(), "Bearer "+secret)
	assert.ErrorIs(t, err, ErrAPIKeyExpired)
}

func TestTouchLastUsed(t *testing.T) {
	store := newFakeKeyStore()
	svc := NewAPIKeyService(store, testKeyConfig())

	apiKey, _, err := svc.Issue(context.Background(), uuid.New(), "touched", 0)
	require.NoError(t, err)
	require.Nil(t, apiKey.LastUsedAt)

	svc.TouchLastUsed(apiKey.ID)

	stored, err := store.FindByID(context.Background(), apiKey.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastUsedAt)
}
