package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inkhouse/inkhouse/internal/config"
	"github.com/inkhouse/inkhouse/internal/models"
)

// Authentication failures are classified so callers can report the
// precise reason instead of a generic miss.
var (
	ErrMalformedAuthHeader = errors.New("missing or malformed authorization header")
	ErrInvalidAPIKey       = errors.New("invalid API key")
	ErrAPIKeyRevoked       = errors.New("API key has been revoked")
	ErrAPIKeyExpired       = errors.New("API key has expired")
)

// Resolved identity for a single request. Never persisted.
type AuthResult struct {
	UserID uuid.UUID
	KeyID  uuid.UUID
}

// APIKeyStore is the slice of the key repository the service consumes.
type APIKeyStore interface {
	Create(ctx context.Context, apiKey *models.APIKey) error
	FindByHash(ctx context.Context, hash string) (*models.APIKey, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.APIKey, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.APIKey, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	UpdateLastUsed(ctx context.Context, id uuid.UUID) error
}

type APIKeyService struct {
	store APIKeyStore
	cfg   config.APIKeyConfig
	now   func() time.Time
}

func NewAPIKeyService(store APIKeyStore, cfg config.APIKeyConfig) *APIKeyService {
	return &APIKeyService{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Issue generates a new key for the user. The plaintext secret is
// returned exactly once; only its sha256 and a display prefix are
// stored. expiresInDays of 0 means the key never expires.
func (s *APIKeyService) Issue(ctx context.Context, userID uuid.UUID, name string, expiresInDays int) (*models.APIKey, string, error) {
	secretBytes := make([]byte, s.cfg.SecretBytes)
	if _, err := rand.Read(secretBytes); err != nil {
		return nil, "", fmt.Errorf("failed to generate random key: %w", err)
	}

	key := s.cfg.Prefix + base64.RawURLEncoding.EncodeToString(secretBytes)

	hash := sha256.Sum256([]byte(key))
	keyHash := hex.EncodeToString(hash[:])

	prefixLen := len(s.cfg.Prefix) + 6
	if prefixLen > len(key) {
		prefixLen = len(key)
	}

	apiKey := &models.APIKey{
		UserID:    userID,
		KeyHash:   keyHash,
		KeyPrefix: key[:prefixLen],
		Name:      name,
		Status:    models.APIKeyStatusActive,
	}

	if expiresInDays > 0 {
		expiresAt := s.now().AddDate(0, 0, expiresInDays)
		apiKey.ExpiresAt = &expiresAt
	}

	if err := s.store.Create(ctx, apiKey); err != nil {
		return nil, "", fmt.Errorf("failed to create API key: %w", err)
	}

	return apiKey, key, nil
}

// Authenticate resolves a raw Authorization header value to the owning
// user and key, or one of the classified failures above. Lookup misses
// and key state are never conflated: unknown, revoked and expired keys
// each report distinctly.
func (s *APIKeyService) Authenticate(ctx context.Context, authHeader string) (*AuthResult, error) {
	token, ok := parseBearer(authHeader)
	if !ok {
		return nil, ErrMalformedAuthHeader
	}

	hash := sha256.Sum256([]byte(token))
	keyHash := hex.EncodeToString(hash[:])

	apiKey, err := s.store.FindByHash(ctx, keyHash)
	if err != nil {
		return nil, fmt.Errorf("api key lookup failed: %w", err)
	}

	if apiKey == nil {
		return nil, ErrInvalidAPIKey
	}

	if apiKey.Revoked() {
		return nil, ErrAPIKeyRevoked
	}

	if apiKey.Expired(s.now()) {
		return nil, ErrAPIKeyExpired
	}

	return &AuthResult{UserID: apiKey.UserID, KeyID: apiKey.ID}, nil
}

// TouchLastUsed records successful key use. Best effort: runs off the
// request path with its own context, failures are logged and dropped.
func (s *APIKeyService) TouchLastUsed(keyID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.store.UpdateLastUsed(ctx, keyID); err != nil {
		log.Printf("failed to update last_used_at for key %s: %v", keyID, err)
	}
}

func (s *APIKeyService) List(ctx context.Context, userID uuid.UUID) ([]models.APIKey, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *APIKeyService) Get(ctx context.Context, id uuid.UUID) (*models.APIKey, error) {
	return s.store.FindByID(ctx, id)
}

// Revoke is terminal; a revoked key never becomes active again.
// Revoking an already-revoked key is a no-op.
func (s *APIKeyService) Revoke(ctx context.Context, id uuid.UUID) error {
	return s.store.Revoke(ctx, id)
}

func parseBearer(header string) (string, bool) {
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}
