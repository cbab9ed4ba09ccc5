package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aslanbek/fieldlog/internal/config"
)

func testConfig() config.AuthConfig {
	return config.AuthConfig{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTokenTTL:     time.Minute,
		RefreshTokenTTL:    time.Hour,
		BcryptCost:         4,
	}
}

func TestRegisterSuccess(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testConfig())

	result, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	if result.User.PasswordHash != "" {
		t.Fatalf("expected password hash to be stripped from response")
	}
	if result.Tokens.AccessToken == "" || result.Tokens.RefreshToken == "" {
		t.Fatalf("expected tokens to be issued")
	}
	if len(store.users) != 1 {
		t.Fatalf("expected user stored; got %d", len(store.users))
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	service := NewService(newMemoryStore(), testConfig())

	if _, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
	}); err != nil {
		t.Fatalf("initial registration returned error: %v", err)
	}

	_, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "AnotherPass2!",
	})
	if !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	service := NewService(newMemoryStore(), testConfig())

	if _, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
	}); err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	result, err := service.Login(context.Background(), LoginInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
	})
	if err != nil {
		t.Fatalf("login returned error: %v", err)
	}

	if result.Tokens.AccessToken == "" || result.Tokens.RefreshToken == "" {
		t.Fatalf("expected a full token pair")
	}
}

func TestLoginInvalidPassword(t *testing.T) {
	service := NewService(newMemoryStore(), testConfig())

	if _, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
	}); err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	_, err := service.Login(context.Background(), LoginInput{
		Email:    "user@example.com",
		Password: "WrongPass",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRefreshIssuesNewPairAndRotatesToken(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testConfig())

	registered, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	refreshed, err := service.Refresh(context.Background(), registered.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh returned error: %v", err)
	}

	if refreshed.Tokens.AccessToken == "" || refreshed.Tokens.RefreshToken == "" {
		t.Fatalf("expected refresh to issue a full token pair")
	}
	if refreshed.Tokens.RefreshToken == registered.Tokens.RefreshToken {
		t.Fatalf("expected refresh token rotation")
	}
	if refreshed.User.ID != registered.User.ID {
		t.Fatalf("refresh changed identity: %s vs %s", refreshed.User.ID, registered.User.ID)
	}

	// The redeemed token was revoked; a second redemption must fail.
	if _, err := service.Refresh(context.Background(), registered.Tokens.RefreshToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized on replayed token, got %v", err)
	}
}

func TestRefreshRejectsUnknownToken(t *testing.T) {
	service := NewService(newMemoryStore(), testConfig())

	if _, err := service.Refresh(context.Background(), "never-issued"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testConfig())

	registered, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	service.nowFunc = func() time.Time { return time.Now().Add(2 * time.Hour) }

	if _, err := service.Refresh(context.Background(), registered.Tokens.RefreshToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired token, got %v", err)
	}
}

// memoryStore implements userStore for tests.
type memoryStore struct {
	users  map[string]User
	tokens map[string]RefreshToken
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:  make(map[string]User),
		tokens: make(map[string]RefreshToken),
	}
}

func (m *memoryStore) CreateUser(ctx context.Context, email, passwordHash string, displayName *string) (User, error) {
	if _, ok := m.users[email]; ok {
		return User{}, ErrEmailAlreadyExists
	}
	user := User{
		ID:           uuid.New(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.users[email] = user
	return user, nil
}

func (m *memoryStore) FindUserByEmail(ctx context.Context, email string) (User, error) {
	user, ok := m.users[email]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (m *memoryStore) FindUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (m *memoryStore) StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	m.tokens[tokenHash] = RefreshToken{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	return nil
}

func (m *memoryStore) FindRefreshToken(ctx context.Context, tokenHash string) (RefreshToken, error) {
	token, ok := m.tokens[tokenHash]
	if !ok {
		return RefreshToken{}, ErrTokenNotFound
	}
	return token, nil
}

func (m *memoryStore) RevokeToken(ctx context.Context, userID uuid.UUID, tokenHash string) error {
	token, ok := m.tokens[tokenHash]
	if !ok {
		return ErrTokenNotFound
	}
	now := time.Now()
	token.RevokedAt = &now
	m.tokens[tokenHash] = token
	return nil
}
