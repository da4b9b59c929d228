package identity

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pradeepsarraf/sajilomart-backend/pkg/auth"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/config"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/db/models"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/enums"
	pkgerrors "github.com/pradeepsarraf/sajilomart-backend/pkg/errors"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/outbox"
)

type stubUserRepo struct {
	byID    map[uuid.UUID]*models.User
	byEmail map[string]*models.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: map[uuid.UUID]*models.User{}, byEmail: map[string]*models.User{}}
}

func (s *stubUserRepo) WithTx(_ *gorm.DB) UserRepository { return s }

func (s *stubUserRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	if _, exists := s.byEmail[user.Email]; exists {
		return nil, gorm.ErrDuplicatedKey
	}
	s.byID[user.ID] = user
	s.byEmail[user.Email] = user
	return user, nil
}

func (s *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserRepo) List(_ context.Context) ([]models.User, error) {
	var rows []models.User
	for _, u := range s.byID {
		rows = append(rows, *u)
	}
	return rows, nil
}

func (s *stubUserRepo) UpdateStatus(_ context.Context, id uuid.UUID, status enums.UserStatus) (bool, error) {
	user, ok := s.byID[id]
	if !ok {
		return false, nil
	}
	user.Status = status
	return true, nil
}

func (s *stubUserRepo) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	if user, ok := s.byID[id]; ok {
		user.PasswordHash = hash
	}
	return nil
}

func (s *stubUserRepo) AppendOrderID(_ context.Context, _ *gorm.DB, userID, orderID uuid.UUID) error {
	if user, ok := s.byID[userID]; ok {
		user.OrderIDs = append(user.OrderIDs, orderID)
	}
	return nil
}

type stubIdentityTx struct{}

func (stubIdentityTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubIdentityEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubIdentityEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubTokenStore struct {
	tokens  map[string]string
	revoked []string
}

func newStubTokenStore() *stubTokenStore {
	return &stubTokenStore{tokens: map[string]string{}}
}

func (s *stubTokenStore) StoreRefreshToken(_ context.Context, userID, token string, _ time.Duration) error {
	s.tokens[userID] = token
	return nil
}

func (s *stubTokenStore) GetRefreshToken(_ context.Context, userID string) (string, error) {
	return s.tokens[userID], nil
}

func (s *stubTokenStore) RevokeRefreshToken(_ context.Context, userID string) error {
	delete(s.tokens, userID)
	s.revoked = append(s.revoked, userID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret-at-least-32-characters",
		Issuer:                 "sajilomart-test",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 60,
	}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

type identityFixture struct {
	svc     Service
	repo    *stubUserRepo
	emitter *stubIdentityEmitter
	tokens  *stubTokenStore
}

func newIdentityFixture(t *testing.T) *identityFixture {
	t.Helper()

	repo := newStubUserRepo()
	emitter := &stubIdentityEmitter{}
	tokens := newStubTokenStore()
	svc, err := NewService(repo, stubIdentityTx{}, emitter, tokens, testJWTConfig(), testPasswordConfig(), nil)
	require.NoError(t, err)
	return &identityFixture{svc: svc, repo: repo, emitter: emitter, tokens: tokens}
}

func (f *identityFixture) register(t *testing.T) *models.User {
	t.Helper()

	user, err := f.svc.Register(context.Background(), RegisterInput{
		Name:     "Asha Shopper",
		Email:    "Asha@Example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	return user
}

func TestRegisterNormalizesEmailAndEmits(t *testing.T) {
	f := newIdentityFixture(t)

	user := f.register(t)
	assert.Equal(t, "asha@example.com", user.Email)
	assert.Equal(t, enums.UserStatusActive, user.Status)
	assert.True(t, strings.HasPrefix(user.PasswordHash, "$argon2id$"))

	require.Len(t, f.emitter.events, 1)
	assert.Equal(t, enums.EventUserRegistered, f.emitter.events[0].EventType)
}

func TestRegisterValidation(t *testing.T) {
	f := newIdentityFixture(t)

	cases := []struct {
		name  string
		input RegisterInput
	}{
		{"no name", RegisterInput{Email: "a@b.com", Password: "longenough"}},
		{"bad email", RegisterInput{Name: "A", Email: "not-an-email", Password: "longenough"}},
		{"short password", RegisterInput{Name: "A", Email: "a@b.com", Password: "short"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Register(context.Background(), tc.input)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
}

func TestLoginReturnsSession(t *testing.T) {
	f := newIdentityFixture(t)
	user := f.register(t)

	session, err := f.svc.Login(context.Background(), "ASHA@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.User.ID)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, session.RefreshToken, f.tokens.tokens[user.ID.String()])

	claims, err := auth.ParseAccessToken(testJWTConfig(), session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "asha@example.com", claims.Email)
}

func TestLoginWrongPasswordReadsLikeUnknownEmail(t *testing.T) {
	f := newIdentityFixture(t)
	f.register(t)

	_, err := f.svc.Login(context.Background(), "asha@example.com", "wrong password")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())

	_, err2 := f.svc.Login(context.Background(), "nobody@example.com", "wrong password")
	typed2 := pkgerrors.As(err2)
	require.NotNil(t, typed2)
	assert.Equal(t, typed.Error(), typed2.Error(), "both failures carry the same message")
}

func TestLoginBlockedUserForbidden(t *testing.T) {
	f := newIdentityFixture(t)
	user := f.register(t)
	_, err := f.svc.SetStatus(context.Background(), user.ID, enums.UserStatusBlocked)
	require.NoError(t, err)

	_, err = f.svc.Login(context.Background(), "asha@example.com", "correct horse battery")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newIdentityFixture(t)
	user := f.register(t)
	session, err := f.svc.Login(context.Background(), "asha@example.com", "correct horse battery")
	require.NoError(t, err)

	next, err := f.svc.Refresh(context.Background(), user.ID, session.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.RefreshToken, next.RefreshToken)

	// The old token died with the rotation.
	_, err = f.svc.Refresh(context.Background(), user.ID, session.RefreshToken)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	f := newIdentityFixture(t)
	user := f.register(t)
	_, err := f.svc.Login(context.Background(), "asha@example.com", "correct horse battery")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(context.Background(), user.ID))
	assert.Empty(t, f.tokens.tokens[user.ID.String()])
}

func TestChangePasswordRequiresCurrent(t *testing.T) {
	f := newIdentityFixture(t)
	user := f.register(t)

	err := f.svc.ChangePassword(context.Background(), user.ID, "wrong current", "a new long password")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())

	require.NoError(t, f.svc.ChangePassword(context.Background(), user.ID, "correct horse battery", "a new long password"))

	_, err = f.svc.Login(context.Background(), "asha@example.com", "a new long password")
	require.NoError(t, err)
	assert.Contains(t, f.tokens.revoked, user.ID.String())
}

func TestSetStatusBlockedRevokesSession(t *testing.T) {
	f := newIdentityFixture(t)
	user := f.register(t)
	_, err := f.svc.Login(context.Background(), "asha@example.com", "correct horse battery")
	require.NoError(t, err)

	updated, err := f.svc.SetStatus(context.Background(), user.ID, enums.UserStatusBlocked)
	require.NoError(t, err)
	assert.Equal(t, enums.UserStatusBlocked, updated.Status)
	assert.Empty(t, f.tokens.tokens[user.ID.String()])
}
