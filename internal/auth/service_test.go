package auth

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yonaslemma/gursha-backend/internal/users"
	pkgauth "github.com/yonaslemma/gursha-backend/pkg/auth"
	"github.com/yonaslemma/gursha-backend/pkg/config"
	"github.com/yonaslemma/gursha-backend/pkg/enums"
	pkgerrors "github.com/yonaslemma/gursha-backend/pkg/errors"
	"github.com/yonaslemma/gursha-backend/pkg/security"
)

var authTestDBSeq atomic.Int64

func setupAuthTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:authsvc%d?mode=memory&cache=shared", authTestDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  phone TEXT,
  role TEXT NOT NULL DEFAULT 'customer',
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

type sessionRegistryStub struct {
	created []string
	revoked []string
}

func (s *sessionRegistryStub) Create(_ context.Context, accessID string) error {
	s.created = append(s.created, accessID)
	return nil
}

func (s *sessionRegistryStub) Revoke(_ context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-signing-secret",
		Issuer:            "gursha-test",
		ExpirationMinutes: 30,
	}
}

func newAuthTestService(t *testing.T, db *gorm.DB) (Service, *sessionRegistryStub) {
	t.Helper()

	// small argon parameters keep the suite fast
	hasher, err := security.NewHasher(config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	require.NoError(t, err)

	sessions := &sessionRegistryStub{}
	svc, err := NewService(users.NewRepository(db), hasher, sessions, testJWTConfig())
	require.NoError(t, err)
	return svc, sessions
}

func registerInput(email string) RegisterInput {
	return RegisterInput{
		Email:     email,
		Password:  "correct-horse",
		FirstName: "Yonas",
		LastName:  "Lemma",
	}
}

func TestRegisterIssuesSession(t *testing.T) {
	db := setupAuthTestDB(t)
	svc, sessions := newAuthTestService(t, db)

	session, err := svc.Register(context.Background(), registerInput("Yonas@Example.com"))
	require.NoError(t, err)

	assert.Equal(t, "yonas@example.com", session.User.Email, "emails are normalised to lower case")
	assert.Equal(t, enums.MemberRoleCustomer, session.User.Role)
	assert.NotEmpty(t, session.AccessToken)
	require.Len(t, sessions.created, 1)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)
	assert.Equal(t, sessions.created[0], claims.ID, "token jti matches the registered session")
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	db := setupAuthTestDB(t)
	svc, _ := newAuthTestService(t, db)

	_, err := svc.Register(context.Background(), registerInput("dup@example.com"))
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), registerInput("dup@example.com"))
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeConflict, coded.Code())
}

func TestRegisterValidatesInput(t *testing.T) {
	db := setupAuthTestDB(t)
	svc, _ := newAuthTestService(t, db)

	cases := []RegisterInput{
		{Email: "", Password: "correct-horse", FirstName: "A", LastName: "B"},
		{Email: "a@b.com", Password: "short", FirstName: "A", LastName: "B"},
		{Email: "a@b.com", Password: "correct-horse", FirstName: "", LastName: "B"},
	}
	for _, input := range cases {
		_, err := svc.Register(context.Background(), input)
		require.Error(t, err)
		coded := pkgerrors.As(err)
		require.NotNil(t, coded)
		assert.Equal(t, pkgerrors.CodeValidation, coded.Code())
	}
}

func TestLoginVerifiesCredentials(t *testing.T) {
	db := setupAuthTestDB(t)
	svc, _ := newAuthTestService(t, db)

	_, err := svc.Register(context.Background(), registerInput("login@example.com"))
	require.NoError(t, err)

	session, err := svc.Login(context.Background(), LoginInput{Email: "LOGIN@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)

	_, err = svc.Login(context.Background(), LoginInput{Email: "login@example.com", Password: "wrong-horse"})
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeUnauthorized, coded.Code())
}

func TestLoginUnknownEmailLooksLikeBadCredentials(t *testing.T) {
	db := setupAuthTestDB(t)
	svc, _ := newAuthTestService(t, db)

	_, err := svc.Login(context.Background(), LoginInput{Email: "ghost@example.com", Password: "whatever1"})
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeUnauthorized, coded.Code())
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	db := setupAuthTestDB(t)
	svc, _ := newAuthTestService(t, db)

	session, err := svc.Register(context.Background(), registerInput("disabled@example.com"))
	require.NoError(t, err)

	require.NoError(t, db.Exec("UPDATE users SET is_active = 0 WHERE id = ?", session.User.ID).Error)

	_, err = svc.Login(context.Background(), LoginInput{Email: "disabled@example.com", Password: "correct-horse"})
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeForbidden, coded.Code())
}

func TestLoginStampsLastLogin(t *testing.T) {
	db := setupAuthTestDB(t)
	svc, _ := newAuthTestService(t, db)

	session, err := svc.Register(context.Background(), registerInput("stamp@example.com"))
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginInput{Email: "stamp@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	user, err := users.NewRepository(db).FindByID(context.Background(), session.User.ID)
	require.NoError(t, err)
	assert.NotNil(t, user.LastLoginAt)
}

func TestLogoutRevokesSession(t *testing.T) {
	db := setupAuthTestDB(t)
	svc, sessions := newAuthTestService(t, db)

	require.NoError(t, svc.Logout(context.Background(), "access-123"))
	assert.Equal(t, []string{"access-123"}, sessions.revoked)

	err := svc.Logout(context.Background(), "  ")
	require.Error(t, err)
}

func TestGetProfile(t *testing.T) {
	db := setupAuthTestDB(t)
	svc, _ := newAuthTestService(t, db)

	session, err := svc.Register(context.Background(), registerInput("profile@example.com"))
	require.NoError(t, err)

	profile, err := svc.GetProfile(context.Background(), session.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "profile@example.com", profile.Email)

	_, err = svc.GetProfile(context.Background(), uuid.New())
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeNotFound, coded.Code())
}
