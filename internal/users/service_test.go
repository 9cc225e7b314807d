package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hasanfarsi/dukkan-backend/pkg/auth"
	"github.com/hasanfarsi/dukkan-backend/pkg/config"
	"github.com/hasanfarsi/dukkan-backend/pkg/enums"
	"github.com/hasanfarsi/dukkan-backend/pkg/errors"
)

type fakeStepUpCache struct {
	values map[string]string
}

func newFakeStepUpCache() *fakeStepUpCache {
	return &fakeStepUpCache{values: map[string]string{}}
}

func (c *fakeStepUpCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	str, _ := value.(string)
	c.values[key] = str
	return nil
}

func (c *fakeStepUpCache) Get(_ context.Context, key string) (string, error) {
	if v, ok := c.values[key]; ok {
		return v, nil
	}
	return "", errors.New(errors.CodeNotFound, "missing key")
}

func (c *fakeStepUpCache) StepUpKey(userID string) string {
	return "stepup:" + userID
}

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  phone TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'customer',
  branch_id TEXT,
  wallet_balance_halalas INTEGER NOT NULL DEFAULT 0,
  loyalty_points INTEGER NOT NULL DEFAULT 0,
  lifetime_spend_halalas INTEGER NOT NULL DEFAULT 0,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func testConfigs() (config.JWTConfig, config.PasswordConfig) {
	jwtCfg := config.JWTConfig{
		Secret:            "unit-test-secret-unit-test-secret",
		Issuer:            "dukkan-test",
		ExpirationMinutes: 15,
	}
	// small argon params keep the test fast
	passCfg := config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
	}
	return jwtCfg, passCfg
}

func newUserService(t *testing.T, db *gorm.DB, cache *fakeStepUpCache) Service {
	t.Helper()
	jwtCfg, passCfg := testConfigs()
	svc, err := NewService(NewRepository(db), cache, jwtCfg, passCfg)
	require.NoError(t, err)
	return svc
}

func TestServiceRegisterAndLogin(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newUserService(t, db, newFakeStepUpCache())
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Name:     "Huda",
		Email:    "  Huda@Example.com ",
		Password: "hunter2!",
	})
	require.NoError(t, err)
	assert.Equal(t, "huda@example.com", user.Email)
	assert.Equal(t, enums.RoleCustomer, user.Role)
	assert.NotEqual(t, "hunter2!", user.PasswordHash)

	loggedIn, token, err := svc.Login(ctx, "huda@example.com", "hunter2!")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	require.NotEmpty(t, token)

	jwtCfg, _ := testConfigs()
	claims, err := auth.ParseAccessToken(jwtCfg, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, enums.RoleCustomer, claims.Role)
}

func TestServiceRegisterRejectsDuplicateEmail(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newUserService(t, db, newFakeStepUpCache())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Huda", Email: "huda@example.com", Password: "hunter2!"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Name: "Imposter", Email: "HUDA@example.com", Password: "other"})
	require.Error(t, err)

	var appErr *errors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errors.CodeConflict, appErr.Code())
}

func TestServiceLoginRejectsWrongPassword(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newUserService(t, db, newFakeStepUpCache())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Huda", Email: "huda@example.com", Password: "hunter2!"})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "huda@example.com", "wrong")
	require.Error(t, err)

	var appErr *errors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errors.CodeUnauthorized, appErr.Code())
}

func TestServiceLoginUnknownEmailLooksLikeBadPassword(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newUserService(t, db, newFakeStepUpCache())

	_, _, err := svc.Login(context.Background(), "ghost@example.com", "whatever")
	require.Error(t, err)

	var appErr *errors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errors.CodeUnauthorized, appErr.Code())
	assert.Equal(t, "invalid credentials", appErr.Message())
}

func TestServiceStepUpRecordsWindow(t *testing.T) {
	db := setupUsersTestDB(t)
	cache := newFakeStepUpCache()
	svc := newUserService(t, db, cache)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Name: "Huda", Email: "huda@example.com", Password: "hunter2!"})
	require.NoError(t, err)

	recent, err := svc.HasRecentStepUp(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, recent)

	require.NoError(t, svc.StepUp(ctx, user.ID, "hunter2!"))

	recent, err = svc.HasRecentStepUp(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, recent)
}

func TestServiceStepUpRejectsWrongPassword(t *testing.T) {
	db := setupUsersTestDB(t)
	cache := newFakeStepUpCache()
	svc := newUserService(t, db, cache)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Name: "Huda", Email: "huda@example.com", Password: "hunter2!"})
	require.NoError(t, err)

	err = svc.StepUp(ctx, user.ID, "wrong")
	require.Error(t, err)
	assert.Empty(t, cache.values)
}

func TestServiceRegisterValidatesInput(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newUserService(t, db, newFakeStepUpCache())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "NoEmail", Password: "x"})
	require.Error(t, err)

	_, err = svc.Register(ctx, RegisterInput{Email: "a@b.c", Password: "x"})
	require.Error(t, err)

	_, err = svc.Register(ctx, RegisterInput{Name: "Bad", Email: "a@b.c", Password: "x", Role: enums.Role("superuser")})
	require.Error(t, err)
}

func TestServiceLoginRejectsDisabledAccount(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newUserService(t, db, newFakeStepUpCache())
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Name: "Huda", Email: "huda@example.com", Password: "hunter2!"})
	require.NoError(t, err)

	require.NoError(t, db.Model(user).Update("active", false).Error)

	_, _, err = svc.Login(ctx, "huda@example.com", "hunter2!")
	require.Error(t, err)

	var appErr *errors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errors.CodeUnauthorized, appErr.Code())
}
