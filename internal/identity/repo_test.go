package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pradeepsarraf/sajilomart-backend/pkg/db/models"
	dbtypes "github.com/pradeepsarraf/sajilomart-backend/pkg/db/types"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/enums"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  registration_date DATETIME NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  order_ids TEXT NOT NULL DEFAULT '{}',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func seedUser(t *testing.T, repo *Repository, email string, registeredAt time.Time) *models.User {
	t.Helper()

	user := &models.User{
		ID:               uuid.New(),
		Name:             "Asha Shopper",
		Email:            email,
		PasswordHash:     "$argon2id$stub",
		RegistrationDate: registeredAt,
		Status:           enums.UserStatusActive,
		OrderIDs:         dbtypes.UUIDArray{},
	}
	created, err := repo.Create(context.Background(), user)
	require.NoError(t, err)
	return created
}

func TestRepositoryFindByEmailNormalizes(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	seedUser(t, repo, "Asha@Example.COM", time.Now())

	found, err := repo.FindByEmail(context.Background(), "  ASHA@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", found.Email)
}

func TestRepositoryCreateRejectsDuplicateEmail(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	seedUser(t, repo, "asha@example.com", time.Now())

	_, err := repo.Create(context.Background(), &models.User{
		ID:               uuid.New(),
		Name:             "Other",
		Email:            "ASHA@example.com",
		PasswordHash:     "$argon2id$stub",
		RegistrationDate: time.Now(),
		Status:           enums.UserStatusActive,
		OrderIDs:         dbtypes.UUIDArray{},
	})
	assert.Error(t, err)
}

func TestRepositoryListNewestRegistrationFirst(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	base := time.Now().Add(-time.Hour)
	seedUser(t, repo, "first@example.com", base)
	seedUser(t, repo, "second@example.com", base.Add(time.Minute))

	rows, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "second@example.com", rows[0].Email)
}

func TestRepositoryUpdateStatus(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	user := seedUser(t, repo, "asha@example.com", time.Now())

	updated, err := repo.UpdateStatus(context.Background(), user.ID, enums.UserStatusBlocked)
	require.NoError(t, err)
	assert.True(t, updated)

	found, err := repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.UserStatusBlocked, found.Status)

	updated, err = repo.UpdateStatus(context.Background(), uuid.New(), enums.UserStatusBlocked)
	require.NoError(t, err)
	assert.False(t, updated, "unknown user updates no rows")
}

func TestRepositoryUpdatePasswordHash(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	user := seedUser(t, repo, "asha@example.com", time.Now())

	require.NoError(t, repo.UpdatePasswordHash(context.Background(), user.ID, "$argon2id$new"))

	found, err := repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "$argon2id$new", found.PasswordHash)
}
