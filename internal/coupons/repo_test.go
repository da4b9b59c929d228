package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pradeepsarraf/sajilomart-backend/pkg/db/models"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/enums"
)

func setupCouponsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS coupons (
  code TEXT PRIMARY KEY,
  type TEXT NOT NULL,
  value NUMERIC NOT NULL,
  usage_limit INTEGER NOT NULL,
  times_used INTEGER NOT NULL DEFAULT 0,
  expiry_date DATETIME NOT NULL,
  applicable_scope TEXT NOT NULL DEFAULT 'all',
  applicable_ids TEXT NOT NULL DEFAULT '{}',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func seedCoupon(t *testing.T, repo *Repository, code string, limit, used int, expiry time.Time, active bool) *models.Coupon {
	t.Helper()

	coupon := &models.Coupon{
		Code:            code,
		Type:            enums.CouponTypeFixed,
		Value:           decimal.NewFromInt(10),
		UsageLimit:      limit,
		TimesUsed:       used,
		ExpiryDate:      expiry,
		ApplicableScope: enums.CouponScopeAll,
		IsActive:        active,
	}
	created, err := repo.Create(context.Background(), coupon)
	require.NoError(t, err)
	return created
}

func TestRepositoryFindByCodeCaseInsensitive(t *testing.T) {
	db := setupCouponsTestDB(t)
	repo := NewRepository(db)
	seedCoupon(t, repo, "save10", 5, 0, time.Now().Add(time.Hour), true)

	found, err := repo.FindByCode(context.Background(), "SaVe10")
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", found.Code)
}

func TestRepositoryIncrementUsageGuardStopsAtLimit(t *testing.T) {
	db := setupCouponsTestDB(t)
	repo := NewRepository(db)
	seedCoupon(t, repo, "ONCE", 1, 0, time.Now().Add(time.Hour), true)
	ctx := context.Background()

	ok, err := repo.IncrementUsage(ctx, "once", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IncrementUsage(ctx, "ONCE", time.Now())
	require.NoError(t, err)
	assert.False(t, ok, "second increment must be rejected at the limit")

	coupon, err := repo.FindByCode(ctx, "ONCE")
	require.NoError(t, err)
	assert.Equal(t, 1, coupon.TimesUsed)
}

func TestRepositoryIncrementUsageRejectsExpired(t *testing.T) {
	db := setupCouponsTestDB(t)
	repo := NewRepository(db)
	seedCoupon(t, repo, "OLD", 5, 0, time.Now().Add(-time.Hour), true)

	ok, err := repo.IncrementUsage(context.Background(), "OLD", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepositoryIncrementUsageRejectsInactive(t *testing.T) {
	db := setupCouponsTestDB(t)
	repo := NewRepository(db)
	seedCoupon(t, repo, "OFF", 5, 0, time.Now().Add(time.Hour), false)

	ok, err := repo.IncrementUsage(context.Background(), "OFF", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepositoryDeleteRemovesCoupon(t *testing.T) {
	db := setupCouponsTestDB(t)
	repo := NewRepository(db)
	seedCoupon(t, repo, "GONE", 5, 0, time.Now().Add(time.Hour), true)
	ctx := context.Background()

	require.NoError(t, repo.Delete(ctx, "gone"))

	_, err := repo.FindByCode(ctx, "GONE")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
