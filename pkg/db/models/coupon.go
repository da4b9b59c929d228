package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/pradeepsarraf/sajilomart-backend/pkg/enums"
)

// Coupon holds a discount code definition. The code is the primary key and is
// stored uppercase; lookups normalize input so matching stays case-insensitive.
type Coupon struct {
	Code            string            `gorm:"column:code;primaryKey" json:"code"`
	Type            enums.CouponType  `gorm:"column:type;type:text;not null" json:"type"`
	Value           decimal.Decimal   `gorm:"column:value;type:numeric(12,2);not null" json:"value"`
	UsageLimit      int               `gorm:"column:usage_limit;not null" json:"usageLimit"`
	TimesUsed       int               `gorm:"column:times_used;not null;default:0" json:"timesUsed"`
	ExpiryDate      time.Time         `gorm:"column:expiry_date;not null" json:"expiryDate"`
	ApplicableScope enums.CouponScope `gorm:"column:applicable_scope;type:text;not null;default:'all'" json:"applicableScope"`
	ApplicableIDs   pq.StringArray    `gorm:"column:applicable_ids;type:text[];not null;default:ARRAY[]::text[]" json:"applicableIds"`
	IsActive        bool              `gorm:"column:is_active;not null;default:true" json:"isActive"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}
