package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/pradeepsarraf/sajilomart-backend/pkg/db/types"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/enums"
)

// User represents a customer account. OrderIDs is append-only and grows by one
// entry per order the user places.
type User struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name             string            `gorm:"column:name;not null" json:"name"`
	Email            string            `gorm:"column:email;not null;uniqueIndex" json:"email"`
	PasswordHash     string            `gorm:"column:password_hash;not null" json:"-"`
	RegistrationDate time.Time         `gorm:"column:registration_date;not null" json:"registrationDate"`
	Status           enums.UserStatus  `gorm:"column:status;type:text;not null;default:'active'" json:"status"`
	OrderIDs         dbtypes.UUIDArray `gorm:"column:order_ids;type:uuid[];not null;default:ARRAY[]::uuid[]" json:"orderIds"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}
