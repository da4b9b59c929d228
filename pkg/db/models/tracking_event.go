package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pradeepsarraf/sajilomart-backend/pkg/enums"
)

// OrderTrackingEvent is an append-only log row. One event is written at order
// creation and one per status change. There is no uniqueness constraint, so
// racing writers can produce duplicates; readers sort by timestamp ascending.
type OrderTrackingEvent struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index" json:"orderId"`
	Status    enums.OrderStatus `gorm:"column:status;type:text;not null" json:"status"`
	Timestamp time.Time         `gorm:"column:timestamp;not null" json:"timestamp"`
	Location  string            `gorm:"column:location;not null" json:"location"`
	Notes     *string           `gorm:"column:notes" json:"notes,omitempty"`
}

// TableName keeps the storefront's collection name.
func (OrderTrackingEvent) TableName() string {
	return "order_tracking_log"
}
