package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/pradeepsarraf/sajilomart-backend/pkg/enums"
)

// OrderCreatedEvent signals a freshly placed order. It carries everything the
// notifier needs to send the confirmation email without a DB round trip.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID `json:"orderId"`
	UserID        uuid.UUID `json:"userId"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	Total         string    `json:"total"`
	CouponCode    string    `json:"couponCode,omitempty"`
	PlacedAt      time.Time `json:"placedAt"`
}

// OrderStatusChangedEvent is emitted on every status transition.
type OrderStatusChangedEvent struct {
	OrderID       uuid.UUID         `json:"orderId"`
	UserID        uuid.UUID         `json:"userId"`
	CustomerName  string            `json:"customerName"`
	CustomerEmail string            `json:"customerEmail"`
	Status        enums.OrderStatus `json:"status"`
	UpdatedBy     string            `json:"updatedBy"`
	ChangedAt     time.Time         `json:"changedAt"`
}

// UserRegisteredEvent triggers the welcome email.
type UserRegisteredEvent struct {
	UserID       uuid.UUID `json:"userId"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registeredAt"`
}
