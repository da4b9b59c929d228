package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pradeepsarraf/sajilomart-backend/pkg/enums"
)

// Order is created once at checkout. Items and total are immutable snapshots;
// only the status field mutates afterwards. Orders are never deleted.
type Order struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID         uuid.UUID         `gorm:"column:user_id;type:uuid;not null" json:"userId"`
	CustomerName   string            `gorm:"column:customer_name;not null" json:"customerName"`
	CustomerEmail  string            `gorm:"column:customer_email;not null" json:"customerEmail"`
	Date           time.Time         `gorm:"column:date;not null" json:"date"`
	Status         enums.OrderStatus `gorm:"column:status;type:text;not null;default:'Order Placed'" json:"status"`
	Total          decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null" json:"total"`
	ShippingStreet string            `gorm:"column:shipping_street;not null" json:"-"`
	ShippingCity   string            `gorm:"column:shipping_city;not null" json:"-"`
	ShippingZip    string            `gorm:"column:shipping_zip;not null" json:"-"`
	Items          []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

// ShippingAddress is the delivery destination captured at checkout.
type ShippingAddress struct {
	Street string `json:"street"`
	City   string `json:"city"`
	Zip    string `json:"zip"`
}

// MarshalJSON nests the flat shipping columns under a shippingAddress object.
func (o Order) MarshalJSON() ([]byte, error) {
	type plain Order
	return json.Marshal(struct {
		plain
		ShippingAddress ShippingAddress `json:"shippingAddress"`
	}{
		plain: plain(o),
		ShippingAddress: ShippingAddress{
			Street: o.ShippingStreet,
			City:   o.ShippingCity,
			Zip:    o.ShippingZip,
		},
	})
}

// OrderItem snapshots a product line at checkout time. Price, name, and image
// are copied from the product, not referenced live.
type OrderItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"-"`
	OrderID      uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index" json:"-"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null" json:"productId"`
	ProductName  string          `gorm:"column:product_name;not null" json:"productName"`
	Quantity     int             `gorm:"column:quantity;not null" json:"quantity"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	ProductImage string          `gorm:"column:product_image;not null" json:"productImage"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"-"`
}
