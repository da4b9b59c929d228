package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pradeepsarraf/sajilomart-backend/pkg/db/models"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/enums"
	pkgerrors "github.com/pradeepsarraf/sajilomart-backend/pkg/errors"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/logger"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/outbox"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/outbox/payloads"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/pagination"
)

// Every tracking event carries the warehouse location; per-stop tracking does
// not exist in this storefront.
const trackingLocation = "Warehouse"

const orderCreatedNote = "Order successfully created by customer."

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userOrderAppender interface {
	AppendOrderID(ctx context.Context, tx *gorm.DB, userID, orderID uuid.UUID) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type snapshotPublisher interface {
	PublishOrderSnapshot(ctx context.Context, orderID string, snapshot any)
}

// Service exposes the order lifecycle: placement, status workflow, tracking.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetOrderForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, filter ListFilter) (*OrderPage, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus, updatedBy string) (*models.Order, error)
	CancelOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	GetTrackingFeed(ctx context.Context, orderID uuid.UUID) ([]models.OrderTrackingEvent, error)
	Snapshot(ctx context.Context, orderID uuid.UUID) (*TrackingSnapshot, error)
}

type service struct {
	repo      OrdersRepository
	tx        txRunner
	users     userOrderAppender
	events    outboxEmitter
	publisher snapshotPublisher
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the order service backed by the provided stack. The
// publisher may be nil when no live feed is wired (workers, tests).
func NewService(repo OrdersRepository, tx txRunner, users userOrderAppender, events outboxEmitter, publisher snapshotPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if users == nil {
		return nil, fmt.Errorf("user order appender required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		users:     users,
		events:    events,
		publisher: publisher,
		logg:      logg,
		now:       time.Now,
	}, nil
}

// OrderItemInput snapshots one cart line at checkout time.
type OrderItemInput struct {
	ProductID    uuid.UUID
	ProductName  string
	Quantity     int
	Price        decimal.Decimal
	ProductImage string
}

// CreateOrderInput carries everything needed to persist a new order.
type CreateOrderInput struct {
	UserID         uuid.UUID
	CustomerName   string
	CustomerEmail  string
	Items          []OrderItemInput
	Total          decimal.Decimal
	ShippingStreet string
	ShippingCity   string
	ShippingZip    string
	CouponCode     string
}

// OrderPage is one admin listing page with the cursor for the next.
type OrderPage struct {
	Orders     []models.Order
	NextCursor string
}

// TrackingSnapshot is the full-replacement payload pushed to live watchers.
// Consumers replace their cached state wholesale on every message.
type TrackingSnapshot struct {
	Order  *models.Order               `json:"order"`
	Events []models.OrderTrackingEvent `json:"events"`
}

// CreateOrder persists the order, the owner's order-id list entry, the first
// tracking event, and the outbox row in a single transaction. The status is
// forced to the initial placed state regardless of caller input.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	if strings.TrimSpace(input.CustomerEmail) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	if input.Total.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total cannot be negative")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil || item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "order items must reference a product with positive quantity")
		}
	}

	now := s.now()
	order := &models.Order{
		ID:             uuid.New(),
		UserID:         input.UserID,
		CustomerName:   strings.TrimSpace(input.CustomerName),
		CustomerEmail:  strings.TrimSpace(input.CustomerEmail),
		Date:           now,
		Status:         enums.OrderStatusPlaced,
		Total:          input.Total,
		ShippingStreet: input.ShippingStreet,
		ShippingCity:   input.ShippingCity,
		ShippingZip:    input.ShippingZip,
	}
	for _, item := range input.Items {
		order.Items = append(order.Items, models.OrderItem{
			ID:           uuid.New(),
			OrderID:      order.ID,
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			Quantity:     item.Quantity,
			Price:        item.Price,
			ProductImage: item.ProductImage,
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.Create(ctx, order); err != nil {
			return err
		}
		if err := s.users.AppendOrderID(ctx, tx, input.UserID, order.ID); err != nil {
			return err
		}
		note := orderCreatedNote
		if err := repo.AppendTrackingEvent(ctx, &models.OrderTrackingEvent{
			ID:        uuid.New(),
			OrderID:   order.ID,
			Status:    enums.OrderStatusPlaced,
			Timestamp: now,
			Location:  trackingLocation,
			Notes:     &note,
		}); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.UserID},
			Data: payloads.OrderCreatedEvent{
				OrderID:       order.ID,
				UserID:        input.UserID,
				CustomerName:  order.CustomerName,
				CustomerEmail: order.CustomerEmail,
				Total:         order.Total.StringFixed(2),
				CouponCode:    input.CouponCode,
				PlacedAt:      now,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	s.publishSnapshot(ctx, order.ID)
	return order, nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// GetOrderForUser restricts the lookup to the owning customer. A foreign
// order reads as not found, not forbidden, to avoid leaking order ids.
func (s *service) GetOrderForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, filter ListFilter) (*OrderPage, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	rows, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	limit := pagination.NormalizeLimit(filter.Limit)
	page := &OrderPage{Orders: rows}
	if len(rows) > limit {
		page.Orders = rows[:limit]
		last := page.Orders[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

func (s *service) ListUserOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list user orders")
	}
	return rows, nil
}

// UpdateStatus overwrites the status and appends the matching tracking event.
// There is no transition table: the back office may move an order to any
// status. The customer email for terminal states is sent by the notifier off
// the outbox event, never inline.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus, updatedBy string) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if strings.TrimSpace(updatedBy) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "updatedBy is required")
	}

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		updated, err := repo.UpdateStatus(ctx, orderID, status)
		if err != nil {
			return err
		}
		if !updated {
			return gorm.ErrRecordNotFound
		}
		note := fmt.Sprintf("Status updated to %s by %s.", status, updatedBy)
		if err := repo.AppendTrackingEvent(ctx, &models.OrderTrackingEvent{
			ID:        uuid.New(),
			OrderID:   orderID,
			Status:    status,
			Timestamp: now,
			Location:  trackingLocation,
			Notes:     &note,
		}); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:       orderID,
				UserID:        order.UserID,
				CustomerName:  order.CustomerName,
				CustomerEmail: order.CustomerEmail,
				Status:        status,
				UpdatedBy:     updatedBy,
				ChangedAt:     now,
			},
			Version: 1,
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}

	order.Status = status
	s.publishSnapshot(ctx, orderID)
	return order, nil
}

// CancelOrder is the customer-facing cancellation. Unlike the admin workflow
// it re-validates server side: the order must still be in the initial placed
// state, checked atomically so a racing fulfilment update wins.
func (s *service) CancelOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := s.GetOrderForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		moved, err := repo.UpdateStatusIf(ctx, orderID, enums.OrderStatusPlaced, enums.OrderStatusCancelled)
		if err != nil {
			return err
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled")
		}
		note := fmt.Sprintf("Status updated to %s by %s.", enums.OrderStatusCancelled, "customer")
		if err := repo.AppendTrackingEvent(ctx, &models.OrderTrackingEvent{
			ID:        uuid.New(),
			OrderID:   orderID,
			Status:    enums.OrderStatusCancelled,
			Timestamp: now,
			Location:  trackingLocation,
			Notes:     &note,
		}); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: payloads.OrderStatusChangedEvent{
				OrderID:       orderID,
				UserID:        userID,
				CustomerName:  order.CustomerName,
				CustomerEmail: order.CustomerEmail,
				Status:        enums.OrderStatusCancelled,
				UpdatedBy:     "customer",
				ChangedAt:     now,
			},
			Version: 1,
		})
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeStateConflict {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}

	order.Status = enums.OrderStatusCancelled
	s.publishSnapshot(ctx, orderID)
	return order, nil
}

// GetTrackingFeed returns the order's events sorted ascending by timestamp.
// The sort happens here on the reading side; storage order is not relied on.
func (s *service) GetTrackingFeed(ctx context.Context, orderID uuid.UUID) ([]models.OrderTrackingEvent, error) {
	events, err := s.repo.ListTrackingEvents(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tracking events")
	}
	sortEventsAscending(events)
	return events, nil
}

// Snapshot assembles the full-replacement payload for live subscribers.
func (s *service) Snapshot(ctx context.Context, orderID uuid.UUID) (*TrackingSnapshot, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	events, err := s.GetTrackingFeed(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &TrackingSnapshot{Order: order, Events: events}, nil
}

func (s *service) publishSnapshot(ctx context.Context, orderID uuid.UUID) {
	if s.publisher == nil {
		return
	}
	snapshot, err := s.Snapshot(ctx, orderID)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, orderID.String()), "building order snapshot for publish failed")
		}
		return
	}
	s.publisher.PublishOrderSnapshot(ctx, orderID.String(), snapshot)
}

func sortEventsAscending(events []models.OrderTrackingEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}
