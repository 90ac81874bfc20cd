package services

import (
	"fmt"
	"log"

	"farmart/internal/apperrors"
	"farmart/internal/models"
	"farmart/internal/repositories"
	"farmart/pkg/rabbitmq"

	"github.com/google/uuid"
)

// OrderEventPublisher publishes order lifecycle events. *rabbitmq.Client
// implements it; tests substitute a mock.
type OrderEventPublisher interface {
	PublishOrderEvent(event rabbitmq.OrderEvent) error
}

// CreateOrderRequest is a buyer checkout: the cart lines plus the chosen
// payment method. Item prices are snapshots supplied by the caller and are
// not re-validated against the current listing price.
type CreateOrderRequest struct {
	BuyerID       string             `json:"buyerId" validate:"required,uuid"`
	Items         []models.OrderItem `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string             `json:"paymentMethod" validate:"omitempty,max=50"`
}

// StatusUpdate is the summary returned from a status update. The full
// updated order body is not returned; callers re-query if they need it.
type StatusUpdate struct {
	OrderID               string               `json:"orderId"`
	PreviousStatus        models.OrderStatus   `json:"previousStatus"`
	Status                models.OrderStatus   `json:"status"`
	PreviousPaymentStatus models.PaymentStatus `json:"previousPaymentStatus"`
	PaymentStatus         models.PaymentStatus `json:"paymentStatus"`
}

// OrderService is the order lifecycle engine. It owns order status and
// payment status transitions and drives the matching inventory ledger
// updates.
type OrderService struct {
	orderRepo  repositories.OrderRepository
	animalRepo repositories.AnimalRepository
	userRepo   repositories.UserRepository
	inventory  *InventoryService
	publisher  OrderEventPublisher
}

// NewOrderService creates a new OrderService. publisher may be nil, in which
// case event publication is skipped.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	animalRepo repositories.AnimalRepository,
	userRepo repositories.UserRepository,
	inventory *InventoryService,
	publisher OrderEventPublisher,
) *OrderService {
	return &OrderService{
		orderRepo:  orderRepo,
		animalRepo: animalRepo,
		userRepo:   userRepo,
		inventory:  inventory,
		publisher:  publisher,
	}
}

// CreateOrder reserves every item and persists the order as pending/pending.
// TotalAmount is fixed here as the sum of the item price snapshots and never
// recomputed. A reservation conflict aborts the whole order.
func (s *OrderService) CreateOrder(req CreateOrderRequest) (*models.Order, error) {
	if req.BuyerID == "" || len(req.Items) == 0 {
		return nil, fmt.Errorf("buyerId and at least one item are required: %w", apperrors.ErrValidation)
	}

	var totalAmount float64
	for _, item := range req.Items {
		totalAmount += item.Price
	}

	if err := s.inventory.ReserveAll(req.Items); err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:            uuid.New().String(),
		BuyerID:       req.BuyerID,
		Items:         req.Items,
		TotalAmount:   totalAmount,
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentPending,
		PaymentMethod: req.PaymentMethod,
	}

	if err := s.orderRepo.Create(order); err != nil {
		// The reservations would leak without this release pass.
		s.inventory.ReleaseAll(req.Items)
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}

	s.publishEvent(rabbitmq.EventOrderCreated, order)

	return order, nil
}

// UpdateOrderStatus applies a partial status update. Either field may be nil.
// Transitions outside the tables (including any move out of a terminal
// state) fail with a Validation error before anything is written. For the
// three decision statuses the matching ledger side effect is applied per
// item after the order row is updated.
func (s *OrderService) UpdateOrderStatus(orderID string, status *models.OrderStatus, payment *models.PaymentStatus) (*StatusUpdate, error) {
	if orderID == "" {
		return nil, fmt.Errorf("orderId is required: %w", apperrors.ErrValidation)
	}
	if status == nil && payment == nil {
		return nil, fmt.Errorf("status or paymentStatus is required: %w", apperrors.ErrValidation)
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	if status != nil {
		if !status.Valid() {
			return nil, fmt.Errorf("unknown order status %q: %w", *status, apperrors.ErrValidation)
		}
		if !order.Status.CanTransitionTo(*status) {
			return nil, fmt.Errorf("order status %s -> %s is not defined: %w", order.Status, *status, apperrors.ErrValidation)
		}
	}
	if payment != nil {
		if !payment.Valid() {
			return nil, fmt.Errorf("unknown payment status %q: %w", *payment, apperrors.ErrValidation)
		}
		if !order.PaymentStatus.CanTransitionTo(*payment) {
			return nil, fmt.Errorf("payment status %s -> %s is not defined: %w", order.PaymentStatus, *payment, apperrors.ErrValidation)
		}
	}

	if err := s.orderRepo.UpdateStatus(orderID, status, payment); err != nil {
		return nil, err
	}

	summary := &StatusUpdate{
		OrderID:               orderID,
		PreviousStatus:        order.Status,
		Status:                order.Status,
		PreviousPaymentStatus: order.PaymentStatus,
		PaymentStatus:         order.PaymentStatus,
	}
	if status != nil {
		summary.Status = *status
	}
	if payment != nil {
		summary.PaymentStatus = *payment
	}

	if status != nil {
		if err := s.inventory.ApplyOrderDecision(order, *status); err != nil {
			// Ledger updates are per item with no rollback: the order row
			// is already updated, some animals may be too. Surface the
			// failure so the caller re-queries and reconciles.
			return nil, fmt.Errorf("order %s updated but ledger update failed: %w", orderID, err)
		}
	}

	order.Status = summary.Status
	order.PaymentStatus = summary.PaymentStatus
	s.publishEvent(rabbitmq.EventOrderStatusChanged, order)

	return summary, nil
}

// FindOrders returns orders matching the filter. With populate set, each
// item is enriched with a read-time animal snapshot and the farmer's contact
// details; a missing referent leaves the snapshot nil rather than failing
// the read. The join is computed here and never stored.
func (s *OrderService) FindOrders(filter repositories.OrderFilter, populate bool) ([]models.Order, error) {
	orders, err := s.orderRepo.Find(filter)
	if err != nil {
		return nil, err
	}
	if !populate {
		return orders, nil
	}

	for i := range orders {
		for j := range orders[i].Items {
			item := &orders[i].Items[j]
			if animal, err := s.animalRepo.GetByID(item.AnimalID); err == nil {
				item.Animal = animal
			}
			if farmer, err := s.userRepo.GetByID(item.FarmerID); err == nil && farmer.Role == models.RoleFarmer {
				contact := farmer.Contact()
				item.Farmer = &contact
			}
		}
	}
	return orders, nil
}

func (s *OrderService) publishEvent(event string, order *models.Order) {
	if s.publisher == nil {
		log.Println("Event publisher is not configured. Skipping publication.")
		return
	}
	err := s.publisher.PublishOrderEvent(rabbitmq.OrderEvent{
		Event:         event,
		OrderID:       order.ID,
		BuyerID:       order.BuyerID,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		TotalAmount:   order.TotalAmount,
	})
	if err != nil {
		log.Printf("Warning: Failed to publish %s for order %s: %v", event, order.ID, err)
	}
}
