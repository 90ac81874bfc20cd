package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"farmart/internal/apperrors"
	"farmart/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// Find returns orders matching the filter, newest first.
func (r *MockOrderRepository) Find(filter OrderFilter) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var list []models.Order
	for _, order := range r.orders {
		if filter.OrderID != "" && order.ID != filter.OrderID {
			continue
		}
		if filter.BuyerID != "" && order.BuyerID != filter.BuyerID {
			continue
		}
		if filter.FarmerID != "" && !orderHasFarmer(order, filter.FarmerID) {
			continue
		}
		list = append(list, order)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func orderHasFarmer(order models.Order, farmerID string) bool {
	for _, item := range order.Items {
		if item.FarmerID == farmerID {
			return true
		}
	}
	return false
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, apperrors.ErrNotFound)
	}
	return &order, nil
}

// Create adds a new order.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *order
	return nil
}

// UpdateStatus applies a partial status update to an order.
func (r *MockOrderRepository) UpdateStatus(id string, status *models.OrderStatus, payment *models.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order %s: %w", id, apperrors.ErrNotFound)
	}
	if status != nil {
		order.Status = *status
	}
	if payment != nil {
		order.PaymentStatus = *payment
	}
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}
