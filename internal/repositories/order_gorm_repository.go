package repositories

import (
	"errors"
	"fmt"

	"farmart/internal/apperrors"
	"farmart/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
// Order items live in their own table and are preloaded on every read.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// Find returns orders matching the filter, newest first.
func (r *GORMOrderRepository) Find(filter OrderFilter) ([]models.Order, error) {
	q := r.db.Preload("Items").Order("created_at DESC")
	if filter.OrderID != "" {
		q = q.Where("id = ?", filter.OrderID)
	}
	if filter.BuyerID != "" {
		q = q.Where("buyer_id = ?", filter.BuyerID)
	}
	if filter.FarmerID != "" {
		sub := r.db.Model(&models.OrderItem{}).Select("order_id").Where("farmer_id = ?", filter.FarmerID)
		q = q.Where("id IN (?)", sub)
	}

	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}
	return orders, nil
}

// GetByID returns an order with its items.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// Create persists a new order together with its items.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// UpdateStatus applies a partial status update to an order.
func (r *GORMOrderRepository) UpdateStatus(id string, status *models.OrderStatus, payment *models.PaymentStatus) error {
	updates := map[string]interface{}{}
	if status != nil {
		updates["status"] = *status
	}
	if payment != nil {
		updates["payment_status"] = *payment
	}
	if len(updates) == 0 {
		return nil
	}

	res := r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}
