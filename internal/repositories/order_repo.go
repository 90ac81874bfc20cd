package repositories

import (
	"farmart/internal/models"
)

// OrderFilter narrows an order query. Zero-value fields are ignored.
// FarmerID matches orders containing at least one item from that farmer.
type OrderFilter struct {
	BuyerID  string
	FarmerID string
	OrderID  string
}

// OrderRepository defines the interface for order data access.
// Orders are never deleted.
type OrderRepository interface {
	Find(filter OrderFilter) ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	Create(order *models.Order) error
	// UpdateStatus applies a partial status update; a nil field is left
	// untouched.
	UpdateStatus(id string, status *models.OrderStatus, payment *models.PaymentStatus) error
}
