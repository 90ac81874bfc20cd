package models

import "time"

// OrderStatus tracks the farmer's decision on an order. All states other
// than pending are terminal.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderRejected  OrderStatus = "rejected"
	OrderCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderConfirmed, OrderRejected, OrderCancelled},
	OrderConfirmed: {},
	OrderRejected:  {},
	OrderCancelled: {},
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransitionTo reports whether a move from s to next is defined.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentStatus is tracked independently of the order status and driven by
// the payment callback.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending: {PaymentPaid, PaymentFailed},
	PaymentPaid:    {},
	PaymentFailed:  {},
}

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	_, ok := paymentTransitions[s]
	return ok
}

// CanTransitionTo reports whether a move from s to next is defined.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// OrderItem is a single animal within an order. Price is a snapshot taken at
// order time and never recomputed against the listing.
type OrderItem struct {
	ID       uint    `json:"-" gorm:"primaryKey"`
	OrderID  string  `json:"-" gorm:"index;type:varchar(36)"`
	AnimalID string  `json:"animalId" gorm:"type:varchar(36)" validate:"required,uuid"`
	FarmerID string  `json:"farmerId" gorm:"index;type:varchar(36)" validate:"required,uuid"`
	Price    float64 `json:"price" validate:"required,gt=0"`

	// Read-time snapshots filled in when an order query asks for population.
	// Never persisted.
	Animal *Animal        `json:"animal,omitempty" gorm:"-"`
	Farmer *FarmerContact `json:"farmer,omitempty" gorm:"-"`
}

// Order represents a buyer's checkout of one or more animals.
//
// TotalAmount is fixed at creation as the sum of item price snapshots and
// never changes, regardless of later edits to the referenced animals.
type Order struct {
	ID            string        `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BuyerID       string        `json:"buyerId" gorm:"index;type:varchar(36)"`
	Items         []OrderItem   `json:"items" gorm:"foreignKey:OrderID;references:ID"`
	TotalAmount   float64       `json:"totalAmount"`
	Status        OrderStatus   `json:"status" gorm:"type:varchar(16)"`
	PaymentStatus PaymentStatus `json:"paymentStatus" gorm:"type:varchar(16)"`
	PaymentMethod string        `json:"paymentMethod,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}
