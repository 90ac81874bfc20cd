package models

import "time"

// AnimalStatus tracks where a listing sits in the sale lifecycle.
type AnimalStatus string

const (
	AnimalAvailable AnimalStatus = "available"
	AnimalReserved  AnimalStatus = "reserved"
	AnimalSold      AnimalStatus = "sold"
)

// animalTransitions is the only set of status moves the inventory ledger
// performs. There is no path out of "sold" through order decisions.
var animalTransitions = map[AnimalStatus][]AnimalStatus{
	AnimalAvailable: {AnimalReserved},
	AnimalReserved:  {AnimalSold, AnimalAvailable},
	AnimalSold:      {},
}

// Valid reports whether s is a known animal status.
func (s AnimalStatus) Valid() bool {
	_, ok := animalTransitions[s]
	return ok
}

// CanTransitionTo reports whether the ledger defines a move from s to next.
func (s AnimalStatus) CanTransitionTo(next AnimalStatus) bool {
	for _, allowed := range animalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Animal represents a livestock listing owned by a farmer.
//
// Invariants maintained by the inventory ledger: a sold animal always carries
// SoldTo and OrderReference; an available animal never does.
type Animal struct {
	ID          string       `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	FarmerID    string       `json:"farmerId" gorm:"index;type:varchar(36)" validate:"required,uuid"`
	Type        string       `json:"type" validate:"required,min=2,max=50"`
	Breed       string       `json:"breed" validate:"required,min=2,max=50"`
	Age         int          `json:"age" validate:"gte=0"` // months
	Price       float64      `json:"price" validate:"required,gt=0"`
	Description string       `json:"description" validate:"omitempty,max=500"`
	Images      []string     `json:"images" gorm:"serializer:json"`
	Status      AnimalStatus `json:"status" gorm:"index;type:varchar(16)"`

	// Sale fields, set on reserved -> sold and cleared when a reservation
	// is released.
	SoldAt         *time.Time `json:"soldAt,omitempty"`
	SoldTo         string     `json:"soldTo,omitempty" gorm:"type:varchar(36)"`
	OrderReference string     `json:"orderReference,omitempty" gorm:"type:varchar(36)"`

	LastRejectedAt  *time.Time `json:"lastRejectedAt,omitempty"`
	LastCancelledAt *time.Time `json:"lastCancelledAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
