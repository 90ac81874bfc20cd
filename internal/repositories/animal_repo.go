package repositories

import (
	"farmart/internal/models"
)

// AnimalRepository defines the interface for animal listing data access.
//
// Reserve, MarkSold and Release are conditional status updates: they apply
// only when the animal is still in the expected prior state and fail with
// apperrors.ErrConflict otherwise, so two concurrent orders can never both
// reserve the same animal.
type AnimalRepository interface {
	GetAll() ([]models.Animal, error)
	GetByFarmer(farmerID string) ([]models.Animal, error)
	GetByStatus(status models.AnimalStatus) ([]models.Animal, error)
	GetByID(id string) (*models.Animal, error)
	Create(animal *models.Animal) error
	Update(animal *models.Animal) error
	Delete(id string) error

	// Reserve moves available -> reserved.
	Reserve(id string) error
	// MarkSold moves reserved -> sold and stamps the sale fields.
	MarkSold(id, buyerID, orderID string) error
	// Release moves reserved -> available, clears the sale fields and
	// stamps lastRejectedAt or lastCancelledAt depending on reason
	// (rejected or cancelled).
	Release(id string, reason models.OrderStatus) error
}
