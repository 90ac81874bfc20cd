package repositories

import (
	"errors"
	"fmt"
	"time"

	"farmart/internal/apperrors"
	"farmart/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMAnimalRepository is a GORM implementation of AnimalRepository.
type GORMAnimalRepository struct {
	db *gorm.DB
}

// NewGORMAnimalRepository creates a new instance of GORMAnimalRepository.
func NewGORMAnimalRepository(db *gorm.DB) *GORMAnimalRepository {
	return &GORMAnimalRepository{
		db: db,
	}
}

// GetAll retrieves all animals, newest listings first.
func (r *GORMAnimalRepository) GetAll() ([]models.Animal, error) {
	var animals []models.Animal
	if err := r.db.Order("created_at DESC").Find(&animals).Error; err != nil {
		return nil, fmt.Errorf("failed to get all animals: %w", err)
	}
	return animals, nil
}

// GetByFarmer retrieves a farmer's listings regardless of status.
func (r *GORMAnimalRepository) GetByFarmer(farmerID string) ([]models.Animal, error) {
	var animals []models.Animal
	if err := r.db.Where("farmer_id = ?", farmerID).Order("created_at DESC").Find(&animals).Error; err != nil {
		return nil, fmt.Errorf("failed to get animals for farmer %s: %w", farmerID, err)
	}
	return animals, nil
}

// GetByStatus retrieves all animals in the given status, newest first.
func (r *GORMAnimalRepository) GetByStatus(status models.AnimalStatus) ([]models.Animal, error) {
	var animals []models.Animal
	if err := r.db.Where("status = ?", status).Order("created_at DESC").Find(&animals).Error; err != nil {
		return nil, fmt.Errorf("failed to get animals with status %s: %w", status, err)
	}
	return animals, nil
}

// GetByID retrieves a single animal by its ID.
func (r *GORMAnimalRepository) GetByID(id string) (*models.Animal, error) {
	var animal models.Animal
	if err := r.db.First(&animal, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("animal %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get animal by ID %s: %w", id, err)
	}
	return &animal, nil
}

// Create creates a new animal listing.
func (r *GORMAnimalRepository) Create(animal *models.Animal) error {
	if animal.ID == "" {
		animal.ID = uuid.New().String()
	}
	if animal.Status == "" {
		animal.Status = models.AnimalAvailable
	}
	if err := r.db.Create(animal).Error; err != nil {
		return fmt.Errorf("failed to create animal: %w", err)
	}
	return nil
}

// Update updates an existing animal listing.
func (r *GORMAnimalRepository) Update(animal *models.Animal) error {
	res := r.db.Save(animal)
	if res.Error != nil {
		return fmt.Errorf("failed to update animal: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Save does not return ErrRecordNotFound for a missing row, so
		// we check RowsAffected.
		return fmt.Errorf("animal %s: %w", animal.ID, apperrors.ErrNotFound)
	}
	return nil
}

// Delete deletes an animal by its ID.
func (r *GORMAnimalRepository) Delete(id string) error {
	res := r.db.Delete(&models.Animal{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete animal: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("animal %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// Reserve moves an animal from available to reserved. The WHERE clause on the
// current status makes the update conditional: a concurrent order that got
// there first leaves zero rows affected here.
func (r *GORMAnimalRepository) Reserve(id string) error {
	res := r.db.Model(&models.Animal{}).
		Where("id = ? AND status = ?", id, models.AnimalAvailable).
		Update("status", models.AnimalReserved)
	if res.Error != nil {
		return fmt.Errorf("failed to reserve animal %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return r.statusMismatch(id, models.AnimalAvailable)
	}
	return nil
}

// MarkSold moves an animal from reserved to sold and stamps the sale fields.
func (r *GORMAnimalRepository) MarkSold(id, buyerID, orderID string) error {
	now := time.Now()
	res := r.db.Model(&models.Animal{}).
		Where("id = ? AND status = ?", id, models.AnimalReserved).
		Updates(map[string]interface{}{
			"status":          models.AnimalSold,
			"sold_at":         now,
			"sold_to":         buyerID,
			"order_reference": orderID,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to mark animal %s sold: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return r.statusMismatch(id, models.AnimalReserved)
	}
	return nil
}

// Release moves an animal from reserved back to available and clears the
// sale fields.
func (r *GORMAnimalRepository) Release(id string, reason models.OrderStatus) error {
	updates := map[string]interface{}{
		"status":          models.AnimalAvailable,
		"sold_at":         nil,
		"sold_to":         "",
		"order_reference": "",
	}
	now := time.Now()
	switch reason {
	case models.OrderRejected:
		updates["last_rejected_at"] = now
	case models.OrderCancelled:
		updates["last_cancelled_at"] = now
	default:
		return fmt.Errorf("release reason %s: %w", reason, apperrors.ErrValidation)
	}

	res := r.db.Model(&models.Animal{}).
		Where("id = ? AND status = ?", id, models.AnimalReserved).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to release animal %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return r.statusMismatch(id, models.AnimalReserved)
	}
	return nil
}

// statusMismatch distinguishes a missing animal from one whose status moved
// underneath a conditional update.
func (r *GORMAnimalRepository) statusMismatch(id string, expected models.AnimalStatus) error {
	var count int64
	if err := r.db.Model(&models.Animal{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check animal %s: %w", id, err)
	}
	if count == 0 {
		return fmt.Errorf("animal %s: %w", id, apperrors.ErrNotFound)
	}
	return fmt.Errorf("animal %s is no longer %s: %w", id, expected, apperrors.ErrConflict)
}
