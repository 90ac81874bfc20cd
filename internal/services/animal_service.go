package services

import (
	"fmt"

	"farmart/internal/apperrors"
	"farmart/internal/models"
	"farmart/internal/repositories"
)

// AnimalService handles farmer-side listing management. Status transitions
// are owned by the inventory ledger, not here: farmer edits only touch the
// descriptive fields and only while the animal is still available.
type AnimalService struct {
	repo repositories.AnimalRepository
}

// NewAnimalService creates a new AnimalService.
func NewAnimalService(repo repositories.AnimalRepository) *AnimalService {
	return &AnimalService{
		repo: repo,
	}
}

// ListAvailable returns all animals buyers can currently order.
func (s *AnimalService) ListAvailable() ([]models.Animal, error) {
	return s.repo.GetByStatus(models.AnimalAvailable)
}

// ListByFarmer returns a farmer's listings regardless of status.
func (s *AnimalService) ListByFarmer(farmerID string) ([]models.Animal, error) {
	return s.repo.GetByFarmer(farmerID)
}

// GetByID retrieves a single animal.
func (s *AnimalService) GetByID(id string) (*models.Animal, error) {
	return s.repo.GetByID(id)
}

// CreateListing lists a new animal as available.
func (s *AnimalService) CreateListing(animal *models.Animal) error {
	animal.Status = models.AnimalAvailable
	animal.SoldAt = nil
	animal.SoldTo = ""
	animal.OrderReference = ""
	return s.repo.Create(animal)
}

// UpdateListing applies a farmer edit to the descriptive fields of a
// listing. Animals that are reserved or sold cannot be edited.
func (s *AnimalService) UpdateListing(animal *models.Animal) (*models.Animal, error) {
	existing, err := s.repo.GetByID(animal.ID)
	if err != nil {
		return nil, err
	}
	if existing.Status != models.AnimalAvailable {
		return nil, fmt.Errorf("animal %s is %s and cannot be edited: %w", animal.ID, existing.Status, apperrors.ErrConflict)
	}

	existing.FarmerID = animal.FarmerID
	existing.Type = animal.Type
	existing.Breed = animal.Breed
	existing.Age = animal.Age
	existing.Price = animal.Price
	existing.Description = animal.Description
	existing.Images = animal.Images

	if err := s.repo.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// DeleteListing removes a listing. An animal referenced by a live order
// (reserved) or already sold is never hard-deleted.
func (s *AnimalService) DeleteListing(id string) error {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if existing.Status != models.AnimalAvailable {
		return fmt.Errorf("animal %s is %s and cannot be deleted: %w", id, existing.Status, apperrors.ErrConflict)
	}
	return s.repo.Delete(id)
}
