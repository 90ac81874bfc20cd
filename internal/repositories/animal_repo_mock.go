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

// MockAnimalRepository is an in-memory implementation of AnimalRepository.
// It mirrors the conditional-update semantics of the GORM implementation so
// the inventory ledger behaves the same against either backend.
type MockAnimalRepository struct {
	animals map[string]models.Animal
	mu      sync.RWMutex
}

// NewMockAnimalRepository creates a new instance of MockAnimalRepository.
func NewMockAnimalRepository() *MockAnimalRepository {
	return &MockAnimalRepository{
		animals: make(map[string]models.Animal),
	}
}

func (r *MockAnimalRepository) sorted(animals []models.Animal) []models.Animal {
	sort.SliceStable(animals, func(i, j int) bool {
		return animals[i].CreatedAt.After(animals[j].CreatedAt)
	})
	return animals
}

// GetAll returns all animals, newest first.
func (r *MockAnimalRepository) GetAll() ([]models.Animal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.Animal, 0, len(r.animals))
	for _, a := range r.animals {
		list = append(list, a)
	}
	return r.sorted(list), nil
}

// GetByFarmer returns a farmer's listings regardless of status.
func (r *MockAnimalRepository) GetByFarmer(farmerID string) ([]models.Animal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var list []models.Animal
	for _, a := range r.animals {
		if a.FarmerID == farmerID {
			list = append(list, a)
		}
	}
	return r.sorted(list), nil
}

// GetByStatus returns all animals in the given status.
func (r *MockAnimalRepository) GetByStatus(status models.AnimalStatus) ([]models.Animal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var list []models.Animal
	for _, a := range r.animals {
		if a.Status == status {
			list = append(list, a)
		}
	}
	return r.sorted(list), nil
}

// GetByID returns an animal by its ID.
func (r *MockAnimalRepository) GetByID(id string) (*models.Animal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	animal, ok := r.animals[id]
	if !ok {
		return nil, fmt.Errorf("animal %s: %w", id, apperrors.ErrNotFound)
	}
	return &animal, nil
}

// Create adds a new animal listing.
func (r *MockAnimalRepository) Create(animal *models.Animal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if animal.ID == "" {
		animal.ID = uuid.New().String()
	}
	if animal.Status == "" {
		animal.Status = models.AnimalAvailable
	}
	if animal.CreatedAt.IsZero() {
		animal.CreatedAt = time.Now()
	}
	animal.UpdatedAt = time.Now()
	r.animals[animal.ID] = *animal
	return nil
}

// Update modifies an existing animal listing.
func (r *MockAnimalRepository) Update(animal *models.Animal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.animals[animal.ID]; !ok {
		return fmt.Errorf("animal %s: %w", animal.ID, apperrors.ErrNotFound)
	}
	animal.UpdatedAt = time.Now()
	r.animals[animal.ID] = *animal
	return nil
}

// Delete removes an animal by its ID.
func (r *MockAnimalRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.animals[id]; !ok {
		return fmt.Errorf("animal %s: %w", id, apperrors.ErrNotFound)
	}
	delete(r.animals, id)
	return nil
}

// Reserve moves available -> reserved.
func (r *MockAnimalRepository) Reserve(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	animal, ok := r.animals[id]
	if !ok {
		return fmt.Errorf("animal %s: %w", id, apperrors.ErrNotFound)
	}
	if animal.Status != models.AnimalAvailable {
		return fmt.Errorf("animal %s is no longer %s: %w", id, models.AnimalAvailable, apperrors.ErrConflict)
	}
	animal.Status = models.AnimalReserved
	animal.UpdatedAt = time.Now()
	r.animals[id] = animal
	return nil
}

// MarkSold moves reserved -> sold and stamps the sale fields.
func (r *MockAnimalRepository) MarkSold(id, buyerID, orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	animal, ok := r.animals[id]
	if !ok {
		return fmt.Errorf("animal %s: %w", id, apperrors.ErrNotFound)
	}
	if animal.Status != models.AnimalReserved {
		return fmt.Errorf("animal %s is no longer %s: %w", id, models.AnimalReserved, apperrors.ErrConflict)
	}
	now := time.Now()
	animal.Status = models.AnimalSold
	animal.SoldAt = &now
	animal.SoldTo = buyerID
	animal.OrderReference = orderID
	animal.UpdatedAt = now
	r.animals[id] = animal
	return nil
}

// Release moves reserved -> available and clears the sale fields.
func (r *MockAnimalRepository) Release(id string, reason models.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	animal, ok := r.animals[id]
	if !ok {
		return fmt.Errorf("animal %s: %w", id, apperrors.ErrNotFound)
	}
	if animal.Status != models.AnimalReserved {
		return fmt.Errorf("animal %s is no longer %s: %w", id, models.AnimalReserved, apperrors.ErrConflict)
	}
	now := time.Now()
	switch reason {
	case models.OrderRejected:
		animal.LastRejectedAt = &now
	case models.OrderCancelled:
		animal.LastCancelledAt = &now
	default:
		return fmt.Errorf("release reason %s: %w", reason, apperrors.ErrValidation)
	}
	animal.Status = models.AnimalAvailable
	animal.SoldAt = nil
	animal.SoldTo = ""
	animal.OrderReference = ""
	animal.UpdatedAt = now
	r.animals[id] = animal
	return nil
}
