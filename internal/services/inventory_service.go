package services

import (
	"errors"
	"fmt"
	"log"

	"farmart/internal/models"
	"farmart/internal/repositories"
)

// InventoryService is the inventory ledger. It owns every animal status
// transition; anything outside the transition table is refused by the
// conditional repository updates it delegates to.
type InventoryService struct {
	animalRepo repositories.AnimalRepository
}

// NewInventoryService creates a new InventoryService.
func NewInventoryService(animalRepo repositories.AnimalRepository) *InventoryService {
	return &InventoryService{
		animalRepo: animalRepo,
	}
}

// Reserve marks a single animal as held by a pending order. Fails with a
// Conflict error when the animal is not currently available, so at most one
// order can hold a reservation.
func (s *InventoryService) Reserve(animalID string) error {
	return s.animalRepo.Reserve(animalID)
}

// ReserveAll reserves every item of a new order in sequence. When a
// reservation fails, the already reserved prefix is released again so a
// half-reserved order never reaches the store.
func (s *InventoryService) ReserveAll(items []models.OrderItem) error {
	for i, item := range items {
		if err := s.animalRepo.Reserve(item.AnimalID); err != nil {
			s.releaseAll(items[:i])
			return fmt.Errorf("failed to reserve animal %s: %w", item.AnimalID, err)
		}
	}
	return nil
}

// ReleaseAll returns a set of reserved items to the catalog. Used to
// compensate when order persistence fails after reservation.
func (s *InventoryService) ReleaseAll(items []models.OrderItem) {
	s.releaseAll(items)
}

func (s *InventoryService) releaseAll(items []models.OrderItem) {
	for _, item := range items {
		if err := s.animalRepo.Release(item.AnimalID, models.OrderCancelled); err != nil {
			log.Printf("Failed to release animal %s while compensating: %v", item.AnimalID, err)
		}
	}
}

// ApplyOrderDecision applies the per-animal side effect of an order decision:
// confirmed marks every item sold, rejected and cancelled return every item
// to the catalog. Statuses outside the decision set carry no ledger side
// effect. Updates are per item with no rollback; all failures are collected
// and returned so the caller can re-query and reconcile.
func (s *InventoryService) ApplyOrderDecision(order *models.Order, decision models.OrderStatus) error {
	var errs []error
	for _, item := range order.Items {
		var err error
		switch decision {
		case models.OrderConfirmed:
			err = s.animalRepo.MarkSold(item.AnimalID, order.BuyerID, order.ID)
		case models.OrderRejected, models.OrderCancelled:
			err = s.animalRepo.Release(item.AnimalID, decision)
		default:
			continue
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
