package handlers

import (
	"log"

	"farmart/internal/models"
	"farmart/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AnimalHandler handles HTTP requests for animal listings: public catalog
// browsing plus farmer-side listing management.
type AnimalHandler struct {
	animals  *services.AnimalService
	catalog  *services.CatalogService
	validate *validator.Validate
}

// NewAnimalHandler creates a new AnimalHandler.
func NewAnimalHandler(animals *services.AnimalService, catalog *services.CatalogService) *AnimalHandler {
	return &AnimalHandler{
		animals:  animals,
		catalog:  catalog,
		validate: validator.New(),
	}
}

// RegisterPublicRoutes registers catalog browsing, which requires no login.
func (h *AnimalHandler) RegisterPublicRoutes(router fiber.Router) {
	router.Get("/animals", h.HandleGetAnimals)
	router.Get("/animals/breeds", h.HandleGetBreeds)
}

// RegisterFarmerRoutes registers listing management. The middleware (auth
// plus the farmer-role check) runs per route because GET on the same path is
// public.
func (h *AnimalHandler) RegisterFarmerRoutes(router fiber.Router, mw ...fiber.Handler) {
	router.Post("/animals", withMiddleware(mw, h.HandleCreateAnimal)...)
	router.Put("/animals", withMiddleware(mw, h.HandleUpdateAnimal)...)
	router.Delete("/animals", withMiddleware(mw, h.HandleDeleteAnimal)...)
}

// HandleGetAnimals lists animals. With ?farmerId= it returns that farmer's
// listings in every status; otherwise the available catalog, optionally
// narrowed and ordered with ?search=&breed=&age=&sort=.
func (h *AnimalHandler) HandleGetAnimals(c *fiber.Ctx) error {
	if farmerID := c.Query("farmerId"); farmerID != "" {
		animals, err := h.animals.ListByFarmer(farmerID)
		if err != nil {
			log.Printf("Error getting animals for farmer %s: %v", farmerID, err)
			return errorJSON(c, "Could not retrieve animals", err)
		}
		return c.JSON(animals)
	}

	animals, err := h.animals.ListAvailable()
	if err != nil {
		log.Printf("Error getting available animals: %v", err)
		return errorJSON(c, "Could not retrieve animals", err)
	}

	query := services.CatalogQuery{
		Search:     c.Query("search"),
		Breed:      c.Query("breed"),
		AgeBracket: c.Query("age"),
		SortBy:     c.Query("sort"),
	}
	return c.JSON(h.catalog.Filter(animals, query))
}

// HandleGetBreeds returns the distinct breeds in the available catalog, for
// the filter dropdown.
func (h *AnimalHandler) HandleGetBreeds(c *fiber.Ctx) error {
	animals, err := h.animals.ListAvailable()
	if err != nil {
		log.Printf("Error getting available animals: %v", err)
		return errorJSON(c, "Could not retrieve breeds", err)
	}
	return c.JSON(fiber.Map{
		"breeds": h.catalog.Breeds(animals),
	})
}

// AnimalRequest represents the request body for creating or updating a
// listing.
type AnimalRequest struct {
	ID          string   `json:"id" validate:"omitempty,uuid"`
	FarmerID    string   `json:"farmerId" validate:"required,uuid"`
	Type        string   `json:"type" validate:"required,min=2,max=50"`
	Breed       string   `json:"breed" validate:"required,min=2,max=50"`
	Age         int      `json:"age" validate:"gte=0"`
	Price       float64  `json:"price" validate:"required,gt=0"`
	Description string   `json:"description" validate:"omitempty,max=500"`
	Images      []string `json:"images" validate:"omitempty,dive,max=500"`
}

func (r *AnimalRequest) toModel() models.Animal {
	return models.Animal{
		ID:          r.ID,
		FarmerID:    r.FarmerID,
		Type:        r.Type,
		Breed:       r.Breed,
		Age:         r.Age,
		Price:       r.Price,
		Description: r.Description,
		Images:      r.Images,
	}
}

// HandleCreateAnimal lists a new animal for sale.
func (h *AnimalHandler) HandleCreateAnimal(c *fiber.Ctx) error {
	var req AnimalRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing animal request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationMessages(err),
		})
	}

	animal := req.toModel()
	if err := h.animals.CreateListing(&animal); err != nil {
		log.Printf("Error creating animal listing: %v", err)
		return errorJSON(c, "Could not create animal listing", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Animal listed successfully",
		"animal":  animal,
	})
}

// HandleUpdateAnimal applies a farmer edit. The listing id travels in the
// body.
func (h *AnimalHandler) HandleUpdateAnimal(c *fiber.Ctx) error {
	var req AnimalRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing animal request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationMessages(err),
		})
	}
	if req.ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Animal id is required for update",
		})
	}

	animal := req.toModel()
	updated, err := h.animals.UpdateListing(&animal)
	if err != nil {
		log.Printf("Error updating animal %s: %v", req.ID, err)
		return errorJSON(c, "Could not update animal", err)
	}

	return c.JSON(fiber.Map{
		"message": "Animal updated successfully",
		"animal":  updated,
	})
}

// HandleDeleteAnimal removes a listing by ?id=. Reserved or sold animals
// cannot be deleted.
func (h *AnimalHandler) HandleDeleteAnimal(c *fiber.Ctx) error {
	id := c.Query("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Animal id is required for deletion",
		})
	}

	if err := h.animals.DeleteListing(id); err != nil {
		log.Printf("Error deleting animal %s: %v", id, err)
		return errorJSON(c, "Could not delete animal", err)
	}

	return c.JSON(fiber.Map{
		"message": "Animal deleted successfully",
	})
}
