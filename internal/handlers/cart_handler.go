package handlers

import (
	"errors"
	"log"

	"farmart/internal/cart"
	"farmart/internal/models"
	"farmart/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler handles the buyer's persisted cart and checkout.
type CartHandler struct {
	cart     *cart.Cart
	animals  *services.AnimalService
	orders   *services.OrderService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(c *cart.Cart, animals *services.AnimalService, orders *services.OrderService) *CartHandler {
	return &CartHandler{
		cart:     c,
		animals:  animals,
		orders:   orders,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the cart routes behind the given middleware
// (auth plus the buyer-role check).
func (h *CartHandler) RegisterRoutes(router fiber.Router, mw ...fiber.Handler) {
	cartRoutes := router.Group("/cart", mw...)
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/", h.HandleAddToCart)
	cartRoutes.Delete("/", h.HandleClearCart)
	cartRoutes.Delete("/:animalId", h.HandleRemoveFromCart)
	cartRoutes.Post("/checkout", h.HandleCheckout)
}

func buyerID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

// HandleGetCart returns the buyer's cart lines and their total.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	buyer := buyerID(c)
	items, err := h.cart.Items(c.Context(), buyer)
	if err != nil {
		log.Printf("Error loading cart for %s: %v", buyer, err)
		return errorJSON(c, "Could not load cart", err)
	}
	total, err := h.cart.Total(c.Context(), buyer)
	if err != nil {
		log.Printf("Error totalling cart for %s: %v", buyer, err)
		return errorJSON(c, "Could not load cart", err)
	}
	return c.JSON(fiber.Map{
		"items": items,
		"total": total,
	})
}

// AddToCartRequest represents the request body for adding an animal.
type AddToCartRequest struct {
	AnimalID string `json:"animalId" validate:"required,uuid"`
}

// HandleAddToCart puts an animal into the cart with a price snapshot taken
// from the current listing. Only available animals can be added.
func (h *CartHandler) HandleAddToCart(c *fiber.Ctx) error {
	var req AddToCartRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing cart request body: %v", err)
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

	animal, err := h.animals.GetByID(req.AnimalID)
	if err != nil {
		log.Printf("Error loading animal %s: %v", req.AnimalID, err)
		return errorJSON(c, "Could not add to cart", err)
	}
	if animal.Status != models.AnimalAvailable {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Animal is no longer available",
		})
	}

	buyer := buyerID(c)
	line := cart.Line{AnimalID: animal.ID, Price: animal.Price}
	if err := h.cart.Add(c.Context(), buyer, line); err != nil {
		log.Printf("Error adding animal %s to cart for %s: %v", req.AnimalID, buyer, err)
		if errors.Is(err, cart.ErrCartFull) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Cart has reached maximum capacity",
				"error":   err.Error(),
			})
		}
		return errorJSON(c, "Could not add to cart", err)
	}

	return c.JSON(fiber.Map{
		"message": "Animal added to cart",
	})
}

// HandleRemoveFromCart drops a single line.
func (h *CartHandler) HandleRemoveFromCart(c *fiber.Ctx) error {
	buyer := buyerID(c)
	if err := h.cart.Remove(c.Context(), buyer, c.Params("animalId")); err != nil {
		log.Printf("Error removing from cart for %s: %v", buyer, err)
		return errorJSON(c, "Could not remove from cart", err)
	}
	return c.JSON(fiber.Map{
		"message": "Animal removed from cart",
	})
}

// HandleClearCart empties the cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	buyer := buyerID(c)
	if err := h.cart.Clear(c.Context(), buyer); err != nil {
		log.Printf("Error clearing cart for %s: %v", buyer, err)
		return errorJSON(c, "Could not clear cart", err)
	}
	return c.JSON(fiber.Map{
		"message": "Cart cleared",
	})
}

// CheckoutRequest represents the request body for checkout.
type CheckoutRequest struct {
	PaymentMethod string `json:"paymentMethod" validate:"omitempty,max=50"`
}

// HandleCheckout turns the cart contents into an order and clears the cart
// once the order is accepted.
func (h *CartHandler) HandleCheckout(c *fiber.Ctx) error {
	// The body is optional; an absent payment method stays empty.
	var req CheckoutRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			log.Printf("Error parsing checkout body: %v", err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid request body",
				"error":   err.Error(),
			})
		}
	}

	buyer := buyerID(c)
	lines, err := h.cart.Items(c.Context(), buyer)
	if err != nil {
		log.Printf("Error loading cart for %s: %v", buyer, err)
		return errorJSON(c, "Could not check out", err)
	}
	if len(lines) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Cart is empty",
		})
	}

	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		animal, err := h.animals.GetByID(line.AnimalID)
		if err != nil {
			log.Printf("Error loading animal %s at checkout: %v", line.AnimalID, err)
			return errorJSON(c, "Could not check out", err)
		}
		items = append(items, models.OrderItem{
			AnimalID: animal.ID,
			FarmerID: animal.FarmerID,
			Price:    line.Price, // snapshot taken when the line was added
		})
	}

	order, err := h.orders.CreateOrder(services.CreateOrderRequest{
		BuyerID:       buyer,
		Items:         items,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		log.Printf("Error creating order at checkout for %s: %v", buyer, err)
		return errorJSON(c, "Could not check out", err)
	}

	if err := h.cart.Clear(c.Context(), buyer); err != nil {
		// The order exists; a stale cart is an inconvenience, not a failure.
		log.Printf("Warning: failed to clear cart for %s after checkout: %v", buyer, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order created successfully",
		"order":   order,
	})
}
