package handlers

import (
	"log"

	"farmart/internal/models"
	"farmart/internal/repositories"
	"farmart/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes. Reading and deciding orders is
// open to any authenticated account (farmers need both); creation is
// buyer-only.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler, buyerOnly fiber.Handler) {
	router.Get("/orders", auth, h.HandleGetOrders)
	router.Post("/orders", auth, buyerOnly, h.HandleCreateOrder)
	router.Put("/orders", auth, h.HandleUpdateOrder)
}

// HandleGetOrders lists orders filtered by ?buyerId=, ?farmerId= or
// ?orderId=. With ?populate=true each item carries read-time animal and
// farmer snapshots.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	filter := repositories.OrderFilter{
		BuyerID:  c.Query("buyerId"),
		FarmerID: c.Query("farmerId"),
		OrderID:  c.Query("orderId"),
	}
	populate := c.Query("populate") == "true"

	orders, err := h.service.FindOrders(filter, populate)
	if err != nil {
		log.Printf("Error getting orders: %v", err)
		return errorJSON(c, "Could not retrieve orders", err)
	}
	return c.JSON(orders)
}

// HandleCreateOrder creates a new order from a buyer checkout and reserves
// every animal in it.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req services.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing order request body: %v", err)
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

	order, err := h.service.CreateOrder(req)
	if err != nil {
		log.Printf("Error creating order: %v", err)
		return errorJSON(c, "Could not create order", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order created successfully",
		"order":   order,
	})
}

// UpdateOrderRequest represents the request body for a status update.
// Either field may be absent.
type UpdateOrderRequest struct {
	OrderID       string `json:"orderId" validate:"required"`
	Status        string `json:"status" validate:"omitempty"`
	PaymentStatus string `json:"paymentStatus" validate:"omitempty"`
}

// HandleUpdateOrder applies a status and/or payment status update and
// returns the transition summary, not the full order body.
func (h *OrderHandler) HandleUpdateOrder(c *fiber.Ctx) error {
	var req UpdateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing order update body: %v", err)
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

	var status *models.OrderStatus
	if req.Status != "" {
		s := models.OrderStatus(req.Status)
		status = &s
	}
	var payment *models.PaymentStatus
	if req.PaymentStatus != "" {
		p := models.PaymentStatus(req.PaymentStatus)
		payment = &p
	}

	update, err := h.service.UpdateOrderStatus(req.OrderID, status, payment)
	if err != nil {
		log.Printf("Error updating order %s: %v", req.OrderID, err)
		return errorJSON(c, "Could not update order", err)
	}

	return c.JSON(fiber.Map{
		"message": "Order updated successfully",
		"update":  update,
	})
}
