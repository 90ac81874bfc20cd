package handlers

import (
	"fmt"
	"log"

	"farmart/internal/apperrors"
	"farmart/internal/models"
	"farmart/internal/repositories"
	"farmart/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// PaymentHandler bridges orders to the external payment collaborator and
// receives its settlement callback.
type PaymentHandler struct {
	payments *services.PaymentService
	orders   *services.OrderService
	validate *validator.Validate
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(payments *services.PaymentService, orders *services.OrderService) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		orders:   orders,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the payment routes. Initiation sits behind the
// given auth middleware; the callback stays public because the collaborator
// calls it without a user token.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router, mw ...fiber.Handler) {
	router.Post("/payments/initiate", withMiddleware(mw, h.HandleInitiatePayment)...)
	router.Post("/payments/callback", h.HandlePaymentCallback)
}

// InitiatePaymentRequest represents the request body for starting a payment.
type InitiatePaymentRequest struct {
	OrderID     string `json:"orderId" validate:"required,uuid"`
	PhoneNumber string `json:"phoneNumber" validate:"required,min=9,max=15"`
	MpesaName   string `json:"mpesaName" validate:"required,min=2,max=100"`
}

// HandleInitiatePayment forwards a payment request for an existing order and
// returns the collaborator's confirmation message.
func (h *PaymentHandler) HandleInitiatePayment(c *fiber.Ctx) error {
	var req InitiatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing payment request body: %v", err)
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

	orders, err := h.orders.FindOrders(repositories.OrderFilter{OrderID: req.OrderID}, false)
	if err != nil {
		log.Printf("Error looking up order %s: %v", req.OrderID, err)
		return errorJSON(c, "Could not initiate payment", err)
	}
	if len(orders) == 0 {
		return errorJSON(c, "Could not initiate payment",
			fmt.Errorf("order %s: %w", req.OrderID, apperrors.ErrNotFound))
	}

	confirmation, err := h.payments.InitiatePayment(c.Context(), services.InitiatePaymentRequest{
		PhoneNumber: req.PhoneNumber,
		MpesaName:   req.MpesaName,
	})
	if err != nil {
		log.Printf("Error initiating payment for order %s: %v", req.OrderID, err)
		return errorJSON(c, "Could not initiate payment", err)
	}

	return c.JSON(fiber.Map{
		"message": confirmation,
	})
}

// PaymentCallbackRequest represents the collaborator's settlement callback.
type PaymentCallbackRequest struct {
	OrderID string `json:"orderId" validate:"required,uuid"`
	Result  string `json:"result" validate:"required,oneof=paid failed"`
}

// HandlePaymentCallback records the payment outcome against the order by
// driving its paymentStatus through the lifecycle engine.
func (h *PaymentHandler) HandlePaymentCallback(c *fiber.Ctx) error {
	var req PaymentCallbackRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing payment callback body: %v", err)
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

	payment := models.PaymentStatus(req.Result)
	update, err := h.orders.UpdateOrderStatus(req.OrderID, nil, &payment)
	if err != nil {
		log.Printf("Error recording payment result for order %s: %v", req.OrderID, err)
		return errorJSON(c, "Could not record payment result", err)
	}

	return c.JSON(fiber.Map{
		"message": "Payment result recorded",
		"update":  update,
	})
}
