package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"farmart/internal/apperrors"
)

// PaymentService talks to the external payment collaborator. The collaborator
// takes the buyer's phone number and MPesa name and answers with a
// confirmation message; settlement lands back later through the payment
// callback endpoint, which drives the order's paymentStatus.
type PaymentService struct {
	baseURL string
	client  *http.Client
}

// NewPaymentService creates a new PaymentService. baseURL may be empty when
// no collaborator is configured; initiation then fails with a Validation
// error.
func NewPaymentService(baseURL string) *PaymentService {
	return &PaymentService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// InitiatePaymentRequest is what the collaborator expects.
type InitiatePaymentRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,min=9,max=15"`
	MpesaName   string `json:"mpesaName" validate:"required,min=2,max=100"`
}

// InitiatePayment forwards the payment request and returns the
// collaborator's confirmation message.
func (s *PaymentService) InitiatePayment(ctx context.Context, req InitiatePaymentRequest) (string, error) {
	if s.baseURL == "" {
		return "", fmt.Errorf("payment collaborator is not configured: %w", apperrors.ErrValidation)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/initiate-payment", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build payment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("payment request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("payment collaborator responded with status %d", resp.StatusCode)
	}

	var out struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode payment response: %w", err)
	}
	return out.Message, nil
}
