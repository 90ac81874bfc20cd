package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"farmart/internal/apperrors"
	"farmart/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentService_InitiatePayment(t *testing.T) {
	var got services.InitiatePaymentRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/initiate-payment", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]string{
			"message": "Payment of Ksh 500 initiated. Check your phone to complete.",
		})
	}))
	defer server.Close()

	payments := services.NewPaymentService(server.URL)
	message, err := payments.InitiatePayment(context.Background(), services.InitiatePaymentRequest{
		PhoneNumber: "+254712345678",
		MpesaName:   "Wanjiku Kamau",
	})
	require.NoError(t, err)
	assert.Equal(t, "Payment of Ksh 500 initiated. Check your phone to complete.", message)
	assert.Equal(t, "+254712345678", got.PhoneNumber)
	assert.Equal(t, "Wanjiku Kamau", got.MpesaName)
}

func TestPaymentService_CollaboratorError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "kaboom", http.StatusInternalServerError)
	}))
	defer server.Close()

	payments := services.NewPaymentService(server.URL)
	_, err := payments.InitiatePayment(context.Background(), services.InitiatePaymentRequest{
		PhoneNumber: "+254712345678",
		MpesaName:   "Wanjiku Kamau",
	})
	assert.ErrorContains(t, err, "status 500")
}

func TestPaymentService_Unconfigured(t *testing.T) {
	payments := services.NewPaymentService("")
	_, err := payments.InitiatePayment(context.Background(), services.InitiatePaymentRequest{
		PhoneNumber: "+254712345678",
		MpesaName:   "Wanjiku Kamau",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestPaymentService_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	payments := services.NewPaymentService(server.URL)
	_, err := payments.InitiatePayment(ctx, services.InitiatePaymentRequest{
		PhoneNumber: "+254712345678",
		MpesaName:   "Wanjiku Kamau",
	})
	assert.Error(t, err)
}
