package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"farmart/internal/cart"
	"farmart/internal/handlers"
	"farmart/internal/middleware"
	"farmart/internal/models"
	"farmart/internal/repositories"
	"farmart/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testAPI wires the full route surface against in-memory repositories.
type testAPI struct {
	app     *fiber.App
	users   *repositories.MockUserRepository
	animals *repositories.MockAnimalRepository
	orders  *repositories.MockOrderRepository
}

func newTestAPI(t *testing.T, paymentURL string) *testAPI {
	t.Helper()

	api := &testAPI{
		users:   repositories.NewMockUserRepository(),
		animals: repositories.NewMockAnimalRepository(),
		orders:  repositories.NewMockOrderRepository(),
	}

	authService := services.NewAuthService(api.users, "test_secret")
	animalService := services.NewAnimalService(api.animals)
	catalogService := services.NewCatalogService()
	inventoryService := services.NewInventoryService(api.animals)
	orderService := services.NewOrderService(api.orders, api.animals, api.users, inventoryService, nil)
	paymentService := services.NewPaymentService(paymentURL)
	buyerCart := cart.New(cart.NewMemoryStore(0), 0)

	authHandler := handlers.NewAuthHandler(authService)
	animalHandler := handlers.NewAnimalHandler(animalService, catalogService)
	orderHandler := handlers.NewOrderHandler(orderService)
	cartHandler := handlers.NewCartHandler(buyerCart, animalService, orderService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, orderService)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")
	authRequired := middleware.AuthRequired(authService)
	farmerOnly := middleware.RoleRequired(models.RoleFarmer)
	buyerOnly := middleware.RoleRequired(models.RoleBuyer)

	authHandler.RegisterRoutes(apiV1)
	animalHandler.RegisterPublicRoutes(apiV1)
	orderHandler.RegisterRoutes(apiV1, authRequired, buyerOnly)
	paymentHandler.RegisterRoutes(apiV1, authRequired)
	animalHandler.RegisterFarmerRoutes(apiV1, authRequired, farmerOnly)
	cartHandler.RegisterRoutes(apiV1, authRequired, buyerOnly)

	api.app = app
	return api
}

func (api *testAPI) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := api.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// registerAndLogin creates an account through the API and returns its id and
// a usable token.
func (api *testAPI) registerAndLogin(t *testing.T, email, role string) (string, string) {
	t.Helper()

	resp := api.request(t, http.MethodPost, "/auth/register", "", fiber.Map{
		"email":    email,
		"password": "secret123",
		"role":     role,
		"name":     "Test " + role,
		"phone":    "+254700000001",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = api.request(t, http.MethodPost, "/auth/login", "", fiber.Map{
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}
	decodeBody(t, resp, &out)
	require.NotEmpty(t, out.Token)
	return out.User.ID, out.Token
}

// listAnimal creates a listing through the API and returns it.
func (api *testAPI) listAnimal(t *testing.T, farmerID, token string, price float64) models.Animal {
	t.Helper()

	resp := api.request(t, http.MethodPost, "/animals", token, fiber.Map{
		"farmerId": farmerID,
		"type":     "Cow",
		"breed":    "Friesian",
		"age":      24,
		"price":    price,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Animal models.Animal `json:"animal"`
	}
	decodeBody(t, resp, &out)
	require.NotEmpty(t, out.Animal.ID)
	return out.Animal
}

func TestAPI_RegisterAndLogin(t *testing.T) {
	api := newTestAPI(t, "")

	_, token := api.registerAndLogin(t, "farmer@example.com", models.RoleFarmer)
	assert.NotEmpty(t, token)

	// Duplicate email answers 400, not 409.
	resp := api.request(t, http.MethodPost, "/auth/register", "", fiber.Map{
		"email":    "farmer@example.com",
		"password": "secret123",
		"role":     models.RoleBuyer,
		"name":     "Second Account",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown roles are rejected by validation.
	resp = api.request(t, http.MethodPost, "/auth/register", "", fiber.Map{
		"email":    "admin@example.com",
		"password": "secret123",
		"role":     "admin",
		"name":     "Admin",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = api.request(t, http.MethodPost, "/auth/login", "", fiber.Map{
		"email":    "farmer@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_RoleGates(t *testing.T) {
	api := newTestAPI(t, "")
	farmerID, farmerToken := api.registerAndLogin(t, "farmer@example.com", models.RoleFarmer)
	_, buyerToken := api.registerAndLogin(t, "buyer@example.com", models.RoleBuyer)

	listing := fiber.Map{
		"farmerId": farmerID,
		"type":     "Cow",
		"breed":    "Friesian",
		"age":      24,
		"price":    800,
	}

	resp := api.request(t, http.MethodPost, "/animals", "", listing)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = api.request(t, http.MethodPost, "/animals", buyerToken, listing)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = api.request(t, http.MethodPost, "/animals", farmerToken, listing)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// Cart and order creation are buyer-only.
	resp = api.request(t, http.MethodGet, "/cart", farmerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = api.request(t, http.MethodPost, "/orders", farmerToken, fiber.Map{
		"buyerId": farmerID,
		"items":   []fiber.Map{},
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The catalog stays public.
	resp = api.request(t, http.MethodGet, "/animals", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_ListingLifecycle(t *testing.T) {
	api := newTestAPI(t, "")
	farmerID, farmerToken := api.registerAndLogin(t, "farmer@example.com", models.RoleFarmer)
	animal := api.listAnimal(t, farmerID, farmerToken, 800)

	// The new listing shows up in the public catalog.
	resp := api.request(t, http.MethodGet, "/animals", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var catalog []models.Animal
	decodeBody(t, resp, &catalog)
	require.Len(t, catalog, 1)
	assert.Equal(t, animal.ID, catalog[0].ID)
	assert.Equal(t, models.AnimalAvailable, catalog[0].Status)

	resp = api.request(t, http.MethodGet, "/animals/breeds", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var breeds struct {
		Breeds []string `json:"breeds"`
	}
	decodeBody(t, resp, &breeds)
	assert.Equal(t, []string{"all", "Friesian"}, breeds.Breeds)

	// Edit the listing.
	resp = api.request(t, http.MethodPut, "/animals", farmerToken, fiber.Map{
		"id":       animal.ID,
		"farmerId": farmerID,
		"type":     "Cow",
		"breed":    "Ayrshire",
		"age":      26,
		"price":    900,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated struct {
		Animal models.Animal `json:"animal"`
	}
	decodeBody(t, resp, &updated)
	assert.Equal(t, "Ayrshire", updated.Animal.Breed)

	// Delete it.
	resp = api.request(t, http.MethodDelete, "/animals?id="+animal.ID, farmerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = api.request(t, http.MethodGet, "/animals", "", nil)
	decodeBody(t, resp, &catalog)
	assert.Empty(t, catalog)
}

func TestAPI_DeleteRefusedWhileReserved(t *testing.T) {
	api := newTestAPI(t, "")
	farmerID, farmerToken := api.registerAndLogin(t, "farmer@example.com", models.RoleFarmer)
	animal := api.listAnimal(t, farmerID, farmerToken, 800)
	require.NoError(t, api.animals.Reserve(animal.ID))

	resp := api.request(t, http.MethodDelete, "/animals?id="+animal.ID, farmerToken, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = api.request(t, http.MethodPut, "/animals", farmerToken, fiber.Map{
		"id":       animal.ID,
		"farmerId": farmerID,
		"type":     "Cow",
		"breed":    "Ayrshire",
		"age":      26,
		"price":    900,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_CartCheckoutAndOrderDecision(t *testing.T) {
	api := newTestAPI(t, "")
	farmerID, farmerToken := api.registerAndLogin(t, "farmer@example.com", models.RoleFarmer)
	buyerID, buyerToken := api.registerAndLogin(t, "buyer@example.com", models.RoleBuyer)
	first := api.listAnimal(t, farmerID, farmerToken, 800)
	second := api.listAnimal(t, farmerID, farmerToken, 150)

	// Fill the cart.
	for _, id := range []string{first.ID, second.ID} {
		resp := api.request(t, http.MethodPost, "/cart", buyerToken, fiber.Map{"animalId": id})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := api.request(t, http.MethodGet, "/cart", buyerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var contents struct {
		Items []cart.Line `json:"items"`
		Total float64     `json:"total"`
	}
	decodeBody(t, resp, &contents)
	require.Len(t, contents.Items, 2)
	assert.Equal(t, float64(950), contents.Total)

	// Check out.
	resp = api.request(t, http.MethodPost, "/cart/checkout", buyerToken, fiber.Map{
		"paymentMethod": "mpesa",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var checkout struct {
		Order models.Order `json:"order"`
	}
	decodeBody(t, resp, &checkout)
	order := checkout.Order
	assert.Equal(t, buyerID, order.BuyerID)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Equal(t, float64(950), order.TotalAmount)
	require.Len(t, order.Items, 2)

	// The cart is cleared and the animals leave the public catalog.
	resp = api.request(t, http.MethodGet, "/cart", buyerToken, nil)
	decodeBody(t, resp, &contents)
	assert.Empty(t, contents.Items)

	resp = api.request(t, http.MethodGet, "/animals", "", nil)
	var catalog []models.Animal
	decodeBody(t, resp, &catalog)
	assert.Empty(t, catalog)

	// The farmer sees the order and confirms it.
	resp = api.request(t, http.MethodGet, "/orders?farmerId="+farmerID, farmerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var orders []models.Order
	decodeBody(t, resp, &orders)
	require.Len(t, orders, 1)

	resp = api.request(t, http.MethodPut, "/orders", farmerToken, fiber.Map{
		"orderId": order.ID,
		"status":  "confirmed",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var decision struct {
		Update services.StatusUpdate `json:"update"`
	}
	decodeBody(t, resp, &decision)
	assert.Equal(t, models.OrderPending, decision.Update.PreviousStatus)
	assert.Equal(t, models.OrderConfirmed, decision.Update.Status)

	// Both animals are sold to the buyer with the order reference stamped.
	for _, id := range []string{first.ID, second.ID} {
		animal, err := api.animals.GetByID(id)
		require.NoError(t, err)
		assert.Equal(t, models.AnimalSold, animal.Status)
		assert.Equal(t, buyerID, animal.SoldTo)
		assert.Equal(t, order.ID, animal.OrderReference)
	}

	// Terminal: a second decision is refused.
	resp = api.request(t, http.MethodPut, "/orders", farmerToken, fiber.Map{
		"orderId": order.ID,
		"status":  "rejected",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_RejectedOrderReleasesAnimals(t *testing.T) {
	api := newTestAPI(t, "")
	farmerID, farmerToken := api.registerAndLogin(t, "farmer@example.com", models.RoleFarmer)
	buyerID, buyerToken := api.registerAndLogin(t, "buyer@example.com", models.RoleBuyer)
	animal := api.listAnimal(t, farmerID, farmerToken, 800)

	resp := api.request(t, http.MethodPost, "/orders", buyerToken, fiber.Map{
		"buyerId": buyerID,
		"items": []fiber.Map{
			{"animalId": animal.ID, "farmerId": farmerID, "price": 800},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Order models.Order `json:"order"`
	}
	decodeBody(t, resp, &created)

	resp = api.request(t, http.MethodPut, "/orders", farmerToken, fiber.Map{
		"orderId": created.Order.ID,
		"status":  "rejected",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	released, err := api.animals.GetByID(animal.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AnimalAvailable, released.Status)
	assert.Empty(t, released.SoldTo)
	assert.NotNil(t, released.LastRejectedAt)
}

func TestAPI_AddReservedAnimalToCart(t *testing.T) {
	api := newTestAPI(t, "")
	farmerID, farmerToken := api.registerAndLogin(t, "farmer@example.com", models.RoleFarmer)
	_, buyerToken := api.registerAndLogin(t, "buyer@example.com", models.RoleBuyer)
	animal := api.listAnimal(t, farmerID, farmerToken, 800)
	require.NoError(t, api.animals.Reserve(animal.ID))

	resp := api.request(t, http.MethodPost, "/cart", buyerToken, fiber.Map{"animalId": animal.ID})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_OrdersPopulate(t *testing.T) {
	api := newTestAPI(t, "")
	farmerID, farmerToken := api.registerAndLogin(t, "farmer@example.com", models.RoleFarmer)
	buyerID, buyerToken := api.registerAndLogin(t, "buyer@example.com", models.RoleBuyer)
	animal := api.listAnimal(t, farmerID, farmerToken, 800)

	resp := api.request(t, http.MethodPost, "/orders", buyerToken, fiber.Map{
		"buyerId": buyerID,
		"items": []fiber.Map{
			{"animalId": animal.ID, "farmerId": farmerID, "price": 800},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = api.request(t, http.MethodGet, "/orders?buyerId="+buyerID+"&populate=true", buyerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var orders []models.Order
	decodeBody(t, resp, &orders)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 1)
	item := orders[0].Items[0]
	require.NotNil(t, item.Animal)
	assert.Equal(t, animal.ID, item.Animal.ID)
	require.NotNil(t, item.Farmer)
	assert.Equal(t, "Test farmer", item.Farmer.Name)
	assert.Equal(t, "+254700000001", item.Farmer.Phone)
}

func TestAPI_PaymentInitiateAndCallback(t *testing.T) {
	collaborator := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"message": "Check your phone to complete payment"})
	}))
	defer collaborator.Close()

	api := newTestAPI(t, collaborator.URL)
	farmerID, farmerToken := api.registerAndLogin(t, "farmer@example.com", models.RoleFarmer)
	buyerID, buyerToken := api.registerAndLogin(t, "buyer@example.com", models.RoleBuyer)
	animal := api.listAnimal(t, farmerID, farmerToken, 800)

	resp := api.request(t, http.MethodPost, "/orders", buyerToken, fiber.Map{
		"buyerId": buyerID,
		"items": []fiber.Map{
			{"animalId": animal.ID, "farmerId": farmerID, "price": 800},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Order models.Order `json:"order"`
	}
	decodeBody(t, resp, &created)
	orderID := created.Order.ID

	// Initiation requires auth and an existing order.
	resp = api.request(t, http.MethodPost, "/payments/initiate", "", fiber.Map{
		"orderId":     orderID,
		"phoneNumber": "+254712345678",
		"mpesaName":   "Test Buyer",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = api.request(t, http.MethodPost, "/payments/initiate", buyerToken, fiber.Map{
		"orderId":     orderID,
		"phoneNumber": "+254712345678",
		"mpesaName":   "Test Buyer",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var initiated struct {
		Message string `json:"message"`
	}
	decodeBody(t, resp, &initiated)
	assert.Equal(t, "Check your phone to complete payment", initiated.Message)

	// The callback is public and drives paymentStatus.
	resp = api.request(t, http.MethodPost, "/payments/callback", "", fiber.Map{
		"orderId": orderID,
		"result":  "paid",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stored, err := api.orders.GetByID(orderID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, stored.PaymentStatus)
	assert.Equal(t, models.OrderPending, stored.Status)

	// Paid is terminal, a contradictory callback is refused.
	resp = api.request(t, http.MethodPost, "/payments/callback", "", fiber.Map{
		"orderId": orderID,
		"result":  "failed",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown outcomes never reach the lifecycle engine.
	resp = api.request(t, http.MethodPost, "/payments/callback", "", fiber.Map{
		"orderId": orderID,
		"result":  "maybe",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_PaymentInitiateUnknownOrder(t *testing.T) {
	api := newTestAPI(t, "http://127.0.0.1:0")
	_, buyerToken := api.registerAndLogin(t, "buyer@example.com", models.RoleBuyer)

	resp := api.request(t, http.MethodPost, "/payments/initiate", buyerToken, fiber.Map{
		"orderId":     "73f7c6f0-1111-4222-8333-444455556666",
		"phoneNumber": "+254712345678",
		"mpesaName":   "Test Buyer",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_CatalogFilters(t *testing.T) {
	api := newTestAPI(t, "")
	farmerID, farmerToken := api.registerAndLogin(t, "farmer@example.com", models.RoleFarmer)

	listings := []struct {
		kind  string
		breed string
		age   int
		price float64
	}{
		{"Cow", "Friesian", 30, 800},
		{"Goat", "Boer", 10, 150},
		{"Cow", "Zebu", 18, 500},
	}
	for _, l := range listings {
		resp := api.request(t, http.MethodPost, "/animals", farmerToken, fiber.Map{
			"farmerId": farmerID,
			"type":     l.kind,
			"breed":    l.breed,
			"age":      l.age,
			"price":    l.price,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	var catalog []models.Animal

	resp := api.request(t, http.MethodGet, "/animals?search=cow&sort=price-asc", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &catalog)
	require.Len(t, catalog, 2)
	assert.Equal(t, "Zebu", catalog[0].Breed)
	assert.Equal(t, "Friesian", catalog[1].Breed)

	resp = api.request(t, http.MethodGet, "/animals?age=0-12", "", nil)
	decodeBody(t, resp, &catalog)
	require.Len(t, catalog, 1)
	assert.Equal(t, "Boer", catalog[0].Breed)

	resp = api.request(t, http.MethodGet, fmt.Sprintf("/animals?farmerId=%s", farmerID), "", nil)
	decodeBody(t, resp, &catalog)
	assert.Len(t, catalog, 3)
}
