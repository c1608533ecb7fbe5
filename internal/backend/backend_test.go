package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/client/internal/apiclient"
	"storefront/client/internal/shop"
)

type staticToken string

func (s staticToken) Token(context.Context) string { return string(s) }

func testConfig() *Config {
	return &Config{
		JWTSecret: "test-secret",
		Users: []SeedUser{
			{Username: "admin", Email: "admin@shop.test", Password: "admin123", Role: shop.RoleAdmin},
			{Username: "alice", Email: "alice@shop.test", Password: "alice123"},
		},
		Products: []SeedProduct{
			{Name: "Mouse", Price: "25", Category: "Electronics", Stock: 5},
			{Name: "Lamp", Price: "40", Category: "Home", Stock: 1},
			{Name: "Keyboard", Price: "60.50", Category: "Electronics", Stock: 3},
		},
	}
}

func newBackend(t *testing.T, mutate func(*Config)) (*Server, string) {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}
	s, err := NewServer(cfg, nil)
	require.NoError(t, err)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv.URL
}

func clientFor(t *testing.T, baseURL, token string) *shop.Client {
	t.Helper()
	api, err := apiclient.New(baseURL, apiclient.Options{Tokens: staticToken(token)})
	require.NoError(t, err)
	return shop.New(api)
}

func loginAs(t *testing.T, baseURL, username, password string) (shop.LoginResponse, *shop.Client) {
	t.Helper()
	resp, err := clientFor(t, baseURL, "").Auth.Login(context.Background(), username, password)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	return resp, clientFor(t, baseURL, resp.Token)
}

func statusOf(t *testing.T, err error) (int, string) {
	t.Helper()
	apiErr, ok := apiclient.AsError(err)
	require.True(t, ok, "expected api error, got %v", err)
	return apiErr.Status, apiErr.Message
}

// textBody возвращает текстовое тело ошибки: бэкенд отвечает так на сбои операций.
func textBody(t *testing.T, err error) string {
	t.Helper()
	apiErr, ok := apiclient.AsError(err)
	require.True(t, ok, "expected api error, got %v", err)
	body, ok := apiErr.Data.(string)
	require.True(t, ok, "expected text body, got %T", apiErr.Data)
	return body
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	s, url := newBackend(t, nil)

	resp, _ := loginAs(t, url, "admin", "admin123")
	assert.Equal(t, "admin", resp.Username)
	assert.Equal(t, shop.RoleAdmin, resp.Role)
	assert.Equal(t, "Login successful", resp.Message)

	claims, err := s.tokens.Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, claims.UserID)
	assert.Equal(t, "admin", claims.Subject)
	assert.True(t, claims.IsAdmin())

	_, err = clientFor(t, url, "").Auth.Login(context.Background(), "admin", "wrong")
	status, msg := statusOf(t, err)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Error: Invalid username or password!", msg)
}

func TestRegisterAndAvailability(t *testing.T) {
	_, url := newBackend(t, nil)
	client := clientFor(t, url, "")
	ctx := context.Background()

	resp, err := client.Auth.Register(ctx, shop.RegisterRequest{Username: "bob", Email: "bob@shop.test", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "User registered successfully!", resp.Message)

	_, err = client.Auth.Register(ctx, shop.RegisterRequest{Username: "bob", Email: "other@shop.test", Password: "secret1"})
	status, msg := statusOf(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Error: Username is already taken!", msg)

	_, err = client.Auth.Register(ctx, shop.RegisterRequest{Username: "carol", Email: "not-an-email", Password: "secret1"})
	_, msg = statusOf(t, err)
	assert.Equal(t, "Error: Invalid user data - Email is invalid", msg)

	taken, err := client.Auth.UsernameTaken(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = client.Auth.EmailTaken(ctx, "nobody@shop.test")
	require.NoError(t, err)
	assert.False(t, taken)

	registered, _ := loginAs(t, url, "bob", "secret1")
	assert.Equal(t, shop.RoleCustomer, registered.Role)
}

func TestProductQueries(t *testing.T) {
	_, url := newBackend(t, nil)
	client := clientFor(t, url, "")
	ctx := context.Background()

	page, err := client.Products.List(ctx, shop.ListQuery{Page: 0, Size: 2, SortBy: "price", SortDir: "desc"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalPages)
	assert.EqualValues(t, 3, page.TotalElements)
	require.Len(t, page.Content, 2)
	assert.Equal(t, "Keyboard", page.Content[0].Name)
	assert.True(t, decimal.RequireFromString("60.5").Equal(page.Content[0].Price))

	found, err := client.Products.Search(ctx, "electro", 0, 10)
	require.NoError(t, err)
	assert.Len(t, found.Content, 2)

	home, err := client.Products.ByCategory(ctx, "Home", 0, 10)
	require.NoError(t, err)
	require.Len(t, home.Content, 1)
	assert.Equal(t, "Lamp", home.Content[0].Name)

	categories, err := client.Products.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Electronics", "Home"}, categories)

	_, err = client.Products.Get(ctx, 999)
	status, _ := statusOf(t, err)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAdminProductManagement(t *testing.T) {
	_, url := newBackend(t, nil)
	_, admin := loginAs(t, url, "admin", "admin123")
	_, customer := loginAs(t, url, "alice", "alice123")
	ctx := context.Background()
	lamp := shop.Product{Name: "Desk Lamp", Price: decimal.NewFromInt(45), Category: "Home", Stock: 2}

	_, err := customer.Products.Create(ctx, lamp)
	status, msg := statusOf(t, err)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Error: Access denied!", msg)

	created, err := admin.Products.Create(ctx, lamp)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	created.Stock = 7
	updated, err := admin.Products.Update(ctx, created.ID, created)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Stock)

	msg, err = admin.Products.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Product deleted successfully!", msg)

	_, err = admin.Products.Delete(ctx, created.ID)
	status, msg = statusOf(t, err)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "HTTP 500: Internal Server Error", msg)

	users, err := admin.Users.All(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
	_, err = customer.Users.All(ctx)
	status, _ = statusOf(t, err)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestCartCheckoutAndCancel(t *testing.T) {
	s, url := newBackend(t, nil)
	alice, client := loginAs(t, url, "alice", "alice123")
	ctx := context.Background()
	mouse := s.Store().Products(func(p shop.Product) bool { return p.Name == "Mouse" })[0]

	_, err := client.Carts.Add(ctx, alice.ID, mouse.ID, 1)
	require.NoError(t, err)
	item, err := client.Carts.Add(ctx, alice.ID, mouse.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, "Item added to cart successfully", item.Message)

	_, err = client.Carts.Add(ctx, alice.ID, mouse.ID, 10)
	status, msg := statusOf(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "HTTP 400: Bad Request", msg)
	assert.Equal(t, "Error: Insufficient stock for product: Mouse", textBody(t, err))

	cart, err := client.Carts.Get(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.NotNil(t, cart.Items[0].Product)
	assert.Equal(t, "Mouse", cart.Items[0].Product.Name)

	order, err := client.Orders.Create(ctx, alice.ID, "1 Main St")
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
	assert.Equal(t, shop.StatusPending, order.Status)
	assert.True(t, decimal.NewFromInt(50).Equal(order.TotalAmount))

	cart, err = client.Carts.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	remaining, _ := s.Store().Product(mouse.ID)
	assert.Equal(t, 3, remaining.Stock)

	_, err = client.Orders.Create(ctx, alice.ID, "1 Main St")
	assert.Equal(t, "Error: Cannot create order from empty cart", textBody(t, err))

	orders, err := client.Orders.ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	details, err := client.Orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, paymentMethod, details.PaymentMethod)
	require.NotNil(t, details.User)
	assert.Equal(t, "alice", details.User.Username)
	require.Len(t, details.Items, 1)
	assert.True(t, decimal.NewFromInt(25).Equal(details.Items[0].UnitPrice()))

	cancelled, err := client.Orders.Cancel(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, shop.StatusCancelled, cancelled.Status)

	_, err = client.Orders.Cancel(ctx, order.ID)
	status, _ = statusOf(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Error: Cannot cancel order in current status: CANCELLED", textBody(t, err))
}

func TestCartItemUpdateAndClear(t *testing.T) {
	s, url := newBackend(t, nil)
	alice, client := loginAs(t, url, "alice", "alice123")
	ctx := context.Background()
	products := s.Store().Products(nil)

	item, err := client.Carts.Add(ctx, alice.ID, products[0].ID, 1)
	require.NoError(t, err)
	_, err = client.Carts.Add(ctx, alice.ID, products[2].ID, 1)
	require.NoError(t, err)

	msg, err := client.Carts.UpdateItem(ctx, item.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, "Cart item updated successfully", msg)

	msg, err = client.Carts.UpdateItem(ctx, item.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "Item removed from cart (quantity was 0 or less)", msg)

	msg, err = client.Carts.Clear(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cart cleared successfully!", msg)
	assert.Empty(t, s.Store().Cart(alice.ID).Items)
}

func TestAccessControl(t *testing.T) {
	s, url := newBackend(t, nil)
	ctx := context.Background()
	admin, adminClient := loginAs(t, url, "admin", "admin123")
	_, aliceClient := loginAs(t, url, "alice", "alice123")

	_, err := clientFor(t, url, "").Carts.Get(ctx, 2)
	status, msg := statusOf(t, err)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Error: Not authenticated!", msg)

	_, err = clientFor(t, url, "garbage").Orders.ListByUser(ctx, 2)
	status, _ = statusOf(t, err)
	assert.Equal(t, http.StatusUnauthorized, status)

	_, err = aliceClient.Carts.Get(ctx, admin.ID)
	status, _ = statusOf(t, err)
	assert.Equal(t, http.StatusForbidden, status)

	product := s.Store().Products(nil)[0]
	_, err = adminClient.Carts.Add(ctx, admin.ID, product.ID, 1)
	require.NoError(t, err)
	order, err := adminClient.Orders.Create(ctx, admin.ID, "HQ")
	require.NoError(t, err)

	_, err = aliceClient.Orders.Get(ctx, order.ID)
	status, _ = statusOf(t, err)
	assert.Equal(t, http.StatusForbidden, status)

	_, err = aliceClient.Orders.UpdateStatus(ctx, order.ID, shop.StatusShipped)
	status, _ = statusOf(t, err)
	assert.Equal(t, http.StatusForbidden, status)

	resp, err := adminClient.Orders.UpdateStatus(ctx, order.ID, shop.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, "Order status updated", resp.Message)

	all, err := adminClient.Orders.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, shop.StatusShipped, all[0].Status)
	require.NotNil(t, all[0].User)
	assert.Equal(t, "admin", all[0].User.FirstName)
}

func TestLoginRateLimit(t *testing.T) {
	_, url := newBackend(t, func(cfg *Config) { cfg.LoginRateLimit = 2 })
	client := clientFor(t, url, "")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := client.Auth.Login(ctx, "alice", "nope")
		status, _ := statusOf(t, err)
		require.Equal(t, http.StatusUnauthorized, status)
	}
	_, err := client.Auth.Login(ctx, "alice", "alice123")
	status, _ := statusOf(t, err)
	assert.Equal(t, http.StatusTooManyRequests, status)
}

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer("one", time.Hour)
	token, err := issuer.Issue(shop.Account{ID: 3, Username: "alice", Role: shop.RoleCustomer})
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.EqualValues(t, 3, claims.UserID)
	assert.False(t, claims.IsAdmin())

	_, err = NewTokenIssuer("two", time.Hour).Parse(token)
	assert.Error(t, err)

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = issuer.Parse(token)
	assert.Error(t, err)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	page := paginate(items, 1, 2)
	assert.Equal(t, []int{3, 4}, page.Content)
	assert.Equal(t, 3, page.TotalPages)

	page = paginate(items, 5, 2)
	assert.Empty(t, page.Content)
	assert.NotNil(t, page.Content)

	page = paginate([]int{}, 0, 0)
	assert.Equal(t, 0, page.TotalPages)
	assert.Equal(t, defaultPageSize, page.Size)
}

func TestLoadConfigAndCatalog(t *testing.T) {
	dir := t.TempDir()
	catalogDir := filepath.Join(dir, "catalog")
	require.NoError(t, os.MkdirAll(catalogDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(catalogDir, "books.json"),
		[]byte(`[{"name":"Go Book","price":"39.90","category":"Books","stock":4}]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(catalogDir, "README.txt"), []byte("ignored"), 0o644))

	cfgPath := filepath.Join(dir, "server.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
listen_addr: 127.0.0.1:9999
jwt_secret: s3cret
token_ttl: 2h
catalog_dir: `+catalogDir+`
users:
  - username: admin
    email: admin@shop.test
    password: admin123
    role: ADMIN
products:
  - name: Mug
    price: "7.50"
    category: Kitchen
    stock: 10
`), 0o644))

	cfg, err := LoadConfig(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.ListenAddr)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, DefaultLoginRateLimit, cfg.LoginRateLimit)

	s, err := NewServer(cfg, nil)
	require.NoError(t, err)
	names := []string{}
	for _, p := range s.Store().Products(nil) {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Mug", "Go Book"}, names)

	require.NoError(t, os.WriteFile(filepath.Join(catalogDir, "bad.json"), []byte(`[{"name":"","price":"x"}]`), 0o644))
	_, err = LoadCatalog(catalogDir, validator.New())
	assert.Error(t, err)
}
