package shop

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/client/internal/apiclient"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCartTotals(t *testing.T) {
	items := []CartItem{
		{ID: 1, Quantity: 2, Product: &Product{ID: 1, Price: dec("10")}},
		{ID: 2, Quantity: 1, Product: &Product{ID: 2, Price: dec("5")}},
	}

	totals := CartTotals(items, DefaultTaxRate)

	assert.True(t, totals.Subtotal.Equal(dec("25")), totals.Subtotal.String())
	assert.True(t, totals.Tax.Equal(dec("2.5")), totals.Tax.String())
	assert.True(t, totals.Total.Equal(dec("27.5")), totals.Total.String())
	assert.Equal(t, 3, totals.ItemCount)
}

func TestCartTotalsSkipsInvalidItems(t *testing.T) {
	items := []CartItem{
		{ID: 1, Quantity: 2},
		{ID: 2, Quantity: 0, Product: &Product{Price: dec("3")}},
		{ID: 3, Quantity: 1, Product: &Product{Price: decimal.Zero}},
		{ID: 4, Quantity: 1, Product: &Product{Price: dec("4.20")}},
	}

	totals := CartTotals(items, dec("0.2"))

	assert.True(t, totals.Subtotal.Equal(dec("4.2")))
	assert.True(t, totals.Tax.Equal(dec("0.84")))
	assert.True(t, totals.Total.Equal(dec("5.04")))
	assert.Equal(t, 1, totals.ItemCount)
}

func TestCartAcceptsBothItemKeys(t *testing.T) {
	var withCartItems Cart
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"cartItems":[{"id":5,"quantity":2,"product":{"id":9,"name":"Mug","price":7.5}}]}`), &withCartItems))
	require.Len(t, withCartItems.Items, 1)
	assert.Equal(t, int64(9), withCartItems.Items[0].Product.ID)
	assert.True(t, withCartItems.Items[0].Product.Price.Equal(dec("7.5")))

	var withItems Cart
	require.NoError(t, json.Unmarshal([]byte(`{"id":2,"items":[{"id":6,"quantity":1}]}`), &withItems))
	require.Len(t, withItems.Items, 1)
	assert.Equal(t, int64(6), withItems.Items[0].ID)

	var empty Cart
	require.NoError(t, json.Unmarshal([]byte(`{"id":3}`), &empty))
	assert.NotNil(t, empty.Items)
	assert.Empty(t, empty.Items)
}

func TestOrderItemUnitPrice(t *testing.T) {
	assert.True(t, OrderItem{Price: dec("3"), PriceAtTime: dec("4")}.UnitPrice().Equal(dec("3")))
	assert.True(t, OrderItem{PriceAtTime: dec("4")}.UnitPrice().Equal(dec("4")))
}

func TestOrderCanCancel(t *testing.T) {
	for _, status := range OrderStatuses {
		assert.Equal(t, status == StatusPending, Order{Status: status}.CanCancel(), status)
	}
	assert.False(t, OrderStatus("LOST").Valid())
	assert.True(t, StatusShipped.Valid())
}

func TestTimestampFormats(t *testing.T) {
	cases := map[string]time.Time{
		`"2024-03-05T10:20:30.123456"`: time.Date(2024, 3, 5, 10, 20, 30, 123456000, time.Local),
		`"2024-03-05T10:20:30"`:        time.Date(2024, 3, 5, 10, 20, 30, 0, time.Local),
		`[2024,3,5,10,20,30]`:          time.Date(2024, 3, 5, 10, 20, 30, 0, time.Local),
		`[2024,3,5,10,20]`:             time.Date(2024, 3, 5, 10, 20, 0, 0, time.Local),
	}
	for raw, want := range cases {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(raw), &ts), raw)
		assert.True(t, want.Equal(ts.Time), "%s: got %s", raw, ts.Time)
	}

	var null Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &null))
	assert.True(t, null.IsZero())
	assert.Equal(t, "", null.String())

	var bad Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &bad))
}

func TestProductMarshalsPriceAsNumber(t *testing.T) {
	data, err := json.Marshal(Product{Name: "Mug", Price: dec("7.50"), Stock: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Mug","price":7.5,"stock":3}`, string(data))
}

type hit struct {
	method string
	uri    string
	body   string
}

func newShop(t *testing.T, handler http.HandlerFunc) (*Client, func() []hit) {
	t.Helper()
	var (
		mu   sync.Mutex
		hits []hit
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		hits = append(hits, hit{method: r.Method, uri: r.URL.RequestURI(), body: string(body)})
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	api, err := apiclient.New(srv.URL, apiclient.Options{})
	require.NoError(t, err)
	return New(api), func() []hit {
		mu.Lock()
		defer mu.Unlock()
		return append([]hit(nil), hits...)
	}
}

func respondJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func respondText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain;charset=UTF-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestProductsEndpoints(t *testing.T) {
	page := `{"content":[{"id":1,"name":"Mug","price":7.5,"category":"Kitchen","stock":3}],"number":1,"totalPages":4,"totalElements":40,"size":12}`
	client, hits := newShop(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/products/all" {
			respondJSON(w, http.StatusOK, `[{"id":1,"category":"Kitchen"},{"id":2,"category":"Garden"},{"id":3,"category":"Kitchen"},{"id":4}]`)
			return
		}
		respondJSON(w, http.StatusOK, page)
	})
	ctx := context.Background()

	listed, err := client.Products.List(ctx, ListQuery{Page: 1, Size: 12, SortBy: "name", SortDir: "asc"})
	require.NoError(t, err)
	assert.Equal(t, 4, listed.TotalPages)
	require.Len(t, listed.Content, 1)
	assert.Equal(t, "Mug", listed.Content[0].Name)

	_, err = client.Products.Search(ctx, "mug", 0, 12)
	require.NoError(t, err)
	_, err = client.Products.ByCategory(ctx, "Home Garden", 0, 12)
	require.NoError(t, err)

	categories, err := client.Products.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kitchen", "Garden"}, categories)

	got := hits()
	require.Len(t, got, 4)
	assert.Equal(t, "/api/products?page=1&size=12&sortBy=name&sortDir=asc", got[0].uri)
	assert.Equal(t, "/api/products/search/general?page=0&searchTerm=mug&size=12", got[1].uri)
	assert.Equal(t, "/api/products/category/Home%20Garden?page=0&size=12", got[2].uri)
}

func TestCartEndpoints(t *testing.T) {
	client, hits := newShop(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			respondJSON(w, http.StatusCreated, `{"id":11,"quantity":2,"priceAtTime":7.5,"message":"Item added to cart successfully"}`)
		case r.Method == http.MethodPut:
			respondJSON(w, http.StatusOK, `{"id":11,"quantity":3,"message":"Cart item updated successfully"}`)
		case r.URL.Path == "/api/cart/user/7/clear":
			respondText(w, http.StatusOK, "Cart cleared successfully!")
		case r.Method == http.MethodDelete:
			respondText(w, http.StatusOK, "Item removed from cart successfully!")
		default:
			respondJSON(w, http.StatusOK, `{"id":1,"cartItems":[]}`)
		}
	})
	ctx := context.Background()

	cart, err := client.Carts.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cart.ID)

	item, err := client.Carts.Add(ctx, 7, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(11), item.ID)

	msg, err := client.Carts.UpdateItem(ctx, 11, 3)
	require.NoError(t, err)
	assert.Equal(t, "Cart item updated successfully", msg)

	msg, err = client.Carts.RemoveItem(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, "Item removed from cart successfully!", msg)

	msg, err = client.Carts.Clear(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Cart cleared successfully!", msg)

	got := hits()
	assert.Equal(t, "/api/cart/user/7", got[0].uri)
	assert.Equal(t, "/api/cart/user/7/add?productId=3&quantity=2", got[1].uri)
	assert.Equal(t, "/api/cart/item/11?quantity=3", got[2].uri)
	assert.Equal(t, http.MethodDelete, got[3].method)
}

func TestCartErrorTextIsSurfaced(t *testing.T) {
	client, _ := newShop(t, func(w http.ResponseWriter, r *http.Request) {
		respondText(w, http.StatusBadRequest, "Error: Insufficient stock")
	})

	_, err := client.Carts.Add(context.Background(), 7, 3, 50)
	apiErr, ok := apiclient.AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Error: Insufficient stock", apiErr.Data)
}

func TestOrdersEndpoints(t *testing.T) {
	client, hits := newShop(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/orders/user/7/create":
			respondJSON(w, http.StatusCreated, `{"orderId":42,"status":"PENDING","totalAmount":27.5,"orderDate":"2024-03-05T10:20:30"}`)
		case r.URL.Path == "/api/orders/42/status":
			respondJSON(w, http.StatusOK, `{"message":"Order status updated"}`)
		case r.URL.Path == "/api/orders/42/cancel":
			respondJSON(w, http.StatusOK, `{"id":42,"status":"CANCELLED"}`)
		default:
			respondJSON(w, http.StatusOK, `[{"id":42,"status":"PENDING","orderItems":[{"id":1,"quantity":2,"price":10}]}]`)
		}
	})
	ctx := context.Background()

	order, err := client.Orders.Create(ctx, 7, "1 Main St, Springfield")
	require.NoError(t, err)
	assert.Equal(t, int64(42), order.ID)
	assert.Equal(t, StatusPending, order.Status)

	msg, err := client.Orders.UpdateStatus(ctx, 42, StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, "Order status updated", msg.Message)

	cancelled, err := client.Orders.Cancel(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	orders, err := client.Orders.ListByUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 1)
	assert.True(t, orders[0].Items[0].UnitPrice().Equal(dec("10")))

	got := hits()
	assert.Equal(t, "/api/orders/user/7/create?shippingAddress=1+Main+St%2C+Springfield", got[0].uri)
	assert.JSONEq(t, `{}`, got[0].body)
	assert.Equal(t, "/api/orders/42/status?status=SHIPPED", got[1].uri)
	assert.Equal(t, http.MethodPut, got[2].method)
}

func TestLoginWithoutJSONBodyIsTokenless(t *testing.T) {
	client, _ := newShop(t, func(w http.ResponseWriter, r *http.Request) {
		respondText(w, http.StatusOK, "Login successful")
	})

	resp, err := client.Auth.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Empty(t, resp.Token)
}

func TestUnexpectedShapeIsReported(t *testing.T) {
	client, _ := newShop(t, func(w http.ResponseWriter, r *http.Request) {
		respondText(w, http.StatusCreated, "created")
	})

	_, err := client.Products.Create(context.Background(), Product{Name: "Mug"})
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
}

func TestAvailabilityChecks(t *testing.T) {
	client, hits := newShop(t, func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, `true`)
	})

	taken, err := client.Auth.UsernameTaken(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, taken)
	_, err = client.Auth.EmailTaken(context.Background(), "a@x.com")
	require.NoError(t, err)

	got := hits()
	assert.Equal(t, "/api/auth/check-username/alice", got[0].uri)
	assert.Equal(t, "/api/auth/check-email/a@x.com", got[1].uri)
}
