package app

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/client/internal/backend"
	"storefront/client/internal/config"
	"storefront/client/internal/logging"
	"storefront/client/internal/pages"
	"storefront/client/internal/shop"
	"storefront/client/internal/state"
)

type recordingView struct {
	renders chan state.AppContext
	errors  chan *state.ErrorInfo
}

func newRecordingView() *recordingView {
	return &recordingView{
		renders: make(chan state.AppContext, 64),
		errors:  make(chan *state.ErrorInfo, 8),
	}
}

func (v *recordingView) Render(snapshot state.AppContext) { v.renders <- snapshot }

func (v *recordingView) ShowModalError(info *state.ErrorInfo) { v.errors <- info }

type harness struct {
	app  *Application
	view *recordingView
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	server, err := backend.NewServer(&backend.Config{
		JWTSecret: "app-test-secret",
		Users: []backend.SeedUser{
			{Username: "admin", Email: "admin@shop.test", Password: "admin123", Role: shop.RoleAdmin},
			{Username: "alice", Email: "alice@shop.test", Password: "alice123"},
		},
		Products: []backend.SeedProduct{
			{Name: "Mouse", Price: "25", Category: "Electronics", Stock: 5},
			{Name: "Lamp", Price: "40", Category: "Home", Stock: 1},
			{Name: "Keyboard", Price: "60.50", Category: "Electronics", Stock: 3},
		},
	}, nil)
	require.NoError(t, err)
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		APIBaseURL:     srv.URL,
		SessionBackend: config.SessionBackendMemory,
		PageSize:       12,
		TaxRate:        0.10,
	}
	a, err := build(cfg, logging.NewNop())
	require.NoError(t, err)
	view := newRecordingView()
	a.attach(view)
	a.machine.Start()
	t.Cleanup(a.Stop)
	return &harness{app: a, view: view}
}

// send отправляет событие и возвращает снимок, отрисованный после его обработки.
func (h *harness) send(t *testing.T, typ state.EventType, payload any) state.AppContext {
	t.Helper()
	require.NoError(t, h.app.dispatch(state.Event{Type: typ, Payload: payload}))
	select {
	case snap := <-h.view.renders:
		return snap
	case <-time.After(5 * time.Second):
		t.Fatalf("no render after %s", typ)
	}
	return state.AppContext{}
}

func (h *harness) login(t *testing.T, username, password string) state.AppContext {
	t.Helper()
	snap := h.send(t, state.EventUILogin, state.CredentialsPayload{Username: username, Password: password})
	require.Equal(t, state.RouteProducts, snap.Route, "login error: %s", snap.Login.Error)
	return snap
}

func productID(t *testing.T, snap state.AppContext, name string) int64 {
	t.Helper()
	for _, p := range snap.Products.Products {
		if p.Name == name {
			return p.ID
		}
	}
	t.Fatalf("product %q not in catalog", name)
	return 0
}

func TestLoginOpensCatalog(t *testing.T) {
	h := newHarness(t)

	snap := h.login(t, "alice", "alice123")
	require.NotNil(t, snap.User)
	assert.Equal(t, "alice", snap.User.Username)
	assert.False(t, snap.IsAdmin())
	assert.True(t, snap.Products.Loaded)
	require.Len(t, snap.Products.Products, 3)
	assert.Equal(t, "Keyboard", snap.Products.Products[0].Name)
	assert.ElementsMatch(t, []string{"Electronics", "Home"}, snap.Products.Categories)
	assert.True(t, h.app.session.IsAuthenticated(context.Background()))
}

func TestLoginFailureStaysOnForm(t *testing.T) {
	h := newHarness(t)

	snap := h.send(t, state.EventUILogin, state.CredentialsPayload{Username: "alice", Password: "nope"})
	assert.Equal(t, state.RouteLogin, snap.Route)
	assert.Nil(t, snap.User)
	assert.Contains(t, snap.Login.Error, "Invalid username or password")

	snap = h.send(t, state.EventUILogin, state.CredentialsPayload{Username: "alice"})
	assert.Equal(t, pages.MissingCredentialsMessage, snap.Login.Error)
}

func TestRegisterThenLogin(t *testing.T) {
	h := newHarness(t)

	snap := h.send(t, state.EventUIRegister, state.RegisterPayload{Request: shop.RegisterRequest{
		Username: "bob", Email: "bob@shop.test", Password: "secret1",
	}})
	assert.Equal(t, pages.RegisteredNotice, snap.Login.Notice)
	assert.False(t, snap.Login.Registering)

	snap = h.login(t, "bob", "secret1")
	assert.Equal(t, "bob", snap.User.Username)
}

func TestRegisterReportsTakenUsername(t *testing.T) {
	h := newHarness(t)

	snap := h.send(t, state.EventUIRegister, state.RegisterPayload{Request: shop.RegisterRequest{
		Username: "alice", Email: "other@shop.test", Password: "secret1",
	}})
	assert.True(t, snap.Login.Registering)
	assert.Equal(t, pages.RegisterFailedMessage+": "+pages.UsernameTakenMessage, snap.Login.Error)

	snap = h.send(t, state.EventUIRegister, state.RegisterPayload{Request: shop.RegisterRequest{
		Username: "carol", Email: "alice@shop.test", Password: "secret1",
	}})
	assert.Equal(t, pages.RegisterFailedMessage+": "+pages.EmailTakenMessage, snap.Login.Error)
}

func TestLaunchRestoresSavedSession(t *testing.T) {
	h := newHarness(t)
	ok, err := h.app.session.Login(context.Background(), "alice", "alice123")
	require.NoError(t, err)
	require.True(t, ok)

	snap := h.send(t, state.EventUILaunch, nil)
	assert.Equal(t, state.RouteProducts, snap.Route)
	require.NotNil(t, snap.User)
	assert.Equal(t, "alice", snap.User.Username)
	assert.Len(t, snap.Products.Products, 3)
}

func TestLaunchWithoutSessionShowsLogin(t *testing.T) {
	h := newHarness(t)

	snap := h.send(t, state.EventUILaunch, nil)
	assert.Equal(t, state.RouteLogin, snap.Route)
	assert.Nil(t, snap.User)
}

func TestNavigateRequiresLogin(t *testing.T) {
	h := newHarness(t)

	snap := h.send(t, state.EventUINavigate, state.NavigatePayload{Route: state.RouteCart})
	assert.Equal(t, state.RouteLogin, snap.Route)
	assert.False(t, snap.Cart.Loaded)
}

func TestCartCheckoutFlow(t *testing.T) {
	h := newHarness(t)
	catalog := h.login(t, "alice", "alice123")
	mouse := productID(t, catalog, "Mouse")

	snap := h.send(t, state.EventUICartAdd, state.CartAddPayload{ProductID: mouse, Quantity: 2})
	require.Empty(t, snap.Cart.Error)
	require.Len(t, snap.Cart.Items, 1)
	assert.Equal(t, "50", snap.Cart.Totals.Subtotal.String())
	assert.Equal(t, "55", snap.Cart.Totals.Total.String())

	snap = h.send(t, state.EventUINavigate, state.NavigatePayload{Route: state.RouteCart})
	assert.Equal(t, state.RouteCart, snap.Route)
	assert.True(t, snap.Cart.Loaded)

	snap = h.send(t, state.EventUICheckout, state.CheckoutPayload{ShippingAddress: "  "})
	assert.Equal(t, state.RouteCart, snap.Route)
	assert.Equal(t, "Please enter a shipping address", snap.Cart.Error)

	snap = h.send(t, state.EventUICheckout, state.CheckoutPayload{ShippingAddress: "1 Main St"})
	assert.Equal(t, state.RouteOrders, snap.Route)
	assert.Equal(t, OrderPlacedNotice, snap.Notice)
	assert.True(t, snap.Cart.Empty())
	require.Len(t, snap.Orders.Orders, 1)
	order := snap.Orders.Orders[0]
	assert.Equal(t, shop.StatusPending, order.Status)

	snap = h.send(t, state.EventUIDismissNotice, nil)
	assert.Empty(t, snap.Notice)

	snap = h.send(t, state.EventUIOrderDetails, state.OrderPayload{OrderID: order.ID})
	require.NotNil(t, snap.Orders.Selected)
	assert.Equal(t, "1 Main St", snap.Orders.Selected.ShippingAddress)

	snap = h.send(t, state.EventUIOrderDetails, state.OrderPayload{})
	assert.Nil(t, snap.Orders.Selected)

	snap = h.send(t, state.EventUIOrderCancel, state.OrderPayload{OrderID: order.ID})
	require.Empty(t, snap.Orders.Error)
	assert.Equal(t, shop.StatusCancelled, snap.Orders.Orders[0].Status)
}

func TestCheckoutEmptyCartFails(t *testing.T) {
	h := newHarness(t)
	h.login(t, "alice", "alice123")

	snap := h.send(t, state.EventUICheckout, state.CheckoutPayload{ShippingAddress: "1 Main St"})
	assert.Equal(t, state.RouteProducts, snap.Route)
	assert.Contains(t, snap.Cart.Error, OrderFailedMessage)
}

func TestCustomerIsKeptOutOfAdmin(t *testing.T) {
	h := newHarness(t)
	h.login(t, "alice", "alice123")

	snap := h.send(t, state.EventUINavigate, state.NavigatePayload{Route: state.RouteAdmin})
	assert.Equal(t, state.RouteProducts, snap.Route)
	assert.Equal(t, pages.AccessDeniedMessage, snap.Notice)
	assert.Empty(t, snap.Admin.Products)
}

func TestAdminManagesCatalogAndOrders(t *testing.T) {
	h := newHarness(t)
	catalog := h.login(t, "alice", "alice123")
	lamp := productID(t, catalog, "Lamp")
	h.send(t, state.EventUICartAdd, state.CartAddPayload{ProductID: lamp, Quantity: 1})
	h.send(t, state.EventUICheckout, state.CheckoutPayload{ShippingAddress: "2 Side St"})
	h.send(t, state.EventUILogout, nil)

	snap := h.login(t, "admin", "admin123")
	assert.True(t, snap.IsAdmin())

	snap = h.send(t, state.EventUINavigate, state.NavigatePayload{Route: state.RouteAdmin})
	assert.Equal(t, state.RouteAdmin, snap.Route)
	assert.Equal(t, pages.AdminTabProducts, snap.Admin.Tab)
	assert.Len(t, snap.Admin.Products, 3)

	snap = h.send(t, state.EventUIProductSave, state.ProductFormPayload{Form: pages.ProductForm{
		Name: "Cable", Price: "9.99", Category: "Electronics", Stock: "20",
	}})
	require.Empty(t, snap.Admin.Error)
	assert.Equal(t, "Product saved successfully", snap.Admin.Notice)
	assert.Len(t, snap.Admin.Products, 4)

	snap = h.send(t, state.EventUIAdminTab, state.AdminTabPayload{Tab: pages.AdminTabOrders})
	require.Len(t, snap.Admin.Orders, 1)
	orderID := snap.Admin.Orders[0].ID

	snap = h.send(t, state.EventUIOrderStatus, state.OrderStatusPayload{OrderID: orderID, Status: shop.StatusShipped})
	require.Empty(t, snap.Admin.Error)
	assert.Equal(t, shop.StatusShipped, snap.Admin.Orders[0].Status)

	snap = h.send(t, state.EventUIOrderFilter, state.StatusFilterPayload{Status: shop.StatusPending})
	assert.Empty(t, snap.Admin.VisibleOrders())

	snap = h.send(t, state.EventUIAdminTab, state.AdminTabPayload{Tab: pages.AdminTabUsers})
	assert.Len(t, snap.Admin.Users, 2)

	snap = h.send(t, state.EventUIUserToggle, state.UserPayload{UserID: snap.Admin.Users[0].ID})
	assert.Equal(t, "User status toggle not implemented yet", snap.Admin.Error)
}

func TestLogoutClearsSession(t *testing.T) {
	h := newHarness(t)
	h.login(t, "alice", "alice123")

	snap := h.send(t, state.EventUILogout, nil)
	assert.Equal(t, state.RouteLogin, snap.Route)
	assert.Nil(t, snap.User)
	assert.False(t, snap.Products.Loaded)
	assert.False(t, h.app.session.IsAuthenticated(context.Background()))
	assert.Empty(t, h.app.session.Token(context.Background()))

	snap = h.send(t, state.EventUINavigate, state.NavigatePayload{Route: state.RouteOrders})
	assert.Equal(t, state.RouteLogin, snap.Route)
}

func TestExitStopsApplication(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.app.dispatch(state.Event{Type: state.EventUIExit}))
	select {
	case <-h.app.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("application did not stop")
	}
	assert.ErrorIs(t, h.app.dispatch(state.Event{Type: state.EventUILaunch}), state.ErrMachineStopped)
}

func TestNewStoreSelectsBackend(t *testing.T) {
	store, closer, err := newStore(&config.Config{SessionBackend: config.SessionBackendMemory})
	require.NoError(t, err)
	assert.Nil(t, closer)
	require.NoError(t, store.Set(context.Background(), "k", "v"))

	dir := t.TempDir()
	store, closer, err = newStore(&config.Config{SessionBackend: config.SessionBackendFile, DataDir: dir})
	require.NoError(t, err)
	assert.Nil(t, closer)
	require.NoError(t, store.Set(context.Background(), "token", "abc"))
	value, ok, err := store.Get(context.Background(), "token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", value)

	_, closer, err = newStore(&config.Config{SessionBackend: config.SessionBackendRedis, RedisAddr: "127.0.0.1:0"})
	require.NoError(t, err)
	require.NotNil(t, closer)
	assert.NoError(t, closer())
}
