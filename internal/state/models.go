package state

import (
	"time"

	"storefront/client/internal/pages"
	"storefront/client/internal/session"
	"storefront/client/internal/shop"
)

// Route: экран клиента.
type Route string

const (
	RouteLogin    Route = "Login"
	RouteProducts Route = "Products"
	RouteCart     Route = "Cart"
	RouteOrders   Route = "Orders"
	RouteAdmin    Route = "Admin"
)

// Routes перечисляет экраны главного окна в порядке вкладок.
var Routes = []Route{RouteProducts, RouteCart, RouteOrders, RouteAdmin}

// ErrorKind описывает тип ошибки, отображаемой пользователю вне страниц.
type ErrorKind string

const (
	ErrorKindNetworkUnavailable ErrorKind = "NetworkUnavailable"
	ErrorKindAuthFailed         ErrorKind = "AuthFailed"
	ErrorKindStorageFailed      ErrorKind = "StorageFailed"
	ErrorKindUnknown            ErrorKind = "Unknown"
)

// ErrorInfo хранит данные о последней ошибке.
type ErrorInfo struct {
	Kind             ErrorKind
	UserMessage      string
	TechnicalMessage string
	OccurredAt       time.Time
}

// AppContext: состояние клиента, которым владеет event-loop.
// Представления страниц заменяются целиком при каждой загрузке.
type AppContext struct {
	Route     Route
	User      *session.User
	Login     pages.LoginView
	Products  pages.ProductsView
	Cart      pages.CartView
	Orders    pages.OrdersView
	Admin     pages.AdminView
	Notice    string
	LastError *ErrorInfo
}

// NewAppContext создаёт контекст на экране входа.
func NewAppContext() *AppContext {
	return &AppContext{Route: RouteLogin}
}

// Snapshot возвращает копию для рендера.
func (c *AppContext) Snapshot() AppContext {
	out := *c
	if c.User != nil {
		user := *c.User
		out.User = &user
	}
	if c.LastError != nil {
		info := *c.LastError
		out.LastError = &info
	}
	return out
}

// IsAdmin сообщает, показывать ли вкладку администратора.
func (c *AppContext) IsAdmin() bool {
	return c.User != nil && c.User.Role == shop.RoleAdmin
}

// NavigatePayload: переход на экран.
type NavigatePayload struct {
	Route Route
}

// CredentialsPayload передаёт логин и пароль из формы входа.
type CredentialsPayload struct {
	Username string
	Password string
}

// RegisterPayload: форма регистрации.
type RegisterPayload struct {
	Request shop.RegisterRequest
}

// SearchPayload: строка поиска каталога.
type SearchPayload struct {
	Term string
}

// FilterPayload: категория и сортировка каталога.
type FilterPayload struct {
	Category string
	SortBy   string
}

// PagePayload сдвигает страницу каталога на Delta.
type PagePayload struct {
	Delta int
}

// CartAddPayload: добавление товара в корзину.
type CartAddPayload struct {
	ProductID int64
	Quantity  int
}

// CartItemPayload: изменение или удаление позиции корзины.
type CartItemPayload struct {
	ItemID   int64
	Quantity int
}

// CheckoutPayload: оформление заказа.
type CheckoutPayload struct {
	ShippingAddress string
}

// OrderPayload указывает заказ.
type OrderPayload struct {
	OrderID int64
}

// OrderStatusPayload: смена статуса заказа администратором.
type OrderStatusPayload struct {
	OrderID int64
	Status  shop.OrderStatus
}

// StatusFilterPayload: фильтр заказов администратора; пустой статус снимает фильтр.
type StatusFilterPayload struct {
	Status shop.OrderStatus
}

// AdminTabPayload: вкладка панели администратора.
type AdminTabPayload struct {
	Tab pages.AdminTab
}

// ProductFormPayload: сохранение товара.
type ProductFormPayload struct {
	Form pages.ProductForm
}

// ProductPayload указывает товар.
type ProductPayload struct {
	ProductID int64
}

// UserPayload указывает пользователя.
type UserPayload struct {
	UserID int64
}
