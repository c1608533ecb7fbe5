package shop

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

func init() {
	// BigDecimal бэкенда сериализуется числом, а не строкой.
	decimal.MarshalJSONWithoutQuotes = true
}

// Роли пользователей бэкенда.
const (
	RoleAdmin    = "ADMIN"
	RoleCustomer = "CUSTOMER"
)

// OrderStatus: статус заказа на бэкенде.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// OrderStatuses перечисляет статусы в порядке жизненного цикла.
var OrderStatuses = []OrderStatus{StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled}

// Valid сообщает, известен ли статус.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Product: товар каталога.
type Product struct {
	ID          int64           `json:"id,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category,omitempty"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}

// InStock сообщает, можно ли добавить товар в корзину.
func (p Product) InStock() bool { return p.Stock > 0 }

// Page: страница Spring Data.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Number        int   `json:"number"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
	Size          int   `json:"size"`
}

// CartItem: позиция корзины. Product может отсутствовать.
type CartItem struct {
	ID          int64           `json:"id"`
	Quantity    int             `json:"quantity"`
	PriceAtTime decimal.Decimal `json:"priceAtTime"`
	Product     *Product        `json:"product,omitempty"`
	Message     string          `json:"message,omitempty"`
}

// Cart: корзина пользователя. Бэкенд отдаёт позиции в cartItems, старые версии в items.
type Cart struct {
	ID    int64      `json:"id"`
	Items []CartItem `json:"cartItems"`
}

func (c *Cart) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        int64      `json:"id"`
		CartItems []CartItem `json:"cartItems"`
		Items     []CartItem `json:"items"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.ID = raw.ID
	c.Items = raw.CartItems
	if c.Items == nil {
		c.Items = raw.Items
	}
	if c.Items == nil {
		c.Items = []CartItem{}
	}
	return nil
}

// Account: пользователь в ответах бэкенда (списки администратора, владелец заказа).
type Account struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// OrderItem: позиция заказа. Цена приходит в price или priceAtTime.
type OrderItem struct {
	ID          int64           `json:"id"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	PriceAtTime decimal.Decimal `json:"priceAtTime"`
	Product     *Product        `json:"product,omitempty"`
}

// UnitPrice возвращает цену позиции.
func (i OrderItem) UnitPrice() decimal.Decimal {
	if !i.Price.IsZero() {
		return i.Price
	}
	return i.PriceAtTime
}

// Order: заказ.
type Order struct {
	ID              int64           `json:"id"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          OrderStatus     `json:"status"`
	OrderDate       Timestamp       `json:"orderDate"`
	ShippingAddress string          `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod,omitempty"`
	User            *Account        `json:"user,omitempty"`
	Items           []OrderItem     `json:"orderItems"`
}

// CanCancel сообщает, можно ли отменить заказ: только в статусе PENDING.
func (o Order) CanCancel() bool { return o.Status == StatusPending }

// LoginRequest: тело POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse: ответ входа. Token может отсутствовать.
type LoginResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Token    string `json:"token"`
	Message  string `json:"message"`
}

// RegisterRequest: тело POST /api/auth/register.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      string `json:"role,omitempty" validate:"omitempty,oneof=ADMIN CUSTOMER"`
}

// MessageResponse: ответ вида {"message": ...}.
type MessageResponse struct {
	ID      int64  `json:"id,omitempty"`
	Message string `json:"message"`
}
