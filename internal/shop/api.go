// Package shop описывает REST-поверхность бэкенда магазина в виде типизированных групп вызовов.
package shop

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"storefront/client/internal/apiclient"
)

// ErrUnexpectedResponse: успешный ответ не содержит ожидаемой структуры.
var ErrUnexpectedResponse = errors.New("shop: unexpected response format")

// Client объединяет группы вызовов поверх одного транспорта.
type Client struct {
	Auth     *Auth
	Products *Products
	Carts    *Carts
	Orders   *Orders
	Users    *Users
}

// New создаёт все группы поверх api.
func New(api *apiclient.Client) *Client {
	return &Client{
		Auth:     &Auth{api: api},
		Products: &Products{api: api},
		Carts:    &Carts{api: api},
		Orders:   &Orders{api: api},
		Users:    &Users{api: api},
	}
}

func decode[T any](resp *apiclient.Response, what string) (T, error) {
	out, err := apiclient.DecodeAs[T](resp)
	if err != nil {
		return out, fmt.Errorf("%w: %s: %v", ErrUnexpectedResponse, what, err)
	}
	return out, nil
}

// messageOf возвращает поле message JSON-ответа или текст ответа.
func messageOf(resp *apiclient.Response) string {
	if msg, ok := resp.Field("message"); ok {
		return msg
	}
	if resp.IsJSON() {
		return ""
	}
	return strings.TrimSpace(resp.Text())
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

// Auth: вход, регистрация и проверки доступности имени.
type Auth struct{ api *apiclient.Client }

// Login отправляет учётные данные без авторизации.
// Ответ без токена ошибкой не считается: решение принимает вызывающий.
func (a *Auth) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	resp, err := a.api.PostPublic(ctx, "/api/auth/login", LoginRequest{Username: username, Password: password})
	if err != nil {
		return LoginResponse{}, err
	}
	if !resp.IsJSON() || resp.Value() == nil {
		return LoginResponse{}, nil
	}
	return decode[LoginResponse](resp, "login")
}

// Register создаёт пользователя и возвращает сообщение бэкенда.
func (a *Auth) Register(ctx context.Context, req RegisterRequest) (MessageResponse, error) {
	resp, err := a.api.PostPublic(ctx, "/api/auth/register", req)
	if err != nil {
		return MessageResponse{}, err
	}
	return MessageResponse{Message: messageOf(resp)}, nil
}

// UsernameTaken сообщает, занято ли имя пользователя.
func (a *Auth) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return a.exists(ctx, "/api/auth/check-username/"+url.PathEscape(username))
}

// EmailTaken сообщает, занят ли email.
func (a *Auth) EmailTaken(ctx context.Context, email string) (bool, error) {
	return a.exists(ctx, "/api/auth/check-email/"+url.PathEscape(email))
}

func (a *Auth) exists(ctx context.Context, path string) (bool, error) {
	resp, err := a.api.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: path, NoAuth: true})
	if err != nil {
		return false, err
	}
	return decode[bool](resp, path)
}

// Products: каталог товаров.
type Products struct{ api *apiclient.Client }

// ListQuery: параметры постраничного списка.
type ListQuery struct {
	Page    int
	Size    int
	SortBy  string
	SortDir string
}

func pageParams(page, size int) url.Values {
	return url.Values{
		"page": {strconv.Itoa(page)},
		"size": {strconv.Itoa(size)},
	}
}

// List возвращает страницу каталога с сортировкой.
func (p *Products) List(ctx context.Context, q ListQuery) (Page[Product], error) {
	params := pageParams(q.Page, q.Size)
	if q.SortBy != "" {
		params.Set("sortBy", q.SortBy)
	}
	if q.SortDir != "" {
		params.Set("sortDir", q.SortDir)
	}
	resp, err := p.api.Get(ctx, "/api/products", params)
	if err != nil {
		return Page[Product]{}, err
	}
	return decode[Page[Product]](resp, "products page")
}

// All возвращает весь каталог без пагинации.
func (p *Products) All(ctx context.Context) ([]Product, error) {
	resp, err := p.api.Get(ctx, "/api/products/all", nil)
	if err != nil {
		return nil, err
	}
	return decode[[]Product](resp, "all products")
}

// Search ищет по названию или категории.
func (p *Products) Search(ctx context.Context, term string, page, size int) (Page[Product], error) {
	params := pageParams(page, size)
	params.Set("searchTerm", term)
	resp, err := p.api.Get(ctx, "/api/products/search/general", params)
	if err != nil {
		return Page[Product]{}, err
	}
	return decode[Page[Product]](resp, "search")
}

// ByCategory возвращает страницу товаров категории.
func (p *Products) ByCategory(ctx context.Context, category string, page, size int) (Page[Product], error) {
	resp, err := p.api.Get(ctx, "/api/products/category/"+url.PathEscape(category), pageParams(page, size))
	if err != nil {
		return Page[Product]{}, err
	}
	return decode[Page[Product]](resp, "category")
}

func (p *Products) Get(ctx context.Context, productID int64) (Product, error) {
	resp, err := p.api.Get(ctx, "/api/products/"+id(productID), nil)
	if err != nil {
		return Product{}, err
	}
	return decode[Product](resp, "product")
}

// Create добавляет товар (только администратор).
func (p *Products) Create(ctx context.Context, product Product) (Product, error) {
	product.ID = 0
	resp, err := p.api.Post(ctx, "/api/products", product)
	if err != nil {
		return Product{}, err
	}
	return decode[Product](resp, "created product")
}

// Update заменяет товар (только администратор).
func (p *Products) Update(ctx context.Context, productID int64, product Product) (Product, error) {
	resp, err := p.api.Put(ctx, "/api/products/"+id(productID), product)
	if err != nil {
		return Product{}, err
	}
	return decode[Product](resp, "updated product")
}

// Delete удаляет товар и возвращает сообщение бэкенда.
func (p *Products) Delete(ctx context.Context, productID int64) (string, error) {
	resp, err := p.api.Delete(ctx, "/api/products/"+id(productID))
	if err != nil {
		return "", err
	}
	return messageOf(resp), nil
}

// Categories возвращает уникальные категории каталога в порядке появления.
func (p *Products) Categories(ctx context.Context) ([]string, error) {
	all, err := p.All(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(all))
	out := make([]string, 0, len(all))
	for _, product := range all {
		if product.Category == "" {
			continue
		}
		if _, ok := seen[product.Category]; ok {
			continue
		}
		seen[product.Category] = struct{}{}
		out = append(out, product.Category)
	}
	return out, nil
}

// Carts: корзина пользователя.
type Carts struct{ api *apiclient.Client }

// Get возвращает (или создаёт) корзину пользователя.
func (c *Carts) Get(ctx context.Context, userID int64) (Cart, error) {
	resp, err := c.api.Do(ctx, apiclient.Request{
		Method:        http.MethodGet,
		Path:          "/api/cart/user/" + id(userID),
		NoContentType: true,
	})
	if err != nil {
		return Cart{}, err
	}
	return decode[Cart](resp, "cart")
}

// Add добавляет товар; количество и товар передаются параметрами запроса.
func (c *Carts) Add(ctx context.Context, userID, productID int64, quantity int) (CartItem, error) {
	resp, err := c.api.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/api/cart/user/" + id(userID) + "/add",
		Query: url.Values{
			"productId": {id(productID)},
			"quantity":  {strconv.Itoa(quantity)},
		},
		NoContentType: true,
	})
	if err != nil {
		return CartItem{}, err
	}
	return decode[CartItem](resp, "cart item")
}

// UpdateItem меняет количество позиции.
func (c *Carts) UpdateItem(ctx context.Context, itemID int64, quantity int) (string, error) {
	resp, err := c.api.Put(ctx, "/api/cart/item/"+id(itemID), nil,
		apiclient.WithQuery(url.Values{"quantity": {strconv.Itoa(quantity)}}))
	if err != nil {
		return "", err
	}
	return messageOf(resp), nil
}

func (c *Carts) RemoveItem(ctx context.Context, itemID int64) (string, error) {
	resp, err := c.api.Delete(ctx, "/api/cart/item/"+id(itemID))
	if err != nil {
		return "", err
	}
	return messageOf(resp), nil
}

func (c *Carts) Clear(ctx context.Context, userID int64) (string, error) {
	resp, err := c.api.Delete(ctx, "/api/cart/user/"+id(userID)+"/clear")
	if err != nil {
		return "", err
	}
	return messageOf(resp), nil
}

// Orders: заказы.
type Orders struct{ api *apiclient.Client }

// ListByUser возвращает заказы пользователя.
func (o *Orders) ListByUser(ctx context.Context, userID int64) ([]Order, error) {
	resp, err := o.api.Get(ctx, "/api/orders/user/"+id(userID), nil)
	if err != nil {
		return nil, err
	}
	return decode[[]Order](resp, "orders")
}

// Create оформляет заказ из корзины. Идентификатор приходит в id или orderId.
func (o *Orders) Create(ctx context.Context, userID int64, shippingAddress string) (Order, error) {
	resp, err := o.api.Post(ctx, "/api/orders/user/"+id(userID)+"/create", struct{}{},
		apiclient.WithQuery(url.Values{"shippingAddress": {shippingAddress}}))
	if err != nil {
		return Order{}, err
	}
	created, err := decode[struct {
		Order
		OrderID int64 `json:"orderId"`
	}](resp, "created order")
	if err != nil {
		return Order{}, err
	}
	if created.ID == 0 {
		created.ID = created.OrderID
	}
	return created.Order, nil
}

func (o *Orders) Get(ctx context.Context, orderID int64) (Order, error) {
	resp, err := o.api.Get(ctx, "/api/orders/"+id(orderID), nil)
	if err != nil {
		return Order{}, err
	}
	return decode[Order](resp, "order")
}

// UpdateStatus меняет статус заказа (только администратор).
func (o *Orders) UpdateStatus(ctx context.Context, orderID int64, status OrderStatus) (MessageResponse, error) {
	resp, err := o.api.Put(ctx, "/api/orders/"+id(orderID)+"/status", nil,
		apiclient.WithQuery(url.Values{"status": {string(status)}}))
	if err != nil {
		return MessageResponse{}, err
	}
	return MessageResponse{Message: messageOf(resp)}, nil
}

// Cancel отменяет заказ и возвращает его новое состояние.
func (o *Orders) Cancel(ctx context.Context, orderID int64) (Order, error) {
	resp, err := o.api.Put(ctx, "/api/orders/"+id(orderID)+"/cancel", nil)
	if err != nil {
		return Order{}, err
	}
	return decode[Order](resp, "cancelled order")
}

// All возвращает все заказы (только администратор).
func (o *Orders) All(ctx context.Context) ([]Order, error) {
	resp, err := o.api.Get(ctx, "/api/orders", nil)
	if err != nil {
		return nil, err
	}
	return decode[[]Order](resp, "all orders")
}

// Users: пользователи (только администратор).
type Users struct{ api *apiclient.Client }

func (u *Users) All(ctx context.Context) ([]Account, error) {
	resp, err := u.api.Get(ctx, "/api/users", nil)
	if err != nil {
		return nil, err
	}
	return decode[[]Account](resp, "users")
}
