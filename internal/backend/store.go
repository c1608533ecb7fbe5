package backend

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"storefront/client/internal/shop"
)

// Классы ошибок хранилища. Обработчики по ним выбирают HTTP-статус.
var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid request")
	ErrConflict = errors.New("conflict")
)

// Error несёт класс ошибки и текст для клиента.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func fail(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

type user struct {
	account shop.Account
	hash    []byte
}

type cartItem struct {
	id          int64
	productID   int64
	quantity    int
	priceAtTime decimal.Decimal
}

type cart struct {
	id    int64
	items []*cartItem
}

type orderItem struct {
	id        int64
	productID int64
	quantity  int
	price     decimal.Decimal
}

type order struct {
	id      int64
	userID  int64
	total   decimal.Decimal
	status  shop.OrderStatus
	created time.Time
	address string
	items   []orderItem
}

// Store: данные магазина в памяти под одним мьютексом.
type Store struct {
	mu       sync.Mutex
	nextID   int64
	now      func() time.Time
	users    map[int64]*user
	products map[int64]*shop.Product
	carts    map[int64]*cart
	orders   map[int64]*order
}

func NewStore() *Store {
	return &Store{
		now:      time.Now,
		users:    make(map[int64]*user),
		products: make(map[int64]*shop.Product),
		carts:    make(map[int64]*cart),
		orders:   make(map[int64]*order),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// AddUser регистрирует пользователя. Имя и email должны быть свободны.
func (s *Store) AddUser(account shop.Account, hash []byte) (shop.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.account.Username, account.Username) {
			return shop.Account{}, fail(ErrConflict, "Username is already taken!")
		}
		if account.Email != "" && strings.EqualFold(u.account.Email, account.Email) {
			return shop.Account{}, fail(ErrConflict, "Email is already in use!")
		}
	}
	if account.Role == "" {
		account.Role = shop.RoleCustomer
	}
	account.ID = s.id()
	s.users[account.ID] = &user{account: account, hash: hash}
	return account, nil
}

// UserByName возвращает пользователя и хэш его пароля.
func (s *Store) UserByName(username string) (shop.Account, []byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.account.Username == username {
			return u.account, u.hash, true
		}
	}
	return shop.Account{}, nil, false
}

func (s *Store) UsernameExists(username string) bool {
	_, _, ok := s.UserByName(username)
	return ok
}

func (s *Store) EmailExists(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.account.Email, email) {
			return true
		}
	}
	return false
}

// Users возвращает пользователей в порядке регистрации.
func (s *Store) Users() []shop.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]shop.Account, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.account)
	}
	slices.SortFunc(out, func(a, b shop.Account) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (s *Store) AddProduct(product shop.Product) shop.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	product.ID = s.id()
	stored := product
	s.products[product.ID] = &stored
	return product
}

// UpdateProduct заменяет все поля товара, кроме идентификатора.
func (s *Store) UpdateProduct(productID int64, product shop.Product) (shop.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.products[productID]
	if !ok {
		return shop.Product{}, fail(ErrNotFound, "Product not found with id: %d", productID)
	}
	product.ID = productID
	*current = product
	return product, nil
}

// DeleteProduct удаляет товар и его позиции из корзин.
func (s *Store) DeleteProduct(productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[productID]; !ok {
		return fail(ErrNotFound, "Product not found with id: %d", productID)
	}
	delete(s.products, productID)
	for _, c := range s.carts {
		c.items = slices.DeleteFunc(c.items, func(item *cartItem) bool { return item.productID == productID })
	}
	return nil
}

func (s *Store) Product(productID int64) (shop.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return shop.Product{}, false
	}
	return *p, true
}

// Products возвращает товары, прошедшие фильтр, по возрастанию id.
func (s *Store) Products(keep func(shop.Product) bool) []shop.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]shop.Product, 0, len(s.products))
	for _, p := range s.products {
		if keep == nil || keep(*p) {
			out = append(out, *p)
		}
	}
	slices.SortFunc(out, func(a, b shop.Product) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (s *Store) cartOf(userID int64) *cart {
	c, ok := s.carts[userID]
	if !ok {
		c = &cart{id: s.id()}
		s.carts[userID] = c
	}
	return c
}

func (s *Store) cartView(c *cart) shop.Cart {
	out := shop.Cart{ID: c.id, Items: make([]shop.CartItem, 0, len(c.items))}
	for _, item := range c.items {
		view := shop.CartItem{ID: item.id, Quantity: item.quantity, PriceAtTime: item.priceAtTime}
		if p, ok := s.products[item.productID]; ok {
			product := shop.Product{ID: p.ID, Name: p.Name, Price: p.Price, ImageURL: p.ImageURL, Stock: p.Stock}
			view.Product = &product
		}
		out.Items = append(out.Items, view)
	}
	return out
}

// Cart возвращает корзину пользователя, создавая её при первом обращении.
func (s *Store) Cart(userID int64) shop.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartView(s.cartOf(userID))
}

// AddToCart добавляет товар; повторное добавление увеличивает количество.
func (s *Store) AddToCart(userID, productID int64, quantity int) (shop.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		return shop.CartItem{}, fail(ErrInvalid, "Quantity must be positive")
	}
	product, ok := s.products[productID]
	if !ok {
		return shop.CartItem{}, fail(ErrInvalid, "Product not found with id: %d", productID)
	}
	if product.Stock < quantity {
		return shop.CartItem{}, fail(ErrInvalid, "Insufficient stock for product: %s", product.Name)
	}
	c := s.cartOf(userID)
	for _, item := range c.items {
		if item.productID == productID {
			item.quantity += quantity
			return shop.CartItem{ID: item.id, Quantity: item.quantity, PriceAtTime: item.priceAtTime}, nil
		}
	}
	item := &cartItem{id: s.id(), productID: productID, quantity: quantity, priceAtTime: product.Price}
	c.items = append(c.items, item)
	return shop.CartItem{ID: item.id, Quantity: item.quantity, PriceAtTime: item.priceAtTime}, nil
}

func (s *Store) findItem(itemID int64) (*cart, int, bool) {
	for _, c := range s.carts {
		for i, item := range c.items {
			if item.id == itemID {
				return c, i, true
			}
		}
	}
	return nil, 0, false
}

// CartItemOwner возвращает владельца позиции корзины.
func (s *Store) CartItemOwner(itemID int64) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, c := range s.carts {
		for _, item := range c.items {
			if item.id == itemID {
				return userID, true
			}
		}
	}
	return 0, false
}

// UpdateCartItem меняет количество. Количество ≤ 0 удаляет позицию, тогда removed=true.
func (s *Store) UpdateCartItem(itemID int64, quantity int) (item shop.CartItem, removed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, idx, ok := s.findItem(itemID)
	if !ok {
		return shop.CartItem{}, false, fail(ErrInvalid, "Cart item not found with id: %d", itemID)
	}
	if quantity <= 0 {
		c.items = slices.Delete(c.items, idx, idx+1)
		return shop.CartItem{}, true, nil
	}
	current := c.items[idx]
	if p, ok := s.products[current.productID]; ok && p.Stock < quantity {
		return shop.CartItem{}, false, fail(ErrInvalid, "Insufficient stock for product: %s", p.Name)
	}
	current.quantity = quantity
	return shop.CartItem{ID: current.id, Quantity: current.quantity, PriceAtTime: current.priceAtTime}, false, nil
}

// RemoveCartItem удаляет позицию. Отсутствующая позиция ошибкой не считается.
func (s *Store) RemoveCartItem(itemID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, idx, ok := s.findItem(itemID); ok {
		c.items = slices.Delete(c.items, idx, idx+1)
	}
}

func (s *Store) ClearCart(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.carts[userID]; ok {
		c.items = nil
	}
}

// CreateOrder оформляет заказ из корзины: проверяет остатки, списывает их и очищает корзину.
func (s *Store) CreateOrder(userID int64, shippingAddress string) (shop.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[userID]
	if !ok {
		return shop.Order{}, fail(ErrInvalid, "Cart not found for user: %d", userID)
	}
	if len(c.items) == 0 {
		return shop.Order{}, fail(ErrInvalid, "Cannot create order from empty cart")
	}
	total := decimal.Zero
	for _, item := range c.items {
		p, ok := s.products[item.productID]
		if !ok || p.Stock < item.quantity {
			name := fmt.Sprintf("#%d", item.productID)
			if ok {
				name = p.Name
			}
			return shop.Order{}, fail(ErrInvalid, "Insufficient stock for product: %s", name)
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(item.quantity))))
	}

	o := &order{
		id:      s.id(),
		userID:  userID,
		total:   total,
		status:  shop.StatusPending,
		created: s.now(),
		address: shippingAddress,
	}
	for _, item := range c.items {
		p := s.products[item.productID]
		o.items = append(o.items, orderItem{id: s.id(), productID: p.ID, quantity: item.quantity, price: p.Price})
		p.Stock -= item.quantity
	}
	c.items = nil
	s.orders[o.id] = o
	return s.orderView(o, false), nil
}

func (s *Store) orderView(o *order, withUser bool) shop.Order {
	out := shop.Order{
		ID:              o.id,
		TotalAmount:     o.total,
		Status:          o.status,
		OrderDate:       shop.Timestamp{Time: o.created},
		ShippingAddress: o.address,
		Items:           make([]shop.OrderItem, 0, len(o.items)),
	}
	if withUser {
		if u, ok := s.users[o.userID]; ok {
			account := shop.Account{
				ID:        u.account.ID,
				Username:  u.account.Username,
				Email:     u.account.Email,
				FirstName: u.account.FirstName,
				LastName:  u.account.LastName,
			}
			if account.FirstName == "" {
				account.FirstName = account.Username
			}
			out.User = &account
		}
	}
	for _, item := range o.items {
		view := shop.OrderItem{ID: item.id, Quantity: item.quantity, Price: item.price}
		if p, ok := s.products[item.productID]; ok {
			view.Product = &shop.Product{ID: p.ID, Name: p.Name, Description: p.Description}
		}
		out.Items = append(out.Items, view)
	}
	return out
}

// Order возвращает заказ вместе с данными покупателя и его владельца.
func (s *Store) Order(orderID int64) (shop.Order, int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return shop.Order{}, 0, false
	}
	return s.orderView(o, true), o.userID, true
}

// Orders возвращает заказы от новых к старым. userID=0 означает все заказы.
func (s *Store) Orders(userID int64) []shop.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]shop.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if userID != 0 && o.userID != userID {
			continue
		}
		out = append(out, s.orderView(o, userID == 0))
	}
	slices.SortFunc(out, func(a, b shop.Order) int { return cmp.Compare(b.ID, a.ID) })
	return out
}

func (s *Store) UpdateOrderStatus(orderID int64, status shop.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return fail(ErrNotFound, "Order not found with id: %d", orderID)
	}
	o.status = status
	return nil
}

// CancelOrder отменяет заказ в статусе PENDING или CONFIRMED.
func (s *Store) CancelOrder(orderID int64) (shop.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return shop.Order{}, fail(ErrInvalid, "Order not found with id: %d", orderID)
	}
	if o.status != shop.StatusPending && o.status != shop.StatusConfirmed {
		return shop.Order{}, fail(ErrInvalid, "Cannot cancel order in current status: %s", o.status)
	}
	o.status = shop.StatusCancelled
	return s.orderView(o, false), nil
}
