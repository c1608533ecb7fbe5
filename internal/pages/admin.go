package pages

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"storefront/client/internal/logging"
	"storefront/client/internal/shop"
)

// AdminTab: вкладка панели администратора.
type AdminTab string

const (
	AdminTabProducts AdminTab = "products"
	AdminTabOrders   AdminTab = "orders"
	AdminTabUsers    AdminTab = "users"
)

// AccessDeniedMessage показывается пользователю без роли ADMIN.
const AccessDeniedMessage = "Access denied! You need admin privileges."

// AdminGuard проверяет право входа в панель; при отказе сам выполняет перенаправление.
type AdminGuard interface {
	RequireAdmin(ctx context.Context) bool
}

// AdminCatalog: управление товарами.
type AdminCatalog interface {
	All(ctx context.Context) ([]shop.Product, error)
	Create(ctx context.Context, product shop.Product) (shop.Product, error)
	Update(ctx context.Context, productID int64, product shop.Product) (shop.Product, error)
	Delete(ctx context.Context, productID int64) (string, error)
}

// AdminOrders: управление заказами.
type AdminOrders interface {
	All(ctx context.Context) ([]shop.Order, error)
	Get(ctx context.Context, orderID int64) (shop.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status shop.OrderStatus) (shop.MessageResponse, error)
}

// AdminUsers: список пользователей.
type AdminUsers interface {
	All(ctx context.Context) ([]shop.Account, error)
}

// ProductForm: поля формы товара в том виде, в каком их ввёл пользователь.
// ID равен нулю для нового товара.
type ProductForm struct {
	ID          int64
	Name        string `validate:"required,max=255"`
	Description string
	Price       string `validate:"required,numeric"`
	Category    string
	Stock       string `validate:"required,number"`
	ImageURL    string `validate:"omitempty,url"`
}

// FormFromProduct заполняет форму для редактирования.
func FormFromProduct(p shop.Product) ProductForm {
	return ProductForm{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Category:    p.Category,
		Stock:       strconv.Itoa(p.Stock),
		ImageURL:    p.ImageURL,
	}
}

// AdminView: состояние панели администратора.
type AdminView struct {
	Tab           AdminTab
	Products      []shop.Product
	Orders        []shop.Order
	Users         []shop.Account
	StatusFilter  shop.OrderStatus
	SelectedOrder *shop.Order
	Notice        string
	Error         string
}

// VisibleOrders возвращает заказы с учётом фильтра по статусу.
func (v AdminView) VisibleOrders() []shop.Order {
	return FilterOrders(v.Orders, v.StatusFilter)
}

// FilterOrders возвращает новый срез заказов со статусом status; пустой статус: все заказы.
// Исходный срез не меняется.
func FilterOrders(orders []shop.Order, status shop.OrderStatus) []shop.Order {
	out := make([]shop.Order, 0, len(orders))
	for _, order := range orders {
		if status == "" || order.Status == status {
			out = append(out, order)
		}
	}
	return out
}

// Admin: контроллер панели администратора.
type Admin struct {
	guard    AdminGuard
	catalog  AdminCatalog
	orders   AdminOrders
	users    AdminUsers
	logger   *logging.Logger
	validate *validator.Validate
}

func NewAdmin(guard AdminGuard, catalog AdminCatalog, orders AdminOrders, users AdminUsers, logger *logging.Logger) *Admin {
	return &Admin{
		guard:    guard,
		catalog:  catalog,
		orders:   orders,
		users:    users,
		logger:   nopIfNil(logger),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Enter проверяет доступ и открывает вкладку товаров. false: доступ запрещён.
func (a *Admin) Enter(ctx context.Context) (AdminView, bool) {
	if !a.guard.RequireAdmin(ctx) {
		a.logger.Infof("admin: access denied")
		return AdminView{}, false
	}
	return a.LoadTab(ctx, AdminView{}, AdminTabProducts), true
}

// LoadTab загружает данные вкладки. Фильтр заказов сохраняется.
func (a *Admin) LoadTab(ctx context.Context, prev AdminView, tab AdminTab) AdminView {
	view := AdminView{Tab: tab, StatusFilter: prev.StatusFilter}
	switch tab {
	case AdminTabOrders:
		orders, err := a.orders.All(ctx)
		if err != nil {
			a.logger.Errorf("admin: load orders: %v", err)
			view.Error = "Failed to load orders"
			return view
		}
		view.Orders = orders
	case AdminTabUsers:
		users, err := a.users.All(ctx)
		if err != nil {
			a.logger.Errorf("admin: load users: %v", err)
			view.Error = "Failed to load users"
			return view
		}
		view.Users = users
	default:
		view.Tab = AdminTabProducts
		products, err := a.catalog.All(ctx)
		if err != nil {
			a.logger.Errorf("admin: load products: %v", err)
			view.Error = "Failed to load products"
			return view
		}
		view.Products = products
	}
	return view
}

func (a *Admin) parseForm(form ProductForm) (shop.Product, error) {
	form.Name = strings.TrimSpace(form.Name)
	form.Price = strings.TrimSpace(form.Price)
	form.Stock = strings.TrimSpace(form.Stock)
	if err := a.validate.Struct(form); err != nil {
		return shop.Product{}, err
	}
	price, err := decimal.NewFromString(form.Price)
	if err != nil {
		return shop.Product{}, fmt.Errorf("price: %w", err)
	}
	if price.IsNegative() {
		return shop.Product{}, fmt.Errorf("price must not be negative")
	}
	stock, err := strconv.Atoi(form.Stock)
	if err != nil {
		return shop.Product{}, fmt.Errorf("stock: %w", err)
	}
	if stock < 0 {
		return shop.Product{}, fmt.Errorf("stock must not be negative")
	}
	return shop.Product{
		ID:          form.ID,
		Name:        form.Name,
		Description: form.Description,
		Price:       price,
		Category:    strings.TrimSpace(form.Category),
		Stock:       stock,
		ImageURL:    strings.TrimSpace(form.ImageURL),
	}, nil
}

// SaveProduct обновляет товар, если форма редактирует существующий, иначе создаёт.
// Успех: ответ содержит идентификатор товара.
func (a *Admin) SaveProduct(ctx context.Context, prev AdminView, form ProductForm) AdminView {
	product, err := a.parseForm(form)
	if err != nil {
		prev.Notice = ""
		prev.Error = "Failed to save product: " + err.Error()
		return prev
	}

	var saved shop.Product
	if product.ID != 0 {
		saved, err = a.catalog.Update(ctx, product.ID, product)
	} else {
		saved, err = a.catalog.Create(ctx, product)
	}
	if err != nil {
		a.logger.Errorf("admin: save product %q: %v", product.Name, err)
		prev.Notice = ""
		prev.Error = WithReason("Failed to save product: ", err)
		return prev
	}
	if saved.ID == 0 {
		a.logger.Errorf("admin: save product %q: response without id", product.Name)
		prev.Notice = ""
		prev.Error = "Failed to save product - Invalid response"
		return prev
	}
	view := a.LoadTab(ctx, prev, AdminTabProducts)
	if view.Error == "" {
		view.Notice = "Product saved successfully"
	}
	return view
}

func (a *Admin) DeleteProduct(ctx context.Context, prev AdminView, productID int64) AdminView {
	if _, err := a.catalog.Delete(ctx, productID); err != nil {
		a.logger.Errorf("admin: delete product %d: %v", productID, err)
		prev.Notice = ""
		prev.Error = "Failed to delete product"
		return prev
	}
	view := a.LoadTab(ctx, prev, AdminTabProducts)
	if view.Error == "" {
		view.Notice = "Product deleted successfully"
	}
	return view
}

// OrderDetails открывает заказ в панели.
func (a *Admin) OrderDetails(ctx context.Context, prev AdminView, orderID int64) AdminView {
	order, err := a.orders.Get(ctx, orderID)
	if err != nil {
		a.logger.Errorf("admin: order details %d: %v", orderID, err)
		prev.Notice = ""
		prev.Error = "Failed to load order details"
		return prev
	}
	prev.SelectedOrder = &order
	prev.Error = ""
	return prev
}

// UpdateOrderStatus меняет статус. Успех: ответ содержит сообщение.
func (a *Admin) UpdateOrderStatus(ctx context.Context, prev AdminView, orderID int64, status shop.OrderStatus) AdminView {
	if !status.Valid() {
		prev.Notice = ""
		prev.Error = fmt.Sprintf("Failed to update order status: unknown status %q", status)
		return prev
	}
	resp, err := a.orders.UpdateStatus(ctx, orderID, status)
	if err != nil {
		a.logger.Errorf("admin: order %d status %s: %v", orderID, status, err)
		prev.Notice = ""
		prev.Error = WithReason("Failed to update order status: ", err)
		return prev
	}
	if resp.Message == "" {
		prev.Notice = ""
		prev.Error = "Unexpected response format"
		return prev
	}
	view := a.LoadTab(ctx, prev, AdminTabOrders)
	if view.Error == "" {
		view.Notice = "Order status updated successfully"
	}
	return view
}

// FilterOrders меняет фильтр отображения, не трогая загруженные заказы.
func (a *Admin) FilterOrders(prev AdminView, status shop.OrderStatus) AdminView {
	prev.StatusFilter = status
	return prev
}

// ToggleUserStatus только сообщает об ошибке: у бэкенда нет такого вызова.
func (a *Admin) ToggleUserStatus(prev AdminView, userID int64) AdminView {
	a.logger.Debugf("admin: toggle user %d requested", userID)
	prev.Notice = ""
	prev.Error = "User status toggle not implemented yet"
	return prev
}
