package pages

import (
	"context"
	"errors"
	"strings"

	"storefront/client/internal/logging"
	"storefront/client/internal/shop"
)

// ErrEmptyAddress: заказ без адреса доставки не отправляется.
var ErrEmptyAddress = errors.New("shipping address is required")

// OrderService: вызовы заказов покупателя.
type OrderService interface {
	ListByUser(ctx context.Context, userID int64) ([]shop.Order, error)
	Create(ctx context.Context, userID int64, shippingAddress string) (shop.Order, error)
	Get(ctx context.Context, orderID int64) (shop.Order, error)
	Cancel(ctx context.Context, orderID int64) (shop.Order, error)
}

// OrdersView: история заказов и открытый заказ.
type OrdersView struct {
	Orders   []shop.Order
	Selected *shop.Order
	Loaded   bool
	Notice   string
	Error    string
}

// CanCancel решает, показывать ли кнопку отмены.
func CanCancel(order shop.Order) bool { return order.CanCancel() }

// Orders: контроллер истории заказов.
type Orders struct {
	orders OrderService
	logger *logging.Logger
}

func NewOrders(orders OrderService, logger *logging.Logger) *Orders {
	return &Orders{orders: orders, logger: nopIfNil(logger)}
}

// Load загружает заказы пользователя.
func (o *Orders) Load(ctx context.Context, userID int64) OrdersView {
	list, err := o.orders.ListByUser(ctx, userID)
	if err != nil {
		o.logger.Errorf("orders: load for user %d: %v", userID, err)
		return OrdersView{Orders: []shop.Order{}, Error: WithReason("Failed to load orders: ", err)}
	}
	if list == nil {
		list = []shop.Order{}
	}
	return OrdersView{Orders: list, Loaded: true}
}

// Create оформляет заказ. Успех: ответ содержит идентификатор заказа.
func (o *Orders) Create(ctx context.Context, userID int64, shippingAddress string) (bool, error) {
	shippingAddress = strings.TrimSpace(shippingAddress)
	if shippingAddress == "" {
		return false, ErrEmptyAddress
	}
	order, err := o.orders.Create(ctx, userID, shippingAddress)
	if err != nil {
		o.logger.Errorf("orders: create for user %d: %v", userID, err)
		return false, err
	}
	if order.ID == 0 {
		o.logger.Errorf("orders: create for user %d: response without id", userID)
		return false, nil
	}
	o.logger.Infof("orders: order %d created for user %d", order.ID, userID)
	return true, nil
}

// Details открывает заказ.
func (o *Orders) Details(ctx context.Context, prev OrdersView, orderID int64) OrdersView {
	order, err := o.orders.Get(ctx, orderID)
	if err != nil {
		o.logger.Errorf("orders: details %d: %v", orderID, err)
		prev.Notice = ""
		prev.Error = "Failed to load order details"
		return prev
	}
	prev.Selected = &order
	prev.Error = ""
	return prev
}

// CloseDetails закрывает открытый заказ.
func (o *Orders) CloseDetails(prev OrdersView) OrdersView {
	prev.Selected = nil
	return prev
}

// Cancel отменяет заказ. Успех: ответ содержит id или статус CANCELLED.
func (o *Orders) Cancel(ctx context.Context, prev OrdersView, userID, orderID int64) OrdersView {
	order, err := o.orders.Cancel(ctx, orderID)
	if err != nil {
		o.logger.Errorf("orders: cancel %d: %v", orderID, err)
		prev.Notice = ""
		prev.Error = "Failed to cancel order"
		return prev
	}
	if order.ID == 0 && order.Status != shop.StatusCancelled {
		o.logger.Errorf("orders: cancel %d: unrecognised response", orderID)
		return prev
	}
	view := o.Load(ctx, userID)
	if view.Error == "" {
		view.Notice = "Order cancelled successfully"
	}
	return view
}
