package pages

import (
	"context"

	"github.com/shopspring/decimal"

	"storefront/client/internal/logging"
	"storefront/client/internal/shop"
)

// CartService: вызовы корзины.
type CartService interface {
	Get(ctx context.Context, userID int64) (shop.Cart, error)
	Add(ctx context.Context, userID, productID int64, quantity int) (shop.CartItem, error)
	UpdateItem(ctx context.Context, itemID int64, quantity int) (string, error)
	RemoveItem(ctx context.Context, itemID int64) (string, error)
	Clear(ctx context.Context, userID int64) (string, error)
}

// CartView: содержимое корзины с итогами.
type CartView struct {
	Items  []shop.CartItem
	Totals shop.Totals
	Loaded bool
	Notice string
	Error  string
}

// Empty истинно, если в корзине нет позиций.
func (v CartView) Empty() bool { return len(v.Items) == 0 }

// Cart: контроллер корзины.
type Cart struct {
	carts   CartService
	taxRate decimal.Decimal
	logger  *logging.Logger
}

func NewCart(carts CartService, taxRate decimal.Decimal, logger *logging.Logger) *Cart {
	return &Cart{carts: carts, taxRate: taxRate, logger: nopIfNil(logger)}
}

// Load загружает корзину пользователя.
func (c *Cart) Load(ctx context.Context, userID int64) CartView {
	cart, err := c.carts.Get(ctx, userID)
	if err != nil {
		c.logger.Errorf("cart: load for user %d: %v", userID, err)
		return CartView{Items: []shop.CartItem{}, Error: WithReason("Failed to load cart: ", err)}
	}
	for _, item := range cart.Items {
		if item.Product == nil || item.Quantity <= 0 {
			c.logger.Debugf("cart: item %d skipped in totals", item.ID)
		}
	}
	return CartView{
		Items:  cart.Items,
		Totals: shop.CartTotals(cart.Items, c.taxRate),
		Loaded: true,
	}
}

// Add добавляет товар и перезагружает корзину.
func (c *Cart) Add(ctx context.Context, prev CartView, userID, productID int64, quantity int) CartView {
	if quantity <= 0 {
		quantity = 1
	}
	if _, err := c.carts.Add(ctx, userID, productID, quantity); err != nil {
		c.logger.Errorf("cart: add product %d: %v", productID, err)
		prev.Notice = ""
		prev.Error = WithReason("Failed to add item to cart: ", err)
		return prev
	}
	view := c.Load(ctx, userID)
	if view.Error == "" {
		view.Notice = "Item added to cart successfully!"
	}
	return view
}

// UpdateQuantity меняет количество; количество не больше нуля удаляет позицию.
func (c *Cart) UpdateQuantity(ctx context.Context, prev CartView, userID, itemID int64, quantity int) CartView {
	if quantity <= 0 {
		return c.Remove(ctx, prev, userID, itemID)
	}
	if _, err := c.carts.UpdateItem(ctx, itemID, quantity); err != nil {
		c.logger.Errorf("cart: update item %d: %v", itemID, err)
		prev.Notice = ""
		prev.Error = "Failed to update cart"
		return prev
	}
	return c.Load(ctx, userID)
}

func (c *Cart) Remove(ctx context.Context, prev CartView, userID, itemID int64) CartView {
	if _, err := c.carts.RemoveItem(ctx, itemID); err != nil {
		c.logger.Errorf("cart: remove item %d: %v", itemID, err)
		prev.Notice = ""
		prev.Error = "Failed to remove item from cart"
		return prev
	}
	view := c.Load(ctx, userID)
	if view.Error == "" {
		view.Notice = "Item removed from cart"
	}
	return view
}

// Clear очищает корзину на бэкенде и возвращает пустое представление без перезагрузки.
func (c *Cart) Clear(ctx context.Context, prev CartView, userID int64) CartView {
	if _, err := c.carts.Clear(ctx, userID); err != nil {
		c.logger.Errorf("cart: clear for user %d: %v", userID, err)
		prev.Notice = ""
		prev.Error = "Failed to clear cart"
		return prev
	}
	return CartView{
		Items:  []shop.CartItem{},
		Totals: shop.CartTotals(nil, c.taxRate),
		Loaded: true,
	}
}
