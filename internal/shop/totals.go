package shop

import "github.com/shopspring/decimal"

// DefaultTaxRate: налог по умолчанию, 10%.
var DefaultTaxRate = decimal.NewFromFloat(0.10)

// Totals: итоги корзины.
type Totals struct {
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Total     decimal.Decimal
	ItemCount int
}

// CartTotals считает сумму по текущим ценам товаров.
// Позиции без товара, без цены или с неположительным количеством пропускаются.
func CartTotals(items []CartItem, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	count := 0
	for _, item := range items {
		if item.Product == nil || !item.Product.Price.IsPositive() || item.Quantity <= 0 {
			continue
		}
		subtotal = subtotal.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		count += item.Quantity
	}
	tax := subtotal.Mul(taxRate)
	return Totals{
		Subtotal:  subtotal,
		Tax:       tax,
		Total:     subtotal.Add(tax),
		ItemCount: count,
	}
}
