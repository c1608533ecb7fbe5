package ui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"github.com/shopspring/decimal"

	"storefront/client/internal/pages"
	"storefront/client/internal/shop"
	"storefront/client/internal/state"
)

type ordersTab struct {
	m       *Manager
	view    pages.OrdersView
	content fyne.CanvasObject

	list    *widget.List
	empty   *widget.Label
	details *widget.Label
	panel   *fyne.Container
	status  *widget.Label
}

func newOrdersTab(m *Manager) *ordersTab {
	t := &ordersTab{m: m}
	t.list = widget.NewList(
		func() int { return len(t.view.Orders) },
		func() fyne.CanvasObject {
			return container.NewHBox(
				widget.NewLabel("order"),
				layout.NewSpacer(),
				widget.NewLabel("date"),
				widget.NewLabel("status"),
				widget.NewLabel("total"),
				widget.NewButton("Details", nil),
				widget.NewButton("Cancel", nil),
			)
		},
		t.updateRow,
	)
	t.empty = widget.NewLabel("You have no orders yet")
	t.empty.Hide()

	t.details = widget.NewLabel("")
	t.details.Wrapping = fyne.TextWrapWord
	closeBtn := widget.NewButton("Close", func() { m.send(state.EventUIOrderDetails, state.OrderPayload{}) })
	t.panel = container.NewBorder(nil, closeBtn, nil, nil, container.NewVScroll(t.details))
	t.panel.Hide()

	t.status = statusLabel()
	split := container.NewVSplit(t.list, t.panel)
	split.SetOffset(0.6)
	t.content = container.NewBorder(container.NewVBox(t.status, t.empty), nil, nil, nil, split)
	return t
}

func (t *ordersTab) updateRow(id widget.ListItemID, obj fyne.CanvasObject) {
	row := obj.(*fyne.Container)
	if id < 0 || id >= len(t.view.Orders) {
		return
	}
	order := t.view.Orders[id]
	row.Objects[0].(*widget.Label).SetText(fmt.Sprintf("Order #%d", order.ID))
	row.Objects[2].(*widget.Label).SetText(order.OrderDate.String())
	row.Objects[3].(*widget.Label).SetText(string(order.Status))
	row.Objects[4].(*widget.Label).SetText(pages.FormatPrice(order.TotalAmount))

	orderID := order.ID
	row.Objects[5].(*widget.Button).OnTapped = func() {
		t.m.send(state.EventUIOrderDetails, state.OrderPayload{OrderID: orderID})
	}
	cancel := row.Objects[6].(*widget.Button)
	cancel.OnTapped = func() {
		dialog.ShowConfirm("Cancel order", "Are you sure you want to cancel this order?", func(ok bool) {
			if ok {
				t.m.send(state.EventUIOrderCancel, state.OrderPayload{OrderID: orderID})
			}
		}, t.m.activeWindow())
	}
	if pages.CanCancel(order) {
		cancel.Show()
	} else {
		cancel.Hide()
	}
}

func (t *ordersTab) render(view pages.OrdersView) {
	t.view = view
	t.list.Refresh()
	if view.Loaded && len(view.Orders) == 0 {
		t.empty.Show()
	} else {
		t.empty.Hide()
	}
	if view.Selected != nil {
		t.details.SetText(orderDetails(*view.Selected))
		t.panel.Show()
	} else {
		t.panel.Hide()
	}
	setStatus(t.status, view.Notice, view.Error)
}

// orderDetails собирает текст карточки заказа.
func orderDetails(order shop.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order #%d    %s\n", order.ID, order.Status)
	if order.User != nil {
		name := strings.TrimSpace(order.User.FirstName + " " + order.User.LastName)
		if name == "" {
			name = order.User.Username
		}
		fmt.Fprintf(&b, "Customer: %s <%s>\n", name, order.User.Email)
	}
	fmt.Fprintf(&b, "Order date: %s\n", order.OrderDate.String())
	fmt.Fprintf(&b, "Total amount: %s\n", pages.FormatPrice(order.TotalAmount))
	if order.PaymentMethod != "" {
		fmt.Fprintf(&b, "Payment method: %s\n", order.PaymentMethod)
	}
	fmt.Fprintf(&b, "Shipping: %s\n\n", order.ShippingAddress)
	for _, item := range order.Items {
		name := "Unavailable product"
		if item.Product != nil {
			name = item.Product.Name
		}
		price := item.UnitPrice()
		fmt.Fprintf(&b, "%s\n  Price: %s  Quantity: %d  Subtotal: %s\n",
			name, pages.FormatPrice(price), item.Quantity,
			pages.FormatPrice(price.Mul(decimal.NewFromInt(int64(item.Quantity)))))
	}
	return b.String()
}
