package ui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"github.com/shopspring/decimal"

	"storefront/client/internal/pages"
	"storefront/client/internal/state"
)

type cartTab struct {
	m       *Manager
	view    pages.CartView
	content fyne.CanvasObject

	list     *widget.List
	empty    *widget.Label
	summary  *fyne.Container
	subtotal *widget.Label
	tax      *widget.Label
	total    *widget.Label
	address  *widget.Entry
	status   *widget.Label
}

func newCartTab(m *Manager) *cartTab {
	t := &cartTab{m: m}
	t.list = widget.NewList(
		func() int { return len(t.view.Items) },
		func() fyne.CanvasObject {
			return container.NewHBox(
				widget.NewLabel("name"),
				layout.NewSpacer(),
				widget.NewLabel("each"),
				widget.NewButton("-", nil),
				widget.NewLabel("qty"),
				widget.NewButton("+", nil),
				widget.NewLabel("line"),
				widget.NewButton("Remove", nil),
			)
		},
		t.updateRow,
	)
	t.empty = widget.NewLabel("Your cart is empty")
	t.empty.Hide()

	t.subtotal = widget.NewLabel("")
	t.tax = widget.NewLabel("")
	t.total = widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	t.address = widget.NewEntry()
	t.address.SetPlaceHolder("Shipping address")
	checkoutBtn := widget.NewButton("Checkout", t.checkout)
	checkoutBtn.Importance = widget.HighImportance
	clearBtn := widget.NewButton("Clear cart", func() { m.sendSimpleEvent(state.EventUICartClear) })
	t.summary = container.NewVBox(
		container.NewGridWithColumns(2,
			widget.NewLabel("Subtotal"), t.subtotal,
			widget.NewLabel("Tax"), t.tax,
			widget.NewLabel("Total"), t.total,
		),
		t.address,
		container.NewHBox(clearBtn, layout.NewSpacer(), checkoutBtn),
	)
	t.summary.Hide()

	t.status = statusLabel()
	t.content = container.NewBorder(container.NewVBox(t.status, t.empty), t.summary, nil, nil, t.list)
	return t
}

func (t *cartTab) updateRow(id widget.ListItemID, obj fyne.CanvasObject) {
	row := obj.(*fyne.Container)
	if id < 0 || id >= len(t.view.Items) {
		return
	}
	item := t.view.Items[id]
	name, each, line := "Unavailable product", "—", "—"
	if item.Product != nil {
		name = item.Product.Name
		each = pages.FormatPrice(item.Product.Price) + " each"
		line = pages.FormatPrice(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	row.Objects[0].(*widget.Label).SetText(name)
	row.Objects[2].(*widget.Label).SetText(each)
	row.Objects[4].(*widget.Label).SetText(fmt.Sprintf("%d", item.Quantity))
	row.Objects[6].(*widget.Label).SetText(line)

	itemID, qty := item.ID, item.Quantity
	row.Objects[3].(*widget.Button).OnTapped = func() {
		t.m.send(state.EventUICartUpdate, state.CartItemPayload{ItemID: itemID, Quantity: qty - 1})
	}
	row.Objects[5].(*widget.Button).OnTapped = func() {
		t.m.send(state.EventUICartUpdate, state.CartItemPayload{ItemID: itemID, Quantity: qty + 1})
	}
	row.Objects[7].(*widget.Button).OnTapped = func() {
		t.m.send(state.EventUICartRemove, state.CartItemPayload{ItemID: itemID})
	}
}

func (t *cartTab) checkout() {
	address := t.address.Text
	if address == "" {
		dialog.ShowInformation("Checkout", "Please enter a shipping address", t.m.activeWindow())
		return
	}
	t.m.send(state.EventUICheckout, state.CheckoutPayload{ShippingAddress: address})
}

func (t *cartTab) render(view pages.CartView) {
	t.view = view
	t.list.Refresh()
	if view.Empty() {
		if view.Loaded {
			t.empty.Show()
		}
		t.summary.Hide()
	} else {
		t.empty.Hide()
		t.subtotal.SetText(pages.FormatPrice(view.Totals.Subtotal))
		t.tax.SetText(pages.FormatPrice(view.Totals.Tax))
		t.total.SetText(pages.FormatPrice(view.Totals.Total))
		t.summary.Show()
	}
	setStatus(t.status, view.Notice, view.Error)
}
