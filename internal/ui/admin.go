package ui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"storefront/client/internal/pages"
	"storefront/client/internal/shop"
	"storefront/client/internal/state"
)

const allStatuses = "All statuses"

type adminTab struct {
	m       *Manager
	view    pages.AdminView
	visible []shop.Order
	content fyne.CanvasObject

	tabs     *container.AppTabs
	tabItems map[pages.AdminTab]*container.TabItem
	suppress bool

	products     *widget.List
	orders       *widget.List
	users        *widget.List
	statusFilter *widget.Select
	details      *widget.Label
	detailsPanel *fyne.Container
	status       *widget.Label
}

func newAdminTab(m *Manager) *adminTab {
	t := &adminTab{m: m}

	t.products = widget.NewList(
		func() int { return len(t.view.Products) },
		func() fyne.CanvasObject {
			return container.NewHBox(
				widget.NewLabel("name"),
				layout.NewSpacer(),
				widget.NewLabel("category"),
				widget.NewLabel("price"),
				widget.NewLabel("stock"),
				widget.NewButton("Edit", nil),
				widget.NewButton("Delete", nil),
			)
		},
		t.updateProductRow,
	)
	addBtn := widget.NewButton("Add Product", func() { t.showProductForm(pages.ProductForm{}) })
	productsPane := container.NewBorder(container.NewHBox(layout.NewSpacer(), addBtn), nil, nil, nil, t.products)

	statusOptions := []string{allStatuses}
	for _, s := range shop.OrderStatuses {
		statusOptions = append(statusOptions, string(s))
	}
	t.statusFilter = widget.NewSelect(statusOptions, func(selected string) {
		if t.suppress {
			return
		}
		status := shop.OrderStatus(selected)
		if selected == allStatuses {
			status = ""
		}
		m.send(state.EventUIOrderFilter, state.StatusFilterPayload{Status: status})
	})
	t.statusFilter.Selected = allStatuses
	t.orders = widget.NewList(
		func() int { return len(t.visible) },
		func() fyne.CanvasObject {
			return container.NewHBox(
				widget.NewLabel("order"),
				widget.NewLabel("customer"),
				layout.NewSpacer(),
				widget.NewLabel("total"),
				widget.NewSelect(statusOptions[1:], nil),
				widget.NewButton("Details", nil),
			)
		},
		t.updateOrderRow,
	)
	t.details = widget.NewLabel("")
	t.details.Wrapping = fyne.TextWrapWord
	t.detailsPanel = container.NewBorder(nil, nil, nil, nil, container.NewVScroll(t.details))
	t.detailsPanel.Hide()
	ordersSplit := container.NewVSplit(t.orders, t.detailsPanel)
	ordersSplit.SetOffset(0.65)
	ordersPane := container.NewBorder(container.NewHBox(widget.NewLabel("Filter"), t.statusFilter), nil, nil, nil, ordersSplit)

	t.users = widget.NewList(
		func() int { return len(t.view.Users) },
		func() fyne.CanvasObject {
			return container.NewHBox(
				widget.NewLabel("id"),
				widget.NewLabel("username"),
				widget.NewLabel("email"),
				layout.NewSpacer(),
				widget.NewLabel("role"),
				widget.NewButton("Toggle status", nil),
			)
		},
		t.updateUserRow,
	)

	t.tabItems = map[pages.AdminTab]*container.TabItem{
		pages.AdminTabProducts: container.NewTabItem("Products", productsPane),
		pages.AdminTabOrders:   container.NewTabItem("Orders", ordersPane),
		pages.AdminTabUsers:    container.NewTabItem("Users", t.users),
	}
	t.tabs = container.NewAppTabs(
		t.tabItems[pages.AdminTabProducts],
		t.tabItems[pages.AdminTabOrders],
		t.tabItems[pages.AdminTabUsers],
	)
	t.tabs.OnSelected = func(item *container.TabItem) {
		if t.suppress {
			return
		}
		for tab, candidate := range t.tabItems {
			if candidate == item {
				m.send(state.EventUIAdminTab, state.AdminTabPayload{Tab: tab})
				return
			}
		}
	}

	t.status = statusLabel()
	t.content = container.NewBorder(t.status, nil, nil, nil, t.tabs)
	return t
}

func (t *adminTab) updateProductRow(id widget.ListItemID, obj fyne.CanvasObject) {
	row := obj.(*fyne.Container)
	if id < 0 || id >= len(t.view.Products) {
		return
	}
	product := t.view.Products[id]
	row.Objects[0].(*widget.Label).SetText(product.Name)
	row.Objects[2].(*widget.Label).SetText(product.Category)
	row.Objects[3].(*widget.Label).SetText(pages.FormatPrice(product.Price))
	row.Objects[4].(*widget.Label).SetText(fmt.Sprintf("%d", product.Stock))
	row.Objects[5].(*widget.Button).OnTapped = func() {
		t.showProductForm(pages.FormFromProduct(product))
	}
	productID := product.ID
	row.Objects[6].(*widget.Button).OnTapped = func() {
		dialog.ShowConfirm("Delete product", fmt.Sprintf("Delete %q?", product.Name), func(ok bool) {
			if ok {
				t.m.send(state.EventUIProductDelete, state.ProductPayload{ProductID: productID})
			}
		}, t.m.activeWindow())
	}
}

func (t *adminTab) updateOrderRow(id widget.ListItemID, obj fyne.CanvasObject) {
	row := obj.(*fyne.Container)
	if id < 0 || id >= len(t.visible) {
		return
	}
	order := t.visible[id]
	row.Objects[0].(*widget.Label).SetText(fmt.Sprintf("#%d", order.ID))
	customer := ""
	if order.User != nil {
		customer = order.User.Username
	}
	row.Objects[1].(*widget.Label).SetText(customer)
	row.Objects[3].(*widget.Label).SetText(pages.FormatPrice(order.TotalAmount))

	orderID := order.ID
	sel := row.Objects[4].(*widget.Select)
	sel.OnChanged = nil
	sel.Selected = string(order.Status)
	sel.Refresh()
	sel.OnChanged = func(selected string) {
		if selected == string(order.Status) {
			return
		}
		t.m.send(state.EventUIOrderStatus, state.OrderStatusPayload{OrderID: orderID, Status: shop.OrderStatus(selected)})
	}
	row.Objects[5].(*widget.Button).OnTapped = func() {
		t.m.send(state.EventUIAdminOrderDetails, state.OrderPayload{OrderID: orderID})
	}
}

func (t *adminTab) updateUserRow(id widget.ListItemID, obj fyne.CanvasObject) {
	row := obj.(*fyne.Container)
	if id < 0 || id >= len(t.view.Users) {
		return
	}
	user := t.view.Users[id]
	row.Objects[0].(*widget.Label).SetText(fmt.Sprintf("%d", user.ID))
	row.Objects[1].(*widget.Label).SetText(user.Username)
	row.Objects[2].(*widget.Label).SetText(user.Email)
	row.Objects[4].(*widget.Label).SetText(user.Role)
	userID := user.ID
	row.Objects[5].(*widget.Button).OnTapped = func() {
		t.m.send(state.EventUIUserToggle, state.UserPayload{UserID: userID})
	}
}

// showProductForm открывает форму товара; ID формы определяет создание или правку.
func (t *adminTab) showProductForm(form pages.ProductForm) {
	name := widget.NewEntry()
	name.SetText(form.Name)
	description := widget.NewMultiLineEntry()
	description.SetText(form.Description)
	price := widget.NewEntry()
	price.SetText(form.Price)
	category := widget.NewEntry()
	category.SetText(form.Category)
	stock := widget.NewEntry()
	stock.SetText(form.Stock)
	image := widget.NewEntry()
	image.SetText(form.ImageURL)

	title := "Add Product"
	if form.ID != 0 {
		title = "Edit Product"
	}
	items := []*widget.FormItem{
		widget.NewFormItem("Name", name),
		widget.NewFormItem("Description", description),
		widget.NewFormItem("Price", price),
		widget.NewFormItem("Category", category),
		widget.NewFormItem("Stock", stock),
		widget.NewFormItem("Image URL", image),
	}
	productID := form.ID
	dlg := dialog.NewForm(title, "Save", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		t.m.send(state.EventUIProductSave, state.ProductFormPayload{Form: pages.ProductForm{
			ID:          productID,
			Name:        name.Text,
			Description: description.Text,
			Price:       price.Text,
			Category:    category.Text,
			Stock:       stock.Text,
			ImageURL:    image.Text,
		}})
	}, t.m.activeWindow())
	dlg.Resize(fyne.NewSize(480, 420))
	dlg.Show()
}

func (t *adminTab) render(view pages.AdminView) {
	t.view = view
	t.visible = view.VisibleOrders()

	t.suppress = true
	if item, ok := t.tabItems[view.Tab]; ok && t.tabs.Selected() != item {
		t.tabs.Select(item)
	}
	if view.StatusFilter == "" {
		t.statusFilter.Selected = allStatuses
	} else {
		t.statusFilter.Selected = string(view.StatusFilter)
	}
	t.statusFilter.Refresh()
	t.suppress = false

	t.products.Refresh()
	t.orders.Refresh()
	t.users.Refresh()
	if view.SelectedOrder != nil {
		t.details.SetText(orderDetails(*view.SelectedOrder))
		t.detailsPanel.Show()
	} else {
		t.detailsPanel.Hide()
	}
	setStatus(t.status, view.Notice, view.Error)
}
