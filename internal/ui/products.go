package ui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"storefront/client/internal/pages"
	"storefront/client/internal/state"
)

const allCategories = "All categories"

type productsTab struct {
	m       *Manager
	view    pages.ProductsView
	content fyne.CanvasObject

	search    *widget.Entry
	category  *widget.Select
	sortBy    *widget.Select
	applyBtn  *widget.Button
	list      *widget.List
	empty     *widget.Label
	prevBtn   *widget.Button
	nextBtn   *widget.Button
	pageLabel *widget.Label
	status    *widget.Label
}

func newProductsTab(m *Manager) *productsTab {
	t := &productsTab{m: m}

	t.search = widget.NewEntry()
	t.search.SetPlaceHolder("Search products")
	t.search.OnSubmitted = func(string) { t.submitSearch() }
	searchBtn := widget.NewButton("Search", t.submitSearch)

	t.category = widget.NewSelect([]string{allCategories}, nil)
	t.category.Selected = allCategories
	t.sortBy = widget.NewSelect(pages.SortOptions, nil)
	t.sortBy.Selected = pages.DefaultSortBy
	t.applyBtn = widget.NewButton("Apply", t.applyFilters)

	t.list = widget.NewList(
		func() int { return len(t.view.Products) },
		func() fyne.CanvasObject {
			return container.NewHBox(
				widget.NewLabel("name"),
				layout.NewSpacer(),
				widget.NewLabel("category"),
				widget.NewLabel("stock"),
				widget.NewLabel("price"),
				widget.NewButton("Add to Cart", nil),
			)
		},
		t.updateRow,
	)
	t.empty = widget.NewLabel("No products found")
	t.empty.Hide()

	t.prevBtn = widget.NewButton("Previous", func() { m.send(state.EventUIPage, state.PagePayload{Delta: -1}) })
	t.nextBtn = widget.NewButton("Next", func() { m.send(state.EventUIPage, state.PagePayload{Delta: 1}) })
	t.pageLabel = widget.NewLabel("")
	t.status = statusLabel()

	filters := container.NewBorder(nil, nil, nil, container.NewHBox(searchBtn, t.category, t.sortBy, t.applyBtn), t.search)
	pager := container.NewHBox(layout.NewSpacer(), t.prevBtn, t.pageLabel, t.nextBtn, layout.NewSpacer())
	top := container.NewVBox(filters, t.status, t.empty)
	t.content = container.NewBorder(top, pager, nil, nil, t.list)
	return t
}

func (t *productsTab) updateRow(id widget.ListItemID, obj fyne.CanvasObject) {
	row := obj.(*fyne.Container)
	if id < 0 || id >= len(t.view.Products) {
		return
	}
	product := t.view.Products[id]
	row.Objects[0].(*widget.Label).SetText(product.Name)
	row.Objects[2].(*widget.Label).SetText(product.Category)
	stock := row.Objects[3].(*widget.Label)
	if product.InStock() {
		stock.SetText(fmt.Sprintf("%d in stock", product.Stock))
	} else {
		stock.SetText("Out of Stock")
	}
	row.Objects[4].(*widget.Label).SetText(pages.FormatPrice(product.Price))
	btn := row.Objects[5].(*widget.Button)
	productID := product.ID
	btn.OnTapped = func() {
		t.m.send(state.EventUICartAdd, state.CartAddPayload{ProductID: productID, Quantity: 1})
	}
	if product.InStock() {
		btn.Enable()
	} else {
		btn.Disable()
	}
}

func (t *productsTab) submitSearch() {
	t.m.send(state.EventUISearch, state.SearchPayload{Term: t.search.Text})
}

func (t *productsTab) applyFilters() {
	category := t.category.Selected
	if category == allCategories {
		category = ""
	}
	t.m.send(state.EventUIFilter, state.FilterPayload{Category: category, SortBy: t.sortBy.Selected})
}

func (t *productsTab) render(view pages.ProductsView) {
	t.view = view
	options := append([]string{allCategories}, view.Categories...)
	t.category.Options = options
	if view.Query.Category != "" {
		t.category.Selected = view.Query.Category
	} else {
		t.category.Selected = allCategories
	}
	t.category.Refresh()
	if view.Query.SortBy != "" {
		t.sortBy.Selected = view.Query.SortBy
		t.sortBy.Refresh()
	}
	if t.search.Text != view.Query.Term {
		t.search.SetText(view.Query.Term)
	}

	t.list.Refresh()
	if view.Loaded && len(view.Products) == 0 {
		t.empty.Show()
	} else {
		t.empty.Hide()
	}
	t.pageLabel.SetText(view.PageLabel())
	if view.HasPrev() {
		t.prevBtn.Enable()
	} else {
		t.prevBtn.Disable()
	}
	if view.HasNext() {
		t.nextBtn.Enable()
	} else {
		t.nextBtn.Disable()
	}
	setStatus(t.status, "", view.Error)
}
