package pages

import (
	"context"
	"fmt"
	"strings"

	"storefront/client/internal/logging"
	"storefront/client/internal/shop"
)

// Параметры каталога по умолчанию.
const (
	DefaultPageSize = 12
	DefaultSortBy   = "name"
	DefaultSortDir  = "asc"
)

// SortOptions: поля сортировки, которые предлагает каталог.
var SortOptions = []string{"name", "price", "category"}

// Catalog: вызовы каталога, нужные странице товаров.
type Catalog interface {
	List(ctx context.Context, q shop.ListQuery) (shop.Page[shop.Product], error)
	Search(ctx context.Context, term string, page, size int) (shop.Page[shop.Product], error)
	ByCategory(ctx context.Context, category string, page, size int) (shop.Page[shop.Product], error)
	Categories(ctx context.Context) ([]string, error)
}

// ProductsQuery: состояние фильтров каталога.
type ProductsQuery struct {
	Term     string
	Category string
	SortBy   string
	Page     int
}

// ProductsView: страница каталога.
type ProductsView struct {
	Query      ProductsQuery
	Products   []shop.Product
	Categories []string
	Page       int
	TotalPages int
	Total      int64
	Loaded     bool
	Error      string
}

// HasPrev сообщает, доступна ли предыдущая страница.
func (v ProductsView) HasPrev() bool { return v.Page > 0 }

// HasNext сообщает, доступна ли следующая страница.
func (v ProductsView) HasNext() bool { return v.Page < v.TotalPages-1 }

func (v ProductsView) PageLabel() string {
	return fmt.Sprintf("Page %d of %d", v.Page+1, v.TotalPages)
}

// Products: контроллер каталога.
type Products struct {
	catalog  Catalog
	pageSize int
	logger   *logging.Logger
}

func NewProducts(catalog Catalog, pageSize int, logger *logging.Logger) *Products {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Products{catalog: catalog, pageSize: pageSize, logger: nopIfNil(logger)}
}

// Load загружает страницу товаров, затем категории. Ошибка категорий только логируется.
func (p *Products) Load(ctx context.Context, q ProductsQuery) ProductsView {
	q.Term = strings.TrimSpace(q.Term)
	if q.SortBy == "" {
		q.SortBy = DefaultSortBy
	}
	if q.Page < 0 {
		q.Page = 0
	}
	view := ProductsView{Query: q}

	page, err := p.fetch(ctx, q)
	if err != nil {
		p.logger.Errorf("products: load page %d: %v", q.Page, err)
		view.Error = "Failed to load products"
		return view
	}
	view.Products = page.Content
	if view.Products == nil {
		view.Products = []shop.Product{}
	}
	view.Page = page.Number
	view.Query.Page = page.Number
	view.TotalPages = page.TotalPages
	view.Total = page.TotalElements
	view.Loaded = true

	categories, err := p.catalog.Categories(ctx)
	if err != nil {
		p.logger.Errorf("products: load categories: %v", err)
		return view
	}
	view.Categories = categories
	return view
}

func (p *Products) fetch(ctx context.Context, q ProductsQuery) (shop.Page[shop.Product], error) {
	switch {
	case q.Term != "":
		return p.catalog.Search(ctx, q.Term, q.Page, p.pageSize)
	case q.Category != "":
		return p.catalog.ByCategory(ctx, q.Category, q.Page, p.pageSize)
	default:
		return p.catalog.List(ctx, shop.ListQuery{
			Page:    q.Page,
			Size:    p.pageSize,
			SortBy:  q.SortBy,
			SortDir: DefaultSortDir,
		})
	}
}

// Search начинает поиск с первой страницы.
func (p *Products) Search(ctx context.Context, prev ProductsView, term string) ProductsView {
	q := prev.Query
	q.Term = term
	q.Page = 0
	return p.Load(ctx, q)
}

// Filter применяет категорию и сортировку с первой страницы.
func (p *Products) Filter(ctx context.Context, prev ProductsView, category, sortBy string) ProductsView {
	q := prev.Query
	q.Category = category
	q.SortBy = sortBy
	q.Page = 0
	return p.Load(ctx, q)
}

// Step листает каталог на delta страниц. За границами возвращает prev без запроса.
func (p *Products) Step(ctx context.Context, prev ProductsView, delta int) ProductsView {
	target := prev.Page + delta
	if target < 0 || target > prev.TotalPages-1 || delta == 0 {
		return prev
	}
	q := prev.Query
	q.Page = target
	return p.Load(ctx, q)
}
