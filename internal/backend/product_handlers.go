package backend

import (
	"cmp"
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"storefront/client/internal/shop"
)

const defaultPageSize = 10

var productOrder = map[string]func(a, b shop.Product) int{
	"id":       func(a, b shop.Product) int { return cmp.Compare(a.ID, b.ID) },
	"name":     func(a, b shop.Product) int { return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) },
	"price":    func(a, b shop.Product) int { return a.Price.Cmp(b.Price) },
	"stock":    func(a, b shop.Product) int { return cmp.Compare(a.Stock, b.Stock) },
	"category": func(a, b shop.Product) int { return strings.Compare(a.Category, b.Category) },
}

// paginate режет список на страницы так же, как Spring Data.
func paginate[T any](items []T, page, size int) shop.Page[T] {
	if size <= 0 {
		size = defaultPageSize
	}
	if page < 0 {
		page = 0
	}
	total := len(items)
	out := shop.Page[T]{
		Content:       []T{},
		Number:        page,
		Size:          size,
		TotalElements: int64(total),
		TotalPages:    (total + size - 1) / size,
	}
	start := page * size
	if start < total {
		out.Content = items[start:min(start+size, total)]
	}
	return out
}

func pageOf(r *http.Request) (int, int) {
	return queryInt(r, "page", 0), queryInt(r, "size", defaultPageSize)
}

// listProducts обрабатывает GET /api/products с сортировкой.
func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	sortBy := r.URL.Query().Get("sortBy")
	if sortBy == "" {
		sortBy = "id"
	}
	order, ok := productOrder[sortBy]
	if !ok {
		writeText(w, http.StatusBadRequest, "Error: Unknown sort property: "+sortBy)
		return
	}
	products := s.store.Products(nil)
	slices.SortStableFunc(products, order)
	if strings.EqualFold(r.URL.Query().Get("sortDir"), "desc") {
		slices.Reverse(products)
	}
	page, size := pageOf(r)
	writeJSON(w, http.StatusOK, paginate(products, page, size))
}

func (s *Server) allProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Products(nil))
}

// searchProducts ищет подстроку в названии или категории без учёта регистра.
func (s *Server) searchProducts(w http.ResponseWriter, r *http.Request) {
	term := strings.ToLower(r.URL.Query().Get("searchTerm"))
	products := s.store.Products(func(p shop.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), term) || strings.Contains(strings.ToLower(p.Category), term)
	})
	page, size := pageOf(r)
	writeJSON(w, http.StatusOK, paginate(products, page, size))
}

func (s *Server) productsByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	products := s.store.Products(func(p shop.Product) bool { return p.Category == category })
	page, size := pageOf(r)
	writeJSON(w, http.StatusOK, paginate(products, page, size))
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(r, "id")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	product, ok := s.store.Product(productID)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) decodeProduct(r *http.Request) (shop.Product, bool) {
	var product shop.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		return shop.Product{}, false
	}
	if strings.TrimSpace(product.Name) == "" || product.Price.IsNegative() || product.Stock < 0 {
		return shop.Product{}, false
	}
	return product, true
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := s.decodeProduct(r)
	if !ok {
		writeText(w, http.StatusBadRequest, "Error: Could not create product!")
		return
	}
	writeJSON(w, http.StatusCreated, s.store.AddProduct(product))
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(r, "id")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	product, ok := s.decodeProduct(r)
	if !ok {
		writeText(w, http.StatusBadRequest, "Error: Could not update product!")
		return
	}
	updated, err := s.store.UpdateProduct(productID, product)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(r, "id")
	if !ok {
		writeText(w, http.StatusInternalServerError, "Error: Could not delete product!")
		return
	}
	if err := s.store.DeleteProduct(productID); err != nil {
		writeText(w, http.StatusInternalServerError, "Error: Could not delete product!")
		return
	}
	writeText(w, http.StatusOK, "Product deleted successfully!")
}
