package backend

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"storefront/client/internal/shop"
)

type cartItemResponse struct {
	ID          int64           `json:"id"`
	Quantity    int             `json:"quantity"`
	PriceAtTime decimal.Decimal `json:"priceAtTime"`
	Message     string          `json:"message"`
}

func itemResponse(item shop.CartItem, msg string) cartItemResponse {
	return cartItemResponse{ID: item.ID, Quantity: item.Quantity, PriceAtTime: item.PriceAtTime, Message: msg}
}

// ownedUser достаёт userID из пути и проверяет права. При отказе ответ уже записан.
func ownedUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := pathID(r, "userID")
	if !ok {
		writeText(w, http.StatusBadRequest, "Error: Invalid user id")
		return 0, false
	}
	if !allowed(r, userID) {
		writeMessage(w, http.StatusForbidden, "Error: Access denied!")
		return 0, false
	}
	return userID, true
}

// ownedItem достаёт позицию корзины из пути и проверяет, что она принадлежит вызывающему.
func (s *Server) ownedItem(w http.ResponseWriter, r *http.Request) (int64, bool) {
	itemID, ok := pathID(r, "itemID")
	if !ok {
		writeText(w, http.StatusBadRequest, "Error: Invalid cart item id")
		return 0, false
	}
	if owner, found := s.store.CartItemOwner(itemID); found && !allowed(r, owner) {
		writeMessage(w, http.StatusForbidden, "Error: Access denied!")
		return 0, false
	}
	return itemID, true
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownedUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.store.Cart(userID))
}

// addToCart обрабатывает POST /api/cart/user/{userID}/add?productId=&quantity=.
func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownedUser(w, r)
	if !ok {
		return
	}
	productID, err := strconv.ParseInt(r.URL.Query().Get("productId"), 10, 64)
	if err != nil {
		writeText(w, http.StatusBadRequest, "Error: productId is required")
		return
	}
	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil {
		writeText(w, http.StatusBadRequest, "Error: quantity is required")
		return
	}
	item, err := s.store.AddToCart(userID, productID, quantity)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, itemResponse(item, "Item added to cart successfully"))
}

func (s *Server) updateCartItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := s.ownedItem(w, r)
	if !ok {
		return
	}
	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil {
		writeText(w, http.StatusBadRequest, "Error: quantity is required")
		return
	}
	item, removed, err := s.store.UpdateCartItem(itemID, quantity)
	switch {
	case err != nil:
		writeStoreError(w, err)
	case removed:
		writeText(w, http.StatusOK, "Item removed from cart (quantity was 0 or less)")
	default:
		writeJSON(w, http.StatusOK, itemResponse(item, "Cart item updated successfully"))
	}
}

func (s *Server) removeCartItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := s.ownedItem(w, r)
	if !ok {
		return
	}
	s.store.RemoveCartItem(itemID)
	writeText(w, http.StatusOK, "Item removed from cart successfully!")
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownedUser(w, r)
	if !ok {
		return
	}
	s.store.ClearCart(userID)
	writeText(w, http.StatusOK, "Cart cleared successfully!")
}
