package backend

import (
	"net/http"
	"strings"

	"storefront/client/internal/shop"
)

// paymentMethod: единственный способ оплаты учебного магазина.
const paymentMethod = "CASH_ON_DELIVERY"

type createdOrder struct {
	shop.Order
	Message string `json:"message"`
}

type statusResponse struct {
	Message   string           `json:"message"`
	OrderID   int64            `json:"orderId"`
	NewStatus shop.OrderStatus `json:"newStatus"`
}

func (s *Server) allOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Orders(0))
}

func (s *Server) userOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownedUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.store.Orders(userID))
}

// createOrder обрабатывает POST /api/orders/user/{userID}/create?shippingAddress=.
func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownedUser(w, r)
	if !ok {
		return
	}
	address := strings.TrimSpace(r.URL.Query().Get("shippingAddress"))
	if address == "" {
		writeText(w, http.StatusBadRequest, "Error: Shipping address is required")
		return
	}
	order, err := s.store.CreateOrder(userID, address)
	if err != nil {
		s.logger.Infof("backend: create order for user %d: %v", userID, err)
		writeStoreError(w, err)
		return
	}
	s.logger.Infof("backend: order %d created for user %d", order.ID, userID)
	order.Items = nil
	writeJSON(w, http.StatusCreated, createdOrder{Order: order, Message: "Order created successfully"})
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(r, "id")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	order, owner, found := s.store.Order(orderID)
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if !allowed(r, owner) {
		writeMessage(w, http.StatusForbidden, "Error: Access denied!")
		return
	}
	order.PaymentMethod = paymentMethod
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(r, "id")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	status := shop.OrderStatus(r.URL.Query().Get("status"))
	if !status.Valid() {
		writeText(w, http.StatusBadRequest, "Error: Unknown order status: "+string(status))
		return
	}
	if err := s.store.UpdateOrderStatus(orderID, status); err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Message: "Order status updated", OrderID: orderID, NewStatus: status})
}

func (s *Server) cancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(r, "id")
	if !ok {
		writeText(w, http.StatusBadRequest, "Error: Invalid order id")
		return
	}
	if _, owner, found := s.store.Order(orderID); found && !allowed(r, owner) {
		writeMessage(w, http.StatusForbidden, "Error: Access denied!")
		return
	}
	order, err := s.store.CancelOrder(orderID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
