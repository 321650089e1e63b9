package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/acme/orderdesk/internal/core/domain"
	"github.com/acme/orderdesk/internal/core/service"
	"github.com/acme/orderdesk/internal/port"
)

type HTTPHandler struct {
	fulfillment *service.FulfillmentService
	support     *service.SupportService
	ledger      port.InventoryLedger
}

func NewHTTPHandler(fulfillment *service.FulfillmentService, support *service.SupportService, ledger port.InventoryLedger) *HTTPHandler {
	return &HTTPHandler{
		fulfillment: fulfillment,
		support:     support,
		ledger:      ledger,
	}
}

func (h *HTTPHandler) Register(r *mux.Router) {
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	r.HandleFunc("/api/inventory", h.ListInventory).Methods(http.MethodGet)
	r.HandleFunc("/api/inventory/add", h.AddInventory).Methods(http.MethodPost)
	r.HandleFunc("/api/inventory/remove", h.RemoveInventory).Methods(http.MethodPost)
	r.HandleFunc("/api/inventory/{sku}", h.GetInventory).Methods(http.MethodGet)
	r.HandleFunc("/api/inventory/{sku}", h.SetInventory).Methods(http.MethodPut)
	r.HandleFunc("/api/inventory/{sku}", h.DeleteInventory).Methods(http.MethodDelete)

	r.HandleFunc("/api/orders", h.CreateOrder).Methods(http.MethodPost)
	r.HandleFunc("/api/orders", h.ListOrders).Methods(http.MethodGet)
	r.HandleFunc("/api/orders/{orderId}", h.GetOrder).Methods(http.MethodGet)
	r.HandleFunc("/api/orders/{orderId}", h.UpdateOrder).Methods(http.MethodPut)
	r.HandleFunc("/api/orders/{orderId}", h.CancelOrder).Methods(http.MethodDelete)
	r.HandleFunc("/api/orders/{orderId}/refund", h.RefundOrder).Methods(http.MethodPost)
	r.HandleFunc("/api/orders/{orderId}/replace", h.ReplaceOrder).Methods(http.MethodPost)

	r.HandleFunc("/api/support", h.SupportRequest).Methods(http.MethodPost)
}

type orderRequest struct {
	SKU      string          `json:"sku"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type orderResponse struct {
	ID        string          `json:"id"`
	SKU       string          `json:"sku"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type inventoryItem struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

type inventoryMutation struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

type replacementRequest struct {
	NewSKU string          `json:"new_sku"`
	Price  decimal.Decimal `json:"price"`
}

type supportRequest struct {
	Message   string           `json:"message"`
	OrderID   string           `json:"order_id"`
	Intent    domain.Intent    `json:"intent"`
	Sentiment domain.Sentiment `json:"sentiment"`
}

type supportResponse struct {
	OriginalOrder    *orderResponse       `json:"original_order,omitempty"`
	ReplacementOrder *orderResponse       `json:"replacement_order,omitempty"`
	Operation        domain.OperationType `json:"operation"`
	RefundFallback   bool                 `json:"refund_fallback"`
	Summary          string               `json:"summary"`
	CustomerMessage  string               `json:"customer_message,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Available *int   `json:"available,omitempty"`
}

func toOrderResponse(order domain.Order) *orderResponse {
	return &orderResponse{
		ID:        order.ID,
		SKU:       order.SKU,
		Quantity:  order.Quantity,
		UnitPrice: order.UnitPrice,
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) ListInventory(w http.ResponseWriter, r *http.Request) {
	stock, err := h.ledger.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stock)
}

func (h *HTTPHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	sku := mux.Vars(r)["sku"]
	qty, err := h.ledger.Quantity(r.Context(), sku)
	if err != nil {
		writeError(w, err)
		return
	}
	if qty <= 0 {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}
	writeJSON(w, http.StatusOK, inventoryItem{SKU: sku, Quantity: qty})
}

func (h *HTTPHandler) AddInventory(w http.ResponseWriter, r *http.Request) {
	var req inventoryMutation
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SKU == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "sku is required"})
		return
	}
	qty, err := h.ledger.Add(r.Context(), req.SKU, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inventoryItem{SKU: req.SKU, Quantity: qty})
}

func (h *HTTPHandler) RemoveInventory(w http.ResponseWriter, r *http.Request) {
	var req inventoryMutation
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SKU == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "sku is required"})
		return
	}
	qty, err := h.ledger.Remove(r.Context(), req.SKU, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inventoryItem{SKU: req.SKU, Quantity: qty})
}

func (h *HTTPHandler) SetInventory(w http.ResponseWriter, r *http.Request) {
	sku := mux.Vars(r)["sku"]
	var req inventoryMutation
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	qty, err := h.ledger.Set(r.Context(), sku, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inventoryItem{SKU: sku, Quantity: qty})
}

func (h *HTTPHandler) DeleteInventory(w http.ResponseWriter, r *http.Request) {
	sku := mux.Vars(r)["sku"]
	existed, err := h.ledger.Delete(r.Context(), sku)
	if err != nil {
		writeError(w, err)
		return
	}
	if !existed {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	order, err := h.fulfillment.CreateOrder(r.Context(), req.SKU, req.Quantity, req.Price)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.fulfillment.GetOrder(r.Context(), mux.Vars(r)["orderId"])
	if err != nil {
		writeError(w, err)
		return
	}
	if order == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "order not found"})
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.fulfillment.ListOrders(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	responses := make([]*orderResponse, 0, len(orders))
	for _, order := range orders {
		responses = append(responses, toOrderResponse(order))
	}
	writeJSON(w, http.StatusOK, responses)
}

func (h *HTTPHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	order, err := h.fulfillment.UpdateOrder(r.Context(), mux.Vars(r)["orderId"], req.SKU, req.Quantity, req.Price)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *HTTPHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	cancelled, err := h.fulfillment.CancelOrder(r.Context(), mux.Vars(r)["orderId"])
	if err != nil {
		writeError(w, err)
		return
	}
	if !cancelled {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "order not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "order cancelled successfully"})
}

func (h *HTTPHandler) RefundOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["orderId"]

	order, err := h.fulfillment.GetOrder(r.Context(), orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	if order == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "order not found"})
		return
	}

	summary, err := h.fulfillment.ProcessRefund(r.Context(), order.ID, order.SKU, order.Quantity, order.UnitPrice)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": summary})
}

func (h *HTTPHandler) ReplaceOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["orderId"]

	order, err := h.fulfillment.GetOrder(r.Context(), orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	if order == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "order not found"})
		return
	}

	// The replacement SKU defaults to the original's; a body can swap it.
	newSKU, newPrice := order.SKU, order.UnitPrice
	var req replacementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
		if req.NewSKU != "" {
			newSKU = req.NewSKU
		}
		if req.Price.Sign() > 0 {
			newPrice = req.Price
		}
	}

	replacement, err := h.fulfillment.ProcessReplacement(r.Context(), order.ID, order.SKU, newSKU, order.Quantity, newPrice)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(replacement))
}

func (h *HTTPHandler) SupportRequest(w http.ResponseWriter, r *http.Request) {
	var req supportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	var (
		outcome domain.AdjustmentOutcome
		message string
		err     error
	)
	if req.Message != "" {
		outcome, message, err = h.support.HandleMessage(r.Context(), req.Message)
	} else if req.OrderID != "" {
		outcome, err = h.support.HandleRequest(r.Context(), domain.ClassifiedRequest{
			OrderID:   req.OrderID,
			Intent:    req.Intent,
			Sentiment: req.Sentiment,
		})
	} else {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message or order_id is required"})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	resp := supportResponse{
		Operation:       outcome.Operation,
		RefundFallback:  outcome.RefundFallback,
		Summary:         outcome.Summary,
		CustomerMessage: message,
	}
	if outcome.OriginalOrder != nil {
		resp.OriginalOrder = toOrderResponse(*outcome.OriginalOrder)
	}
	if outcome.ReplacementOrder != nil {
		resp.ReplacementOrder = toOrderResponse(*outcome.ReplacementOrder)
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeError maps the core error taxonomy onto transport status codes:
// validation 400, insufficient inventory 409 with the available count,
// not-found 404, everything else 500 with no internal detail.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *service.ValidationError
	var inventoryErr *service.InsufficientInventoryError

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validationErr.Reason})
	case errors.As(err, &inventoryErr):
		available := inventoryErr.Available
		writeJSON(w, http.StatusConflict, errorResponse{Error: "insufficient inventory", Available: &available})
	case errors.Is(err, service.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "order not found"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
