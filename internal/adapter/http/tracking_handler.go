package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/me/burgermes/internal/adapter/logger"
	"github.com/me/burgermes/internal/interfaces"
)

// TrackingHandler serves GET /orders/{id} and GET /machines/occupancy.
type TrackingHandler struct {
	service interfaces.TrackingService
	logger  logger.Logger
}

func NewTrackingHandler(service interfaces.TrackingService, logger logger.Logger) *TrackingHandler {
	return &TrackingHandler{service: service, logger: logger}
}

func (h *TrackingHandler) HandleOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 2 {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	orderID, err := strconv.Atoi(parts[1])
	if err != nil {
		http.Error(w, "Invalid order id", http.StatusBadRequest)
		return
	}

	result, err := h.service.GetOrderStatus(r.Context(), orderID)
	if err != nil {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}

	resp := map[string]interface{}{
		"order_id":           result.OrderID,
		"status":             result.Status,
		"priority":           result.Priority,
		"estimated_shipping": result.EstimatedShipping,
		"products":           result.Products,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *TrackingHandler) GetMachineOccupancy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	machines, err := h.service.GetMachineOccupancy(r.Context())
	if err != nil {
		h.logger.Error("occupancy_failed", "Failed to load machine occupancy", "", nil, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := make([]map[string]interface{}, len(machines))
	for i, m := range machines {
		resp[i] = map[string]interface{}{
			"machine_id":     m.MachineID,
			"name":           m.Name,
			"status":         m.Status,
			"procedures":     m.Procedures,
			"occupied_until": m.OccupiedUntil,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
