package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"laundromat/internal/model"
	"laundromat/internal/mw"
	"laundromat/internal/service"
)

func CreateOrderHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input service.CreateOrderInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if input.CustomerID == "" || input.DeliveryDate.IsZero() {
			http.Error(w, "customer_id and delivery_date required", http.StatusBadRequest)
			return
		}

		order, err := orderSvc.Create(r.Context(), input)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, order)
	}
}

func ListOrdersHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(mw.UserCtxKey).(string)
		role := r.Context().Value(mw.RoleCtxKey).(string)

		orders, err := orderSvc.ListForUser(r.Context(), userID, role)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if len(orders) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, orders)
	}
}

func GetOrderHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := orderSvc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		userID := r.Context().Value(mw.UserCtxKey).(string)
		role := r.Context().Value(mw.RoleCtxKey).(string)
		if role == model.RoleCustomer && order.CustomerID != userID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}

type statusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

func UpdateStatusHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req statusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Status == "" {
			http.Error(w, "status required", http.StatusBadRequest)
			return
		}

		order, err := orderSvc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status, req.Notes)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}

type assignDriverRequest struct {
	DriverID string `json:"driver_id"`
}

func AssignDriverHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req assignDriverRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		order, err := orderSvc.AssignDriver(r.Context(), chi.URLParam(r, "id"), req.DriverID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}

func RecalculateTotalHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := orderSvc.RecalculateTotal(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}
