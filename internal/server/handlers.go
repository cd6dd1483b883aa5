package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/delivro/rateshop/pkg/carrier"
	"github.com/delivro/rateshop/pkg/rating"
)

// carriersResponse is the success envelope for carrier mutations: the
// refreshed carrier list, always present even when empty.
type carriersResponse struct {
	Success  bool              `json:"success"`
	Carriers []carrier.Carrier `json:"carriers"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type carrierInput struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// rateRequest is the carrier-service callback payload: the order weight
// descriptor nested under "rate".
type rateRequest struct {
	Rate rating.Order `json:"rate"`
}

func (s *Server) handleListCarriers(w http.ResponseWriter, r *http.Request) {
	carriers, err := s.registry.List(r.Context())
	if err != nil {
		s.storeFailure(w, r, "list_carriers", "Failed to fetch carriers", err)
		return
	}
	if carriers == nil {
		carriers = []carrier.Carrier{}
	}
	writeJSON(w, http.StatusOK, carriers)
}

func (s *Server) handleCreateCarrier(w http.ResponseWriter, r *http.Request) {
	var input carrierInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Success: false,
			Error:   "Invalid carrier data. Name and price (in cents) are required.",
		})
		return
	}

	_, err := s.registry.Create(r.Context(), input.Name, input.Price)
	switch {
	case carrier.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Success: false,
			Error:   "Invalid carrier data. Name and price (in cents) are required.",
		})
		return
	case errors.Is(err, carrier.ErrDuplicateName):
		writeJSON(w, http.StatusConflict, errorResponse{
			Success: false,
			Error:   "A carrier with this name already exists",
		})
		return
	case err != nil:
		s.storeFailure(w, r, "create_carrier", "Failed to add carrier", err)
		return
	}

	s.respondWithCarriers(w, r, "create_carrier")
}

func (s *Server) handleUpdateCarrier(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var input carrierInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Success: false,
			Error:   "Invalid price. Price (in cents) must be a positive number.",
		})
		return
	}

	result, err := s.registry.UpdatePrice(r.Context(), name, input.Price)
	switch {
	case carrier.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Success: false,
			Error:   "Invalid price. Price (in cents) must be a positive number.",
		})
		return
	case err != nil:
		s.storeFailure(w, r, "update_carrier", "Failed to update carrier", err)
		return
	case !result.Changed:
		writeJSON(w, http.StatusNotFound, errorResponse{
			Success: false,
			Error:   "Carrier not found",
		})
		return
	}

	s.respondWithCarriers(w, r, "update_carrier")
}

func (s *Server) handleDeleteCarrier(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	changed, err := s.registry.Remove(r.Context(), name)
	if err != nil {
		s.storeFailure(w, r, "delete_carrier", "Failed to delete carrier", err)
		return
	}
	if !changed {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Success: false,
			Error:   "Carrier not found",
		})
		return
	}

	s.respondWithCarriers(w, r, "delete_carrier")
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, rating.Result{
			Success: false,
			Rates:   []rating.Quote{},
			Error:   "Invalid JSON: " + err.Error(),
		})
		return
	}

	carriers, err := s.registry.List(r.Context())
	if err != nil {
		s.metrics.RecordStoreError("rates")
		s.logger.Ctx(r.Context()).Error("Carrier service error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, rating.Result{
			Success: false,
			Rates:   []rating.Quote{},
			Error:   "Failed to calculate shipping rates",
		})
		return
	}

	result := s.engine.Quote(carriers, req.Rate)
	if result.Success && len(result.Rates) > 0 {
		s.logger.Ctx(r.Context()).Info("Returning cheapest rate",
			zap.String("service_name", result.Rates[0].ServiceName),
			zap.Int64("total_price", result.Rates[0].TotalPrice),
		)
	}
	writeJSON(w, http.StatusOK, result)
}

// respondWithCarriers writes the full refreshed carrier list, the success
// shape shared by every mutation.
func (s *Server) respondWithCarriers(w http.ResponseWriter, r *http.Request, operation string) {
	carriers, err := s.registry.List(r.Context())
	if err != nil {
		s.storeFailure(w, r, operation, "Failed to fetch carriers", err)
		return
	}
	if carriers == nil {
		carriers = []carrier.Carrier{}
	}
	writeJSON(w, http.StatusOK, carriersResponse{Success: true, Carriers: carriers})
}

func (s *Server) storeFailure(w http.ResponseWriter, r *http.Request, operation, message string, err error) {
	s.metrics.RecordStoreError(operation)
	s.logger.Ctx(r.Context()).Error(message, zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Success: false,
		Error:   message,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
