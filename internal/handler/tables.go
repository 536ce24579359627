package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/tablereserve/internal/domain"
	"github.com/yourorg/tablereserve/internal/service"
)

// AddTableRequest represents a new table for a restaurant
type AddTableRequest struct {
	Seats    int    `json:"seats"`
	Location string `json:"location"`
}

// TablesHandler adds tables to a restaurant.
type TablesHandler struct {
	restaurantService *service.RestaurantService
	logger            *slog.Logger
}

// NewTablesHandler creates a new tables handler
func NewTablesHandler(restaurantService *service.RestaurantService, logger *slog.Logger) *TablesHandler {
	return &TablesHandler{
		restaurantService: restaurantService,
		logger:            logger,
	}
}

// ServeHTTP handles POST /api/restaurants/{id}/tables requests
func (h *TablesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	restaurantID := r.PathValue("id")
	var req AddTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", slog.String("error", err.Error()))
		writeError(w, h.logger, &domain.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}

	location, ok := domain.NormalizeLocation(req.Location)
	if !ok {
		writeError(w, h.logger, &domain.ValidationError{Field: "location", Reason: "unknown table location"})
		return
	}

	table, err := h.restaurantService.AddTable(r.Context(), service.AddTableRequest{
		RestaurantID: restaurantID,
		Seats:        req.Seats,
		Location:     location,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTableResponse(table))
}

// TableAvailabilityHandler flips a table's bookable flag.
type TableAvailabilityHandler struct {
	restaurantService *service.RestaurantService
	logger            *slog.Logger
}

// NewTableAvailabilityHandler creates a new table availability handler
func NewTableAvailabilityHandler(restaurantService *service.RestaurantService, logger *slog.Logger) *TableAvailabilityHandler {
	return &TableAvailabilityHandler{
		restaurantService: restaurantService,
		logger:            logger,
	}
}

// ServeHTTP handles PUT /api/restaurants/{id}/tables/{tableId}/availability requests
func (h *TableAvailabilityHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	restaurantID := r.PathValue("id")
	tableID := r.PathValue("tableId")

	var req struct {
		Available bool `json:"available"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, &domain.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}

	if err := h.restaurantService.SetTableAvailability(r.Context(), restaurantID, tableID, req.Available); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"available": req.Available})
}
