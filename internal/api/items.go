package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/inventario/internal/ledger"
	"github.com/erazemk/inventario/internal/model"
)

// ItemsHandler handles inventory and transaction endpoints.
type ItemsHandler struct {
	Ledger *ledger.Ledger
}

type adjustRequest struct {
	Delta int `json:"delta"`
}

type decommissionRequest struct {
	SerialNumber string `json:"serialNumber"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Ledger.Search(r.URL.Query().Get("q")))
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var draft model.Draft
	if err := decodeJSON(r, &draft); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Ledger.AddItem(r.Context(), draft)
	if err != nil {
		ledgerError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

// Adjust handles POST /api/items/{id}/adjust.
func (h *ItemsHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Ledger.AdjustQuantity(r.Context(), r.PathValue("id"), req.Delta)
	if err != nil {
		ledgerError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Decommission handles DELETE /api/items/{id}.
func (h *ItemsHandler) Decommission(w http.ResponseWriter, r *http.Request) {
	tx, err := h.Ledger.DecommissionItem(r.Context(), r.PathValue("id"))
	if err != nil {
		ledgerError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, tx)
}

// DecommissionBySerial handles POST /api/items/decommission.
func (h *ItemsHandler) DecommissionBySerial(w http.ResponseWriter, r *http.Request) {
	var req decommissionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, err := h.Ledger.DecommissionBySerial(r.Context(), req.SerialNumber)
	if err != nil {
		ledgerError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, tx)
}

// GetBySerial handles GET /api/items/serial/{serial}.
func (h *ItemsHandler) GetBySerial(w http.ResponseWriter, r *http.Request) {
	item, ok := h.Ledger.FindBySerial(r.PathValue("serial"))
	if !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Transactions handles GET /api/transactions.
func (h *ItemsHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Ledger.Transactions())
}

// ledgerError maps ledger rejections to HTTP statuses.
func ledgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidInput):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrItemNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrInsufficientStock), errors.Is(err, ledger.ErrDuplicateSerial):
		jsonError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("ledger operation failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
