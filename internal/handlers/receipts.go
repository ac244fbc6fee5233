package handlers

import (
	"net/http"
	"strconv"

	"github.com/example/prereqkit/internal/receipts"
	"github.com/example/prereqkit/pkg/jsonutil"
	sol "github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
)

// ReceiptsHandler serves GET /api/receipts/{signer}?limit=N.
type ReceiptsHandler struct {
	Store receipts.Lister
}

func NewReceiptsHandler(store receipts.Lister) *ReceiptsHandler {
	return &ReceiptsHandler{Store: store}
}

func (h *ReceiptsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	signer := chi.URLParam(r, "signer")
	if _, err := sol.PublicKeyFromBase58(signer); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, "invalid signer")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			jsonutil.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	out, err := h.Store.List(r.Context(), signer, receipts.ClampLimit(limit))
	if err != nil {
		jsonutil.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonutil.JSON(w, http.StatusOK, map[string]any{"signer": signer, "receipts": out})
}
