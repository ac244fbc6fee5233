package handlers

import (
	"net/http"

	"github.com/example/prereqkit/internal/types"
	"github.com/example/prereqkit/internal/wallet"
	"github.com/example/prereqkit/pkg/jsonutil"
)

// ConvertHandler serves POST /api/convert, translating between the base58
// and byte-list renderings of a key.
type ConvertHandler struct{}

func NewConvertHandler() *ConvertHandler { return &ConvertHandler{} }

func (h *ConvertHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req types.ConvertRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, "bad request")
		return
	}
	var out string
	switch req.Direction {
	case types.DirectionToBase58:
		b, err := wallet.ParseByteList(req.Input)
		if err != nil {
			writeError(w, err)
			return
		}
		out = wallet.EncodeBase58(b)
	case types.DirectionToBytes:
		b, err := wallet.DecodeBase58(req.Input)
		if err != nil {
			writeError(w, err)
			return
		}
		out = wallet.FormatByteList(b)
	default:
		jsonutil.Error(w, http.StatusBadRequest, "direction must be to-base58 or to-bytes")
		return
	}
	jsonutil.JSON(w, http.StatusOK, types.ConvertResponse{Output: out})
}
