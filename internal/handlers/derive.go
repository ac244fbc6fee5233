package handlers

import (
	"fmt"
	"net/http"

	"github.com/example/prereqkit/internal/pda"
	"github.com/example/prereqkit/internal/types"
	"github.com/example/prereqkit/internal/wallet"
	"github.com/example/prereqkit/pkg/jsonutil"
	sol "github.com/gagliardetto/solana-go"
)

// DeriveHandler serves POST /api/derive-pda.
type DeriveHandler struct{}

func NewDeriveHandler() *DeriveHandler { return &DeriveHandler{} }

func (h *DeriveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req types.DerivePDARequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, "bad request")
		return
	}
	program, err := sol.PublicKeyFromBase58(req.Program)
	if err != nil {
		writeError(w, fmt.Errorf("%w: program: %v", wallet.ErrMalformedInput, err))
		return
	}
	seeds, err := pda.ParseSeeds(req.Seeds)
	if err != nil {
		writeError(w, err)
		return
	}
	addr, bump, err := pda.Derive(seeds, program)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonutil.JSON(w, http.StatusOK, types.DerivePDAResponse{Address: addr.String(), Bump: bump})
}
