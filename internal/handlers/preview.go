package handlers

import (
	"fmt"
	"net/http"

	"github.com/example/prereqkit/internal/prereq"
	"github.com/example/prereqkit/internal/types"
	"github.com/example/prereqkit/internal/wallet"
	"github.com/example/prereqkit/pkg/jsonutil"
	sol "github.com/gagliardetto/solana-go"
)

// Previewer plans a submit_rs transaction without sending it.
type Previewer interface {
	Preview(signer, mint sol.PublicKey) (prereq.Plan, error)
}

// PreviewHandler serves POST /api/prereq/preview.
type PreviewHandler struct {
	Previewer Previewer
}

func NewPreviewHandler(p Previewer) *PreviewHandler { return &PreviewHandler{Previewer: p} }

func (h *PreviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req types.PreviewRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, "bad request")
		return
	}
	signer, err := sol.PublicKeyFromBase58(req.Signer)
	if err != nil {
		writeError(w, fmt.Errorf("%w: signer: %v", wallet.ErrMalformedInput, err))
		return
	}
	mint := wallet.New().PublicKey()
	if req.Mint != "" {
		if mint, err = sol.PublicKeyFromBase58(req.Mint); err != nil {
			writeError(w, fmt.Errorf("%w: mint: %v", wallet.ErrMalformedInput, err))
			return
		}
	}

	plan, err := h.Previewer.Preview(signer, mint)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := plan.Instruction.Data()
	if err != nil {
		writeError(w, err)
		return
	}
	resp := types.PreviewResponse{
		Program:             plan.Instruction.ProgramID().String(),
		Signer:              plan.Signer.String(),
		Mint:                plan.Mint.String(),
		PrereqsAccount:      plan.PrereqsAccount.String(),
		PrereqsBump:         plan.PrereqsBump,
		CollectionAuthority: plan.CollectionAuthority.String(),
		AuthorityBump:       plan.AuthorityBump,
		Data:                wallet.EncodeBase58(data),
	}
	for _, a := range plan.Instruction.Accounts() {
		resp.Accounts = append(resp.Accounts, types.AccountMeta{
			Pubkey:     a.PublicKey.String(),
			IsWritable: a.IsWritable,
			IsSigner:   a.IsSigner,
		})
	}
	jsonutil.JSON(w, http.StatusOK, resp)
}
