package handlers

import (
	"errors"
	"net/http"

	"github.com/example/prereqkit/internal/instruction"
	"github.com/example/prereqkit/internal/pda"
	"github.com/example/prereqkit/internal/solana"
	"github.com/example/prereqkit/internal/wallet"
	"github.com/example/prereqkit/pkg/jsonutil"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, wallet.ErrMalformedInput),
		errors.Is(err, pda.ErrMalformedSeeds),
		errors.Is(err, instruction.ErrEmptyHandle):
		return http.StatusBadRequest
	case errors.Is(err, pda.ErrDerivationExhausted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, solana.ErrNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	jsonutil.Error(w, statusFor(err), err.Error())
}
