package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/example/prereqkit/internal/auth"
	"github.com/example/prereqkit/internal/types"
	"github.com/example/prereqkit/pkg/jsonutil"
)

// AdminHandler serves POST /admin/create-key.
type AdminHandler struct {
	Store      auth.APIKeyCreator
	AdminToken string
}

func NewAdminHandler(store auth.APIKeyCreator, adminToken string) *AdminHandler {
	return &AdminHandler{Store: store, AdminToken: adminToken}
}

// An empty Key asks the server to generate one.
type createKeyRequest struct {
	Key   string `json:"key"`
	Owner string `json:"owner"`
}

type createKeyResponse struct {
	Key     string `json:"key"`
	Active  bool   `json:"active"`
	Owner   string `json:"owner,omitempty"`
	Created string `json:"created_at"`
}

func (h *AdminHandler) authorized(r *http.Request) bool {
	got := r.Header.Get("X-Admin-Token")
	return h.AdminToken != "" && subtle.ConstantTimeCompare([]byte(got), []byte(h.AdminToken)) == 1
}

func (h *AdminHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonutil.Error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !h.authorized(r) {
		jsonutil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createKeyRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, "bad request")
		return
	}
	key := req.Key
	if key == "" {
		var err error
		if key, err = auth.NewKey(); err != nil {
			jsonutil.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	if err := h.Store.Create(r.Context(), key, true, req.Owner); err != nil {
		jsonutil.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonutil.JSON(w, http.StatusOK, createKeyResponse{
		Key:     key,
		Active:  true,
		Owner:   req.Owner,
		Created: types.NowRFC3339(),
	})
}
