package confirmation

import (
	"net/http"

	"github.com/jmfitness/studio-management/internal/transport"
	"github.com/jmfitness/studio-management/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper()),
		Service:     svc,
	}
}

// Confirm handles POST /api/v1/users/confirm
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	var dto ConfirmDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	if err := h.Service.Confirm(r.Context(), dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, nil, "Conta confirmada com sucesso! Você já pode fazer login.")
}
