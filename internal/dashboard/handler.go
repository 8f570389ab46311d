package dashboard

import (
	"net/http"

	"github.com/jmfitness/studio-management/internal/auth"
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

// Stats handles GET /api/v1/dashboard/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	stats, err := h.Service.Stats(r.Context(), actor)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, stats, "")
}
