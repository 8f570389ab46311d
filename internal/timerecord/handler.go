package timerecord

import (
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/core/common/validation"
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

// Register handles POST /api/v1/time-records
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	var dto RegisterDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	res, err := h.Service.Register(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if res.Kind == KindExit {
		h.WriteSuccess(w, http.StatusOK, res, "Saída registrada com sucesso!")
		return
	}
	h.WriteSuccess(w, http.StatusCreated, res, "Entrada registrada com sucesso!")
}

// List handles GET /api/v1/time-records?employeeId&start&end
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	q := r.URL.Query()

	var bounds [2]*time.Time
	for i, name := range []string{"start", "end"} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		t, err := validation.ParseDate(raw)
		if err != nil {
			h.HandleServiceError(w, r, internal.NewValidationFieldError(name, validation.Label(name)+" deve ser uma data válida (AAAA-MM-DD)"))
			return
		}
		bounds[i] = &t
	}

	list, err := h.Service.List(r.Context(), actor, q.Get("employeeId"), bounds[0], bounds[1])
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, list, "")
}

// Approve handles PATCH /api/v1/time-records/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	if err := h.Service.Approve(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, nil, "Ponto aprovado com sucesso!")
}
