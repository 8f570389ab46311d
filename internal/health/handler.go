package health

import (
	"net/http"

	"github.com/go-chi/chi"

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

// GetMetrics handles GET /api/v1/students/{id}/health
func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	m, err := h.Service.GetMetrics(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, m, "")
}

// UpdateMetrics handles PUT /api/v1/students/{id}/health
func (h *Handler) UpdateMetrics(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	var dto MetricsDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	m, err := h.Service.UpdateMetrics(r.Context(), actor, chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, m, "Dados de saúde atualizados com sucesso")
}

// AddHistoryEntry handles POST /api/v1/health/history
func (h *Handler) AddHistoryEntry(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	var dto HistoryEntryDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	entry, err := h.Service.AddHistoryEntry(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, entry, "Entrada de saúde adicionada com sucesso!")
}

// GetHistory handles GET /api/v1/students/{id}/health/history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	history, err := h.Service.GetHistory(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, history, "Histórico carregado com sucesso")
}

// SaveMeasurement handles POST /api/v1/students/{id}/measurements
func (h *Handler) SaveMeasurement(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	var dto MeasurementDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	m, err := h.Service.SaveMeasurement(r.Context(), actor, chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, m, "Avaliação física registrada com sucesso")
}

// ListMeasurements handles GET /api/v1/students/{id}/measurements
func (h *Handler) ListMeasurements(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	list, err := h.Service.ListMeasurements(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, list, "")
}
