package employee

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

// Create handles POST /api/v1/employees
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	var dto CreateEmployeeDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	created, err := h.Service.Create(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, created, "Funcionário criado com sucesso!")
}

// List handles GET /api/v1/employees?includeDeleted=true
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	includeDeleted := r.URL.Query().Get("includeDeleted") == "true"

	list, err := h.Service.List(r.Context(), actor, includeDeleted)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, list, "")
}

// Update handles PATCH /api/v1/employees/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	var dto UpdateEmployeeDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	if err := h.Service.Update(r.Context(), actor, chi.URLParam(r, "id"), dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, nil, "Funcionário atualizado com sucesso!")
}

// Delete handles DELETE /api/v1/employees/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	if err := h.Service.SoftDelete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, nil, "Funcionário desativado com sucesso!")
}

// Restore handles POST /api/v1/employees/{id}/restore
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	if err := h.Service.Restore(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, nil, "Funcionário reativado com sucesso!")
}

// SalaryHistory handles GET /api/v1/employees/{id}/salary-history
func (h *Handler) SalaryHistory(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	history, err := h.Service.SalaryHistory(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, history, "")
}
