package student

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

// Create handles POST /api/v1/students
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	var dto CreateStudentDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	created, err := h.Service.Create(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, created, "Aluno cadastrado com sucesso! Um link de confirmação foi enviado por e-mail.")
}

// List handles GET /api/v1/students?includeDeleted=true
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	list, err := h.Service.List(r.Context(), actor, r.URL.Query().Get("includeDeleted") == "true")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, list, "")
}

// Search handles GET /api/v1/students/search?q=
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	docs, err := h.Service.Search(r.Context(), actor, r.URL.Query().Get("q"))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, docs, "")
}

// Get handles GET /api/v1/students/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	s, err := h.Service.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, s, "")
}

// Update handles PATCH /api/v1/students/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	var dto UpdateStudentDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	if err := h.Service.Update(r.Context(), actor, chi.URLParam(r, "id"), dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, nil, "Dados do aluno atualizados com sucesso")
}

// Delete handles DELETE /api/v1/students/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	if err := h.Service.SoftDelete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, nil, "Aluno desativado com sucesso")
}

// Restore handles POST /api/v1/students/{id}/restore
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	if err := h.Service.Restore(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, nil, "Aluno reativado com sucesso")
}
