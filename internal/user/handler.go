package user

import (
	"fmt"
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

// CreateAdmin handles POST /api/v1/admins
func (h *Handler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	var dto CreateAdminDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	id, err := h.Service.CreateAdmin(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, map[string]string{"adminId": id}, "Administrador criado com sucesso!")
}

// Get handles GET /api/v1/users/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	data, err := h.Service.GetUserData(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, data, "")
}

// ToggleStatus handles PATCH /api/v1/users/{id}/status
func (h *Handler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	var dto ToggleStatusDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	if err := h.Service.ToggleStatus(r.Context(), actor, chi.URLParam(r, "id"), dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	verb := "desativado"
	if *dto.IsActive {
		verb = "ativado"
	}
	h.WriteSuccess(w, http.StatusOK, nil, fmt.Sprintf("Usuário %s com sucesso", verb))
}

// GeneratePassword handles POST /api/v1/users/{id}/password
func (h *Handler) GeneratePassword(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	pw, err := h.Service.GeneratePassword(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, pw, "Senha gerada com sucesso")
}

// RequestPasswordReset handles POST /api/v1/users/{id}/password-reset
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	link, err := h.Service.RequestPasswordReset(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, link, "Link de redefinição enviado para "+link.Email)
}
