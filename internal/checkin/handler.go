package checkin

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
	Hub     *Hub
}

func NewHandler(svc ServiceAPI, hub *Hub) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper()),
		Service:     svc,
		Hub:         hub,
	}
}

// Quick handles POST /api/v1/checkins/quick. No session is required.
func (h *Handler) Quick(w http.ResponseWriter, r *http.Request) {
	var dto QuickCheckInDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	receipt, err := h.Service.QuickCheckIn(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, receipt, "Check-in realizado com sucesso! Bem-vindo(a), "+receipt.UserName+"!")
}

// Manual handles POST /api/v1/checkins
func (h *Handler) Manual(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	var dto ManualCheckInDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	receipt, err := h.Service.ManualCheckIn(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, receipt, "Check-in registrado para "+receipt.UserName)
}

// Professor handles POST /api/v1/checkins/professor
func (h *Handler) Professor(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	var dto ProfessorCheckInDTO
	if r.ContentLength > 0 && !h.DecodeJSON(w, r, &dto) {
		return
	}

	pc, err := h.Service.ProfessorCheckIn(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, pc, "Check-in registrado com sucesso às "+pc.CheckInTime+"!")
}

// ProfessorHistory handles GET /api/v1/checkins/professor?start&end
func (h *Handler) ProfessorHistory(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	from, ok := h.dateParam(w, r, "start")
	if !ok {
		return
	}
	to, ok := h.dateParam(w, r, "end")
	if !ok {
		return
	}

	list, err := h.Service.ProfessorHistory(r.Context(), actor, from, to)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, list, "")
}

// List handles GET /api/v1/checkins?date=YYYY-MM-DD
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	day, ok := h.dateParam(w, r, "date")
	if !ok {
		return
	}

	list, err := h.Service.List(r.Context(), actor, day)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, list, "")
}

// ListByStudent handles GET /api/v1/checkins/student/{studentId}
func (h *Handler) ListByStudent(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	list, err := h.Service.ListByStudent(r.Context(), actor, chi.URLParam(r, "studentId"))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, list, "")
}

// Feed handles GET /api/v1/checkins/feed (websocket upgrade). Staff only.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	if err := auth.Authorize(actor, auth.ResourceCheckins, auth.ActionRead, auth.PermissionContext{}); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if !actor.Role.IsStaff() {
		h.HandleServiceError(w, r, internal.ErrPermissionDenied)
		return
	}
	h.Hub.ServeWS(w, r)
}

func (h *Handler) dateParam(w http.ResponseWriter, r *http.Request, name string) (*time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	t, err := validation.ParseDate(raw)
	if err != nil {
		h.HandleServiceError(w, r, internal.NewValidationFieldError(name, validation.Label(name)+" deve ser uma data válida (AAAA-MM-DD)"))
		return nil, false
	}
	return &t, true
}
