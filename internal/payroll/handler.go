package payroll

import (
	"net/http"
	"strconv"

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

// Report handles GET /api/v1/payroll?month&year
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	month, year, ok := h.period(w, r)
	if !ok {
		return
	}

	res, err := h.Service.Report(r.Context(), actor, month, year)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, res, "")
}

// PDF handles GET /api/v1/payroll/report.pdf?month&year
func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	month, year, ok := h.period(w, r)
	if !ok {
		return
	}

	body, filename, err := h.Service.PDF(r.Context(), actor, month, year)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteFile(w, "application/pdf", filename, body)
}

func (h *Handler) period(w http.ResponseWriter, r *http.Request) (month, year int, ok bool) {
	q := r.URL.Query()
	var err error
	if s := q.Get("month"); s != "" {
		if month, err = strconv.Atoi(s); err != nil {
			h.WriteError(w, http.StatusBadRequest, "Mês inválido")
			return 0, 0, false
		}
	}
	if s := q.Get("year"); s != "" {
		if year, err = strconv.Atoi(s); err != nil {
			h.WriteError(w, http.StatusBadRequest, "Ano inválido")
			return 0, 0, false
		}
	}
	return month, year, true
}
