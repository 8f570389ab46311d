package payment

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

// ListMonthly handles GET /api/v1/payments/monthly
func (h *Handler) ListMonthly(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	payments, err := h.Service.ListMonthlyPayments(r.Context(), actor)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, payments, "")
}

// UpdateStatus handles PATCH /api/v1/payments/monthly/{userId}
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	var dto UpdateStatusDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	if err := h.Service.UpdatePaymentStatus(r.Context(), actor, chi.URLParam(r, "userId"), dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	label := "PENDENTE"
	if *dto.Paid {
		label = "PAGO"
	}
	h.WriteSuccess(w, http.StatusOK, nil, "Status atualizado para "+label+" com sucesso!")
}

// PayMine handles POST /api/v1/payments/me/pay
func (h *Handler) PayMine(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	var dto PayFeeDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	receipt, err := h.Service.PayMonthlyFee(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, receipt, "Pagamento registrado com sucesso!")
}

// Mine handles GET /api/v1/payments/me
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	status, err := h.Service.GetMyPaymentStatus(r.Context(), actor)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, status, "")
}
