package expense

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/transport"
	"github.com/jmfitness/studio-management/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper()),
		Service:     service,
	}
}

// Create handles POST /api/v1/expenses
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	var dto CreateExpenseDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	e, err := h.Service.Create(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusCreated, e, "Despesa cadastrada com sucesso!")
}

// List handles GET /api/v1/expenses?paid&recurrent&category
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	f, ok := h.filter(w, r)
	if !ok {
		return
	}

	list, err := h.Service.List(r.Context(), actor, f)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, list, "")
}

// Categories handles GET /api/v1/expenses/categories
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	h.WriteSuccess(w, http.StatusOK, categoryOptions(), "")
}

// Update handles PATCH /api/v1/expenses/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	var dto UpdateExpenseDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	e, err := h.Service.Update(r.Context(), actor, chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, e, "Despesa atualizada com sucesso!")
}

// Delete handles DELETE /api/v1/expenses/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	if err := h.Service.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, nil, "Despesa excluída com sucesso!")
}

// Overview handles GET /api/v1/expenses/overview
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	o, err := h.Service.Overview(r.Context(), actor)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, o, "")
}

// Report handles GET /api/v1/expenses/report.pdf
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	f, ok := h.filter(w, r)
	if !ok {
		return
	}

	body, filename, err := h.Service.PDF(r.Context(), actor, f)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteFile(w, "application/pdf", filename, body)
}

// Attach handles POST /api/v1/expenses/{id}/attachment (multipart field "file")
func (h *Handler) Attach(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, MaxAttachmentSize+1<<20)
	if err := r.ParseMultipartForm(MaxAttachmentSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.HandleServiceError(w, r, ErrAttachmentTooLarge)
			return
		}
		h.WriteError(w, http.StatusBadRequest, "Formulário inválido")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.HandleServiceError(w, r, ErrAttachmentMissing)
		return
	}
	defer file.Close()

	e, err := h.Service.Attach(r.Context(), actor, chi.URLParam(r, "id"), file, header.Filename, header.Size)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, e, "Anexo enviado com sucesso!")
}

func (h *Handler) filter(w http.ResponseWriter, r *http.Request) (Filter, bool) {
	var f Filter
	q := r.URL.Query()
	for name, dst := range map[string]**bool{"paid": &f.Paid, "recurrent": &f.Recurrent} {
		s := q.Get(name)
		if s == "" {
			continue
		}
		v, err := strconv.ParseBool(s)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "Filtro inválido: "+name)
			return Filter{}, false
		}
		*dst = &v
	}
	if s := q.Get("category"); s != "" {
		c := Category(s)
		if _, ok := categoryLabels[c]; !ok {
			h.WriteError(w, http.StatusBadRequest, "Categoria inválida")
			return Filter{}, false
		}
		f.Category = &c
	}
	return f, true
}
