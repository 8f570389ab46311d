package auth

import (
	"net/http"
	"time"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/transport"
	"github.com/jmfitness/studio-management/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service      ServiceAPI
	CookieSecure bool
}

func NewHandler(svc ServiceAPI, cookieSecure bool) *Handler {
	return &Handler{
		BaseHandler:  transport.NewBaseHandler(logger.LoggerWrapper()),
		Service:      svc,
		CookieSecure: cookieSecure,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	session, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     transport.AuthCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	h.WriteSuccess(w, http.StatusOK, session, "Login realizado com sucesso")
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     transport.AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	h.WriteSuccess(w, http.StatusOK, nil, "Logout realizado com sucesso")
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	current, err := h.Service.Me(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteSuccess(w, http.StatusOK, current, "")
}

// Authenticate resolves the caller once and stores the identity in the
// request context. Requests without a valid token are rejected with 401.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractToken(r)
		if token == "" {
			h.HandleServiceError(w, r, internal.ErrNotAuthenticated)
			return
		}

		id, err := h.Service.ValidateToken(token)
		if err != nil {
			logger.From(r.Context()).Warn("rejected session token", "path", r.URL.Path, "error", err)
			h.HandleServiceError(w, r, err)
			return
		}

		ctx := WithIdentity(r.Context(), id)
		ctx = logger.With(ctx, "userID", id.ID, "role", id.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
