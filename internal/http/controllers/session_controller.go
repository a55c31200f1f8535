package controllers

import (
	"net/http"

	dto "github.com/dropDatabas3/olympus/internal/http/dto"
	httperrors "github.com/dropDatabas3/olympus/internal/http/errors"
	"github.com/dropDatabas3/olympus/internal/http/helpers"
	"github.com/dropDatabas3/olympus/internal/http/middlewares"
)

type SessionController struct {
	auth   AuthService
	cookie CookieConfig
}

// Refresh maneja POST /v1/session/refresh. Una cookie desconocida vuelve tal
// cual (rotated=false); no se valida rol.
func (c *SessionController) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie := middlewares.SessionCookie(r, c.cookie.Name)
	if cookie == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("session cookie missing"))
		return
	}
	next, err := c.auth.RefreshCookie(r.Context(), cookie)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	rotated := next != cookie
	if rotated {
		setSessionCookie(w, c.cookie, next)
	}
	helpers.WriteJSON(w, http.StatusOK, dto.RefreshResponse{Cookie: next, Rotated: rotated})
}

// Current maneja GET /v1/session (requiere sesión)
func (c *SessionController) Current(w http.ResponseWriter, r *http.Request) {
	_, authz, _ := middlewares.GetSession(r.Context())
	helpers.WriteJSON(w, http.StatusOK, dto.SessionResponse{
		Username:   authz.Username,
		Roles:      authz.Roles,
		Expiration: authz.Expiration,
	})
}

// Logout maneja POST /v1/logout (requiere sesión)
func (c *SessionController) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, _, _ := middlewares.GetSession(r.Context())
	if err := c.auth.Logout(r.Context(), cookie); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	setSessionCookie(w, c.cookie, "")
	w.WriteHeader(http.StatusNoContent)
}
