package controllers

import (
	"net/http"
	"strings"

	dto "github.com/dropDatabas3/olympus/internal/http/dto"
	httperrors "github.com/dropDatabas3/olympus/internal/http/errors"
	"github.com/dropDatabas3/olympus/internal/http/helpers"
	"github.com/dropDatabas3/olympus/internal/http/middlewares"
	"github.com/dropDatabas3/olympus/internal/observability/logger"
)

// maxUsernameLen acota el username aceptado en el alta.
const maxUsernameLen = 256

type UsersController struct {
	auth AuthService
}

// Enroll maneja POST /v1/users
func (c *UsersController) Enroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("users.enroll"))

	var req dto.EnrollRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Credential == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("username and credential are required"))
		return
	}
	if len(req.Username) > maxUsernameLen {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("username too long"))
		return
	}

	if err := c.auth.Enroll(ctx, req.Username, req.Credential, req.Proof); err != nil {
		log.Info("enroll rejected", logger.Username(req.Username), logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, dto.EnrollResponse{Username: req.Username})
}

// ChangeCredential maneja POST /v1/users/credential (requiere sesión)
func (c *UsersController) ChangeCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := middlewares.GetUsername(ctx)

	var req dto.ChangeCredentialRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.OldCredential == "" || req.NewCredential == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("old_credential and new_credential are required"))
		return
	}
	if err := c.auth.ChangeCredential(ctx, username, req.OldCredential, req.NewCredential); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAccount maneja DELETE /v1/account (requiere sesión). La sesión actual
// se revoca aunque el usuario ya no existiera.
func (c *UsersController) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("users.delete_account"))
	cookie, authz, _ := middlewares.GetSession(ctx)

	deleted, err := c.auth.DeleteAccount(ctx, authz.Username)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if err := c.auth.Logout(ctx, cookie); err != nil {
		log.Warn("revoke session after account deletion failed", logger.Err(err))
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}
