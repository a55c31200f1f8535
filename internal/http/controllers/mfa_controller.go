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

type MFAController struct {
	auth   AuthService
	otpURL OTPAuthURLFunc
}

// RequestSecret maneja POST /v1/mfa/secret. La respuesta contiene el secreto.
func (c *MFAController) RequestSecret(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("mfa.request_secret"))
	username := middlewares.GetUsername(ctx)

	var req dto.MFASecretRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	req.Type = strings.TrimSpace(req.Type)
	if req.Type == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("type is required"))
		return
	}

	secret, err := c.auth.RequestMFASecret(ctx, username, req.Type)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	resp := dto.MFASecretResponse{Type: req.Type, Secret: secret}
	if c.otpURL != nil {
		resp.OTPAuthURL = c.otpURL(req.Type, username, secret)
	}
	log.Info("mfa secret assigned", logger.MFAType(req.Type))
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// Activate maneja POST /v1/mfa/activate
func (c *MFAController) Activate(w http.ResponseWriter, r *http.Request) {
	req, ok := readTokenRequest(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	activated, err := c.auth.ActivateMFA(ctx, middlewares.GetUsername(ctx), req.Token, req.Type)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.MFAActivateResponse{Activated: activated})
}

// Delete maneja POST /v1/mfa/delete
func (c *MFAController) Delete(w http.ResponseWriter, r *http.Request) {
	req, ok := readTokenRequest(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	deleted, err := c.auth.DeleteMFA(ctx, middlewares.GetUsername(ctx), req.Token, req.Type)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.MFADeleteResponse{Deleted: deleted})
}

func readTokenRequest(w http.ResponseWriter, r *http.Request) (dto.MFATokenRequest, bool) {
	var req dto.MFATokenRequest
	if !helpers.ReadJSON(w, r, &req) {
		return req, false
	}
	req.Type = strings.TrimSpace(req.Type)
	if req.Type == "" || req.Token == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("type and token are required"))
		return req, false
	}
	return req, true
}
