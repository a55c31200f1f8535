package controllers

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/olympus/internal/auth"
	dto "github.com/dropDatabas3/olympus/internal/http/dto"
	httperrors "github.com/dropDatabas3/olympus/internal/http/errors"
	"github.com/dropDatabas3/olympus/internal/http/helpers"
)

type LoginController struct {
	auth   AuthService
	cookie CookieConfig
}

// Login maneja POST /v1/login
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Credential == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("username and credential are required"))
		return
	}

	res, err := c.auth.Login(r.Context(), auth.LoginRequest{
		Username:   req.Username,
		Credential: req.Credential,
		MFAToken:   req.MFAToken,
		MFAType:    req.MFAType,
		Policy:     req.Policy,
	})
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}

	resp := dto.LoginResponse{Cookie: res.Cookie, ClaimToken: res.ClaimToken}
	if res.Claims != nil {
		resp.Claims = res.Claims.Values()
	}
	if !res.TokenExpiry.IsZero() {
		exp := res.TokenExpiry
		resp.TokenExpiry = &exp
	}
	setSessionCookie(w, c.cookie, res.Cookie)
	helpers.WriteJSON(w, http.StatusOK, resp)
}
