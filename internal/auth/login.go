package auth

import (
	"context"
	"time"

	"github.com/dropDatabas3/olympus/internal/domain/autherr"
	"github.com/dropDatabas3/olympus/internal/domain/types"
	"github.com/dropDatabas3/olympus/internal/observability/logger"
)

// LoginRequest es la entrada de Login. Policy es opcional.
type LoginRequest struct {
	Username   string
	Credential string
	MFAToken   string
	MFAType    string
	Policy     *types.Policy
}

// LoginResult es la salida de un login exitoso.
type LoginResult struct {
	Cookie      string
	Claims      types.Claims
	ClaimToken  string
	TokenExpiry time.Time
}

// Login: autenticación del esquema -> MFA -> política -> cookie -> claim token.
// Ninguna sesión se emite si falla un paso anterior.
func (h *Handler) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	log := h.log(ctx, "auth.login").With(logger.Username(req.Username))
	scheme := h.scheme.Name()

	ok, err := h.scheme.Authenticate(ctx, req.Username, req.Credential)
	if err != nil {
		h.metrics.LoginAttempt(scheme, "error")
		return nil, err
	}
	if !ok {
		h.metrics.LoginAttempt(scheme, "bad_credentials")
		log.Info("authentication failed")
		return nil, autherr.ErrAuthenticationFailed.WithDetail("invalid credentials")
	}

	mfaType := req.MFAType
	if mfaType == "" {
		mfaType = types.MFATypeNone
	}
	ok, err = h.mfa.ValidateMFAToken(ctx, req.Username, req.MFAToken, mfaType)
	if err != nil {
		h.metrics.LoginAttempt(scheme, "error")
		return nil, err
	}
	if !ok {
		h.metrics.LoginAttempt(scheme, "mfa_rejected")
		log.Info("mfa rejected", logger.MFAType(mfaType))
		return nil, autherr.ErrAuthenticationFailed.WithDetail("mfa token rejected")
	}

	res := &LoginResult{}
	if req.Policy != nil {
		claims, err := h.ValidateAssertions(ctx, req.Username, *req.Policy)
		if err != nil {
			h.metrics.LoginAttempt(scheme, "policy_unfulfilled")
			return nil, err
		}
		res.Claims = claims
	}

	cookie, err := h.scheme.GenerateSessionCookie(ctx, req.Username)
	if err != nil {
		h.metrics.LoginAttempt(scheme, "error")
		return nil, err
	}
	res.Cookie = cookie

	if h.claims != nil && req.Policy != nil {
		tok, exp, err := h.claims.IssueClaims(req.Username, req.Policy.PolicyID, res.Claims.Values())
		if err != nil {
			log.Error("sign claim token failed", logger.Err(err))
			h.metrics.LoginAttempt(scheme, "error")
			return nil, autherr.Operation(err)
		}
		res.ClaimToken, res.TokenExpiry = tok, exp
	}

	h.metrics.LoginAttempt(scheme, "ok")
	log.Info("login ok")
	return res, nil
}

// Enroll crea el usuario con el esquema y, si viene proof, agrega atributos.
// Si el proof es rechazado la cuenta queda creada y se devuelve el error.
func (h *Handler) Enroll(ctx context.Context, username, credential, proof string) error {
	if err := h.scheme.Enroll(ctx, username, credential); err != nil {
		return err
	}
	if proof == "" {
		return nil
	}
	return h.AddAttributes(ctx, username, proof)
}

// ChangeCredential sólo existe para esquemas con credencial local.
func (h *Handler) ChangeCredential(ctx context.Context, username, oldCredential, newCredential string) error {
	cc, ok := h.scheme.(CredentialChanger)
	if !ok {
		return autherr.ErrOperationFailed.WithDetail("scheme does not support credential change")
	}
	return cc.ChangeCredential(ctx, username, oldCredential, newCredential)
}
