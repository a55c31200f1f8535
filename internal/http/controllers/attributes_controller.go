package controllers

import (
	"net/http"

	dto "github.com/dropDatabas3/olympus/internal/http/dto"
	httperrors "github.com/dropDatabas3/olympus/internal/http/errors"
	"github.com/dropDatabas3/olympus/internal/http/helpers"
	"github.com/dropDatabas3/olympus/internal/http/middlewares"
)

// AttributesController opera siempre sobre el usuario de la sesión.
type AttributesController struct {
	auth AuthService
}

// Assertions maneja POST /v1/assertions
func (c *AttributesController) Assertions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req dto.AssertionsRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	claims, err := c.auth.ValidateAssertions(ctx, middlewares.GetUsername(ctx), req.Policy)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.AssertionsResponse{Claims: claims.Values()})
}

// List maneja GET /v1/attributes
func (c *AttributesController) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	attrs, err := c.auth.GetAllAssertions(ctx, middlewares.GetUsername(ctx))
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.AttributesResponse{Attributes: attrs})
}

// Add maneja POST /v1/attributes
func (c *AttributesController) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req dto.AddAttributesRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.Proof == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("proof is required"))
		return
	}
	if err := c.auth.AddAttributes(ctx, middlewares.GetUsername(ctx), req.Proof); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete maneja DELETE /v1/attributes. Ante un fallo parcial responde el
// error con el detalle de las claves que no se pudieron borrar.
func (c *AttributesController) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req dto.DeleteAttributesRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if len(req.Keys) == 0 {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("keys is required"))
		return
	}
	res, err := c.auth.DeleteAttributes(ctx, middlewares.GetUsername(ctx), req.Keys)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.DeleteAttributesResponse{Deleted: res.Deleted, Failed: res.Failed})
}
