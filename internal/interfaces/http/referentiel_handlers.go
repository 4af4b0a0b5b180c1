package http

import "github.com/gin-gonic/gin"

// ListTypesOperation handles GET /api/referentiel/types-operation
func (h *handlers) ListTypesOperation(c *gin.Context) {
	types, err := h.services.Referentiel.ListTypesOperation(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"types_operation": types})
}

// ListNatures handles GET /api/referentiel/types-operation/:id/natures
func (h *handlers) ListNatures(c *gin.Context) {
	natures, err := h.services.Referentiel.ListNatures(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"natures_operation": natures})
}

// ListPieces handles GET /api/referentiel/natures-operation/:id/pieces
func (h *handlers) ListPieces(c *gin.Context) {
	pieces, err := h.services.Referentiel.ListPieces(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"pieces_justificatives": pieces})
}

// VerificationChecklist handles GET /api/referentiel/verifications-ordonnateur
func (h *handlers) VerificationChecklist(c *gin.Context) {
	categories, err := h.services.Referentiel.VerificationChecklist(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"categories": categories})
}
