package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ac-tresor/dossiers/internal/application/workflow"
	"github.com/ac-tresor/dossiers/internal/domain/entity"
)

// commentRequest accepts either spelling used by the transition forms
type commentRequest struct {
	Commentaire string `json:"commentaire"`
	Comment     string `json:"comment"`
}

func (r commentRequest) text() string {
	if r.Commentaire != "" {
		return r.Commentaire
	}
	return r.Comment
}

type rejectRequest struct {
	Reason  string `json:"reason"`
	Details string `json:"details"`
}

type pieceRequest struct {
	Present     bool   `json:"present"`
	Commentaire string `json:"commentaire"`
}

type operationTypeRequest struct {
	TypeOperationID      string                  `json:"type_operation_id"`
	NatureOperationID    string                  `json:"nature_operation_id"`
	PiecesJustificatives map[string]pieceRequest `json:"pieces_justificatives"`
	Commentaire          string                  `json:"commentaire"`
}

type verificationAnswerRequest struct {
	VerificationID              string `json:"verification_id"`
	Valide                      *bool  `json:"valide"`
	Commentaire                 string `json:"commentaire"`
	PieceJustificativeReference string `json:"piece_justificative_reference"`
}

type verificationsRequest struct {
	Validations        []verificationAnswerRequest `json:"validations"`
	CommentaireGeneral string                      `json:"commentaire_general"`
}

// commentTransition runs one of the engine actions whose only input is a comment
func (h *handlers) commentTransition(c *gin.Context, action func(c *gin.Context, comment string) (*entity.Dossier, error)) {
	var req commentRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.badRequest(c, err)
		return
	}

	dossier, err := action(c, req.text())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"dossier": dossier})
}

// ValidateCB handles PUT /api/dossiers/:id/valider
func (h *handlers) ValidateCB(c *gin.Context) {
	h.commentTransition(c, func(c *gin.Context, comment string) (*entity.Dossier, error) {
		return h.services.Engine.ValidateCB(c.Request.Context(), h.principal(c), c.Param("id"), comment)
	})
}

// Ordonnance handles PUT /api/dossiers/:id/ordonnance
func (h *handlers) Ordonnance(c *gin.Context) {
	h.commentTransition(c, func(c *gin.Context, comment string) (*entity.Dossier, error) {
		return h.services.Engine.Ordonnance(c.Request.Context(), h.principal(c), c.Param("id"), comment)
	})
}

// ValidateDefinitively handles PUT /api/dossiers/:id/validation-definitive
func (h *handlers) ValidateDefinitively(c *gin.Context) {
	h.commentTransition(c, func(c *gin.Context, comment string) (*entity.Dossier, error) {
		return h.services.Engine.ValidateDefinitively(c.Request.Context(), h.principal(c), c.Param("id"), comment)
	})
}

// Close handles PUT /api/dossiers/:id/cloturer
func (h *handlers) Close(c *gin.Context) {
	h.commentTransition(c, func(c *gin.Context, comment string) (*entity.Dossier, error) {
		return h.services.Engine.Close(c.Request.Context(), h.principal(c), c.Param("id"), comment)
	})
}

// RejectCB handles PUT /api/dossiers/:id/rejeter
func (h *handlers) RejectCB(c *gin.Context) {
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	dossier, err := h.services.Engine.RejectCB(c.Request.Context(), h.principal(c), c.Param("id"), workflow.RejectInput{
		Reason:  req.Reason,
		Details: req.Details,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"dossier": dossier})
}

// ValidateOperationType handles POST /api/dossiers/:id/validate-operation-type
func (h *handlers) ValidateOperationType(c *gin.Context) {
	var req operationTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	pieces := make(map[string]workflow.PieceInput, len(req.PiecesJustificatives))
	for id, p := range req.PiecesJustificatives {
		pieces[id] = workflow.PieceInput{Present: p.Present, Commentaire: p.Commentaire}
	}

	validation, err := h.services.Engine.ValidateOperationType(c.Request.Context(), h.principal(c), c.Param("id"), workflow.OperationTypeInput{
		TypeOperationID:   req.TypeOperationID,
		NatureOperationID: req.NatureOperationID,
		Pieces:            pieces,
		Commentaire:       req.Commentaire,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: "type of operation validated",
		Data:    gin.H{"validation": validation},
	})
}

// SubmitVerifications handles POST /api/dossiers/:id/verifications-ordonnateur
func (h *handlers) SubmitVerifications(c *gin.Context) {
	var req verificationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	answers := make([]workflow.VerificationAnswerInput, 0, len(req.Validations))
	for _, v := range req.Validations {
		answers = append(answers, workflow.VerificationAnswerInput{
			VerificationID:              v.VerificationID,
			Valide:                      v.Valide,
			Commentaire:                 v.Commentaire,
			PieceJustificativeReference: v.PieceJustificativeReference,
		})
	}

	report, err := h.services.Engine.SubmitVerifications(c.Request.Context(), h.principal(c), c.Param("id"), workflow.VerificationInput{
		Validations:        answers,
		CommentaireGeneral: req.CommentaireGeneral,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"rapport": report})
}

// VerificationReport handles GET /api/dossiers/:id/rapport-verification
func (h *handlers) VerificationReport(c *gin.Context) {
	report, err := h.services.Engine.VerificationReport(c.Request.Context(), h.principal(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"rapport": report})
}

// GenerateQuitus handles POST /api/dossiers/:id/generate-quitus
func (h *handlers) GenerateQuitus(c *gin.Context) {
	result, err := h.services.Engine.GenerateQuitus(c.Request.Context(), h.principal(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"quitus": result.Quitus, "created": result.Created})
}

// PermittedActions handles GET /api/dossiers/:id/actions
func (h *handlers) PermittedActions(c *gin.Context) {
	triggers, err := h.services.Engine.PermittedActions(c.Request.Context(), h.principal(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"actions": triggers})
}
