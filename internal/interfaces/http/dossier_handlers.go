package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ac-tresor/dossiers/internal/application/service"
	"github.com/ac-tresor/dossiers/internal/domain/errs"
	"github.com/ac-tresor/dossiers/internal/infrastructure/storage"
)

type createDossierRequest struct {
	NumeroNature   string `json:"numero_nature"`
	NatureDocument string `json:"nature_document"`
	PosteComptable string `json:"poste_comptable"`
	ObjetOperation string `json:"objet_operation"`
	Beneficiaire   string `json:"beneficiaire"`
	// DateDepot is a YYYY-MM-DD day; today when empty
	DateDepot string `json:"date_depot"`
}

// CreateDossier handles POST /api/dossiers
func (h *handlers) CreateDossier(c *gin.Context) {
	var req createDossierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	in := service.CreateDossierInput{
		NumeroNature:   req.NumeroNature,
		NatureDocument: req.NatureDocument,
		PosteComptable: req.PosteComptable,
		ObjetOperation: req.ObjetOperation,
		Beneficiaire:   req.Beneficiaire,
	}
	if req.DateDepot != "" {
		day, err := time.Parse(time.DateOnly, req.DateDepot)
		if err != nil {
			h.fail(c, errs.Validation("date_depot must use the YYYY-MM-DD format"))
			return
		}
		in.DateDepot = day
	}

	dossier, err := h.services.Dossiers.Create(c.Request.Context(), h.principal(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.created(c, gin.H{"dossier": dossier})
}

// ListDossiers handles GET /api/dossiers
func (h *handlers) ListDossiers(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		h.fail(c, err)
		return
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		h.fail(c, err)
		return
	}

	dossiers, err := h.services.Dossiers.List(c.Request.Context(), h.principal(c), service.ListDossiersInput{
		Statut: c.Query("statut"),
		Vue:    c.Query("vue"),
		Search: c.Query("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"dossiers": dossiers, "count": len(dossiers)})
}

// DossierStats handles GET /api/dossiers/stats
func (h *handlers) DossierStats(c *gin.Context) {
	stats, err := h.services.Dossiers.Stats(c.Request.Context(), h.principal(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"stats": stats})
}

// GetDossier handles GET /api/dossiers/:id
func (h *handlers) GetDossier(c *gin.Context) {
	dossier, err := h.services.Dossiers.Get(c.Request.Context(), h.principal(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"dossier": dossier})
}

// DossierHistory handles GET /api/dossiers/:id/historique
func (h *handlers) DossierHistory(c *gin.Context) {
	history, err := h.services.Dossiers.History(c.Request.Context(), h.principal(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"historique": history})
}

// ListDocuments handles GET /api/dossiers/:id/documents
func (h *handlers) ListDocuments(c *gin.Context) {
	docs, err := h.services.Dossiers.ListDocuments(c.Request.Context(), h.principal(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"documents": docs})
}

// multipartOverhead leaves room for part headers and boundaries around the file
const multipartOverhead = 64 << 10

// AttachDocument handles POST /api/dossiers/:id/documents (multipart field "file")
func (h *handlers) AttachDocument(c *gin.Context) {
	if h.config.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.config.MaxUploadBytes+multipartOverhead)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(c, errs.Validation("file exceeds the %d bytes upload limit", h.config.MaxUploadBytes))
			return
		}
		h.fail(c, errs.Validation("multipart field \"file\" is required"))
		return
	}
	if h.config.MaxUploadBytes > 0 && header.Size > h.config.MaxUploadBytes {
		h.fail(c, errs.Validation("file exceeds the %d bytes upload limit", h.config.MaxUploadBytes))
		return
	}

	f, err := header.Open()
	if err != nil {
		h.badRequest(c, err)
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		h.badRequest(c, err)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}

	doc, err := h.services.Dossiers.AttachDocument(c.Request.Context(), h.principal(c), c.Param("id"), service.DocumentUpload{
		FileName:    storage.SanitizeFileName(header.Filename),
		ContentType: contentType,
		Content:     content,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.created(c, gin.H{"document": doc})
}

// DownloadDocument handles GET /api/dossiers/:id/documents/:docId
func (h *handlers) DownloadDocument(c *gin.Context) {
	file, err := h.services.Dossiers.DownloadDocument(c.Request.Context(), h.principal(c), c.Param("id"), c.Param("docId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	sendFile(c, file)
}

// DetachDocument handles DELETE /api/dossiers/:id/documents/:docId
func (h *handlers) DetachDocument(c *gin.Context) {
	if err := h.services.Dossiers.DetachDocument(c.Request.Context(), h.principal(c), c.Param("id"), c.Param("docId")); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"deleted": true})
}

// DownloadQuitus handles GET /api/dossiers/:id/quitus
func (h *handlers) DownloadQuitus(c *gin.Context) {
	file, err := h.services.Dossiers.DownloadQuitus(c.Request.Context(), h.principal(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	sendFile(c, file)
}

func sendFile(c *gin.Context, file *service.FileContent) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
