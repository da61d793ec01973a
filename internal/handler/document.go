package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/toshahriar/documenter/internal/apperr"
	"github.com/toshahriar/documenter/internal/middleware"
	"github.com/toshahriar/documenter/internal/model"
	"github.com/toshahriar/documenter/internal/repository"
	"github.com/toshahriar/documenter/internal/utils"
)

// DocumentHandler implements the document CRUD, analytics and dispatch
// endpoints. All operations are scoped to the authenticated owner.
type DocumentHandler struct {
	docs   DocumentStore
	files  AttachmentStore
	signer EnvelopeSender
}

func NewDocumentHandler(docs DocumentStore, files AttachmentStore, signer EnvelopeSender) *DocumentHandler {
	return &DocumentHandler{docs: docs, files: files, signer: signer}
}

// All lists the owner's documents, newest first. Both filters are optional:
// search matches the title case-insensitively, status matches exactly.
func (h *DocumentHandler) All(c echo.Context) error {
	uid := currentUserID(c)
	if uid == "" {
		return apperr.Authentication("User not authenticated.")
	}

	docs, err := h.docs.ListByOwner(c.Request().Context(), uid,
		c.QueryParam("search"), model.DocumentStatus(c.QueryParam("status")))
	if err != nil {
		return apperr.Database("Failed to list documents", err)
	}

	return utils.Respond(c).
		Message("Retrieved all documents.").
		Data(docs).
		Send()
}

// Analytic returns per-status document counts for the dashboard cards.
func (h *DocumentHandler) Analytic(c echo.Context) error {
	uid := currentUserID(c)
	if uid == "" {
		return apperr.Authentication("User not authenticated.")
	}

	data, err := h.docs.Analytics(c.Request().Context(), uid)
	if err != nil {
		return apperr.Database("Failed to compute analytics", err)
	}

	return utils.Respond(c).
		Message("Retrieved all documents.").
		Data(data).
		Send()
}

// signerInput is one entry of the multipart "signers" field, which arrives
// as a JSON array alongside the file.
type signerInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Designation string `json:"designation"`
	Order       int    `json:"order"`
}

// Store creates a document with its signers in one transaction. The request
// is multipart: a title field, a JSON signers field and an optional file.
func (h *DocumentHandler) Store(c echo.Context) error {
	uid := currentUserID(c)
	if uid == "" {
		return apperr.Authentication("User not authenticated.")
	}

	title := c.FormValue("title")
	signers, fields := parseSigners(c.FormValue("signers"))
	if title == "" {
		if fields == nil {
			fields = map[string]string{}
		}
		fields["title"] = "This field is required"
	}
	if len(fields) > 0 {
		return apperr.Unprocessable("Document data is not valid", fields)
	}

	var attachment *model.Attachment
	if fh, err := c.FormFile("file"); err == nil {
		attachment, err = h.files.Save(fh)
		if err != nil {
			return apperr.Internal("Failed to store attachment", err)
		}
	}

	doc := &model.Document{
		Title:  title,
		UserID: uid,
		Metadata: model.Metadata{
			Status:     model.StatusCreated,
			Attachment: attachment,
		},
	}
	if err := h.docs.CreateWithSigners(c.Request().Context(), doc, signers); err != nil {
		return apperr.Database("Failed to create document", err)
	}

	return utils.Respond(c).
		Code(http.StatusCreated).
		Message("Document created successfully.").
		Data(doc).
		Notify().
		Send()
}

// Show returns one document with signers and activities.
func (h *DocumentHandler) Show(c echo.Context) error {
	doc, err := h.ownedDocument(c)
	if err != nil {
		return err
	}

	return utils.Respond(c).
		Message("Retrieved document.").
		Data(doc).
		Send()
}

// Update replaces the document's title and signer list, and swaps the
// attachment when a new file is uploaded. The old file is removed only
// after the new one is safely on disk.
func (h *DocumentHandler) Update(c echo.Context) error {
	doc, err := h.ownedDocument(c)
	if err != nil {
		return err
	}

	title := c.FormValue("title")
	signers, fields := parseSigners(c.FormValue("signers"))
	if title == "" {
		if fields == nil {
			fields = map[string]string{}
		}
		fields["title"] = "This field is required"
	}
	if len(fields) > 0 {
		return apperr.Unprocessable("Document data is not valid", fields)
	}

	update := model.Metadata{}
	if fh, err := c.FormFile("file"); err == nil {
		attachment, err := h.files.Save(fh)
		if err != nil {
			return apperr.Internal("Failed to store attachment", err)
		}
		if old := doc.Metadata.Attachment; old != nil && old.FilePath != "" {
			h.files.Delete(old.FilePath)
		}
		update.Attachment = attachment
	}

	doc.Title = title
	doc.Metadata = doc.Metadata.Merge(update)
	if err := h.docs.UpdateWithSigners(c.Request().Context(), doc, signers); err != nil {
		return apperr.Database("Failed to update document", err)
	}

	return utils.Respond(c).
		Message("Document updated successfully.").
		Data(doc).
		Notify().
		Send()
}

// Delete removes the document row and its attachment. File removal is best
// effort; the row is authoritative.
func (h *DocumentHandler) Delete(c echo.Context) error {
	doc, err := h.ownedDocument(c)
	if err != nil {
		return err
	}

	if att := doc.Metadata.Attachment; att != nil && att.FilePath != "" {
		h.files.Delete(att.FilePath)
	}
	if err := h.docs.Delete(c.Request().Context(), doc.ID); err != nil {
		return apperr.Database("Failed to delete document", err)
	}

	return utils.Respond(c).
		Message("Document deleted successfully.").
		Notify().
		Send()
}

// Send dispatches the document to the signing provider. The status change
// and activity are recorded only after the provider accepts the envelope,
// so a failed dispatch leaves the document untouched.
func (h *DocumentHandler) Send(c echo.Context) error {
	doc, err := h.ownedDocument(c)
	if err != nil {
		return err
	}

	att := doc.Metadata.Attachment
	if att == nil || att.FilePath == "" {
		return apperr.BadRequest("Document has no attachment to send")
	}

	encoded, err := h.files.Base64(att.FilePath)
	if err != nil {
		return apperr.Internal("Failed to read attachment", err)
	}

	ctx := c.Request().Context()
	result, err := h.signer.SendEnvelope(ctx, doc, encoded)
	if err != nil {
		return apperr.Internal("Failed to send document", err)
	}

	meta := doc.Metadata.Merge(model.Metadata{
		Status: model.StatusSent,
		Extra: map[string]any{
			"envelopeId":     result.EnvelopeID,
			"status":         result.Status,
			"statusDateTime": result.StatusDateTime,
		},
	})
	if err := h.docs.UpdateMetadata(ctx, doc.ID, meta); err != nil {
		return apperr.Database("Failed to update document", err)
	}

	message := fmt.Sprintf("Document is sent to DocuSign. Envelope ID is: '%s'", result.EnvelopeID)
	if _, err := h.docs.AppendActivity(ctx, doc.ID, model.DocumentStatus(result.Status), message); err != nil {
		return apperr.Database("Failed to record activity", err)
	}

	return utils.Respond(c).
		Message("Document sent successfully.").
		Notify().
		Send()
}

func (h *DocumentHandler) ownedDocument(c echo.Context) (*model.Document, error) {
	uid := currentUserID(c)
	if uid == "" {
		return nil, apperr.Authentication("User not authenticated.")
	}
	doc, err := h.docs.GetByIDAndOwner(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Document not found")
		}
		return nil, apperr.Database("Failed to load document", err)
	}
	return doc, nil
}

// parseSigners decodes and validates the signers form field. Orders must be
// exactly 1..N with no gaps or duplicates; routing at the provider depends
// on it.
func parseSigners(raw string) ([]model.DocumentSigner, map[string]string) {
	if raw == "" {
		return nil, map[string]string{"signers": "At least one signer is required"}
	}
	var inputs []signerInput
	if err := json.Unmarshal([]byte(raw), &inputs); err != nil {
		return nil, map[string]string{"signers": "Must be a valid JSON array"}
	}
	if len(inputs) == 0 {
		return nil, map[string]string{"signers": "At least one signer is required"}
	}

	fields := map[string]string{}
	seen := make(map[int]bool, len(inputs))
	signers := make([]model.DocumentSigner, 0, len(inputs))
	for i, in := range inputs {
		if in.Name == "" {
			fields[fmt.Sprintf("signers.%d.name", i)] = "This field is required"
		}
		if in.Email == "" {
			fields[fmt.Sprintf("signers.%d.email", i)] = "This field is required"
		}
		order := in.Order
		if order == 0 {
			order = i + 1
		}
		if order < 1 || order > len(inputs) || seen[order] {
			fields["signers"] = "Signer orders must be unique and contiguous starting at 1"
		}
		seen[order] = true
		signers = append(signers, model.DocumentSigner{
			Name:        in.Name,
			Email:       in.Email,
			Designation: in.Designation,
			Order:       order,
		})
	}
	if len(fields) > 0 {
		return nil, fields
	}
	return signers, nil
}

func currentUserID(c echo.Context) string {
	uid, _ := c.Get(middleware.UserIDKey).(string)
	return uid
}
