package v1

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	apperr "github.com/askdoc/askdoc/internal/errors"
	"github.com/askdoc/askdoc/plugin/textextract"
	"github.com/askdoc/askdoc/store"
)

type documentResponse struct {
	UID          string `json:"uid"`
	Filename     string `json:"filename"`
	Format       string `json:"format"`
	SizeBytes    int64  `json:"size_bytes"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	ChunkCount   int    `json:"chunk_count"`
	CreatedTs    int64  `json:"created_ts"`
	UpdatedTs    int64  `json:"updated_ts"`
}

func toDocumentResponse(doc *store.Document) *documentResponse {
	return &documentResponse{
		UID:          doc.UID,
		Filename:     doc.Filename,
		Format:       doc.Format,
		SizeBytes:    doc.SizeBytes,
		Status:       string(doc.Status),
		ErrorMessage: doc.ErrorMessage,
		ChunkCount:   doc.ChunkCount,
		CreatedTs:    doc.CreatedTs,
		UpdatedTs:    doc.UpdatedTs,
	}
}

// UploadDocument accepts a multipart file upload, validates it, saves the
// bytes to disk, and creates a pending document for the ingestion runner.
func (s *APIV1Service) UploadDocument(c echo.Context) error {
	userID := currentUserID(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return respondError(c, apperr.InvalidArgument("multipart field 'file' is required"))
	}

	format, ok := textextract.DetectFormat(fileHeader.Filename)
	if !ok {
		return respondError(c, apperr.UnsupportedFormat(filepath.Ext(fileHeader.Filename)))
	}

	maxBytes := int64(s.Profile.MaxUploadMB) << 20
	if fileHeader.Size > maxBytes {
		return respondError(c, apperr.InvalidArgument(fmt.Sprintf("file exceeds the %dMB upload limit", s.Profile.MaxUploadMB)))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return respondError(c, apperr.Internal(err))
	}
	defer src.Close()

	uid := shortuuid.New()
	path := filepath.Join(s.Profile.UploadDir(), uid+"."+string(format))
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return respondError(c, apperr.Internal(err))
	}
	defer dst.Close()

	// Cap the copy as well: the header size comes from the client.
	written, err := io.Copy(dst, io.LimitReader(src, maxBytes+1))
	if err != nil {
		os.Remove(path)
		return respondError(c, apperr.Internal(err))
	}
	if written > maxBytes {
		os.Remove(path)
		return respondError(c, apperr.InvalidArgument(fmt.Sprintf("file exceeds the %dMB upload limit", s.Profile.MaxUploadMB)))
	}

	doc, err := s.Store.CreateDocument(c.Request().Context(), &store.Document{
		UID:       uid,
		CreatorID: userID,
		Filename:  fileHeader.Filename,
		Format:    string(format),
		SizeBytes: written,
		FilePath:  path,
		Status:    store.DocumentStatusPending,
	})
	if err != nil {
		os.Remove(path)
		return respondError(c, err)
	}

	return respond(c, http.StatusAccepted, toDocumentResponse(doc), "Document uploaded; ingestion scheduled.")
}

// GetDocument returns one of the caller's documents by uid.
func (s *APIV1Service) GetDocument(c echo.Context) error {
	userID := currentUserID(c)
	uid := c.Param("uid")

	doc, err := s.Store.GetDocument(c.Request().Context(), &store.FindDocument{
		UID:       &uid,
		CreatorID: &userID,
	})
	if err != nil {
		return respondError(c, err)
	}
	if doc == nil {
		return respondError(c, apperr.NotFound(fmt.Sprintf("document %q not found", uid)))
	}
	return respond(c, http.StatusOK, toDocumentResponse(doc), "OK")
}

// ListDocuments returns all of the caller's documents, oldest first.
func (s *APIV1Service) ListDocuments(c echo.Context) error {
	userID := currentUserID(c)

	docs, err := s.Store.ListDocuments(c.Request().Context(), &store.FindDocument{
		CreatorID: &userID,
	})
	if err != nil {
		return respondError(c, err)
	}

	list := make([]*documentResponse, len(docs))
	for i, doc := range docs {
		list[i] = toDocumentResponse(doc)
	}
	return respond(c, http.StatusOK, list, "OK")
}
