package handler

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"qms/internal/model"
	"qms/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type stubAttachmentService struct {
	byID map[uint]*model.Attachment
}

func (s *stubAttachmentService) Upload(_ context.Context, _ *multipart.FileHeader, _ service.UploadAttachmentRequest, _ *uuid.UUID) (*model.Attachment, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *stubAttachmentService) GetByID(_ context.Context, id uint) (*model.Attachment, error) {
	att, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("attachment not found")
	}
	return att, nil
}

func (s *stubAttachmentService) ListForEntity(_ context.Context, _ model.EntityType, _ uint) ([]model.Attachment, error) {
	return nil, nil
}

func (s *stubAttachmentService) Delete(_ context.Context, _ uint, _ *uuid.UUID) error {
	return nil
}

func TestDownloadStreamsStoredFile(t *testing.T) {
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "a1b2c3.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 report body"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	svc := &stubAttachmentService{byID: map[uint]*model.Attachment{
		7: {FileName: "audit-report.pdf", FilePath: path, Active: true},
	}}
	h := NewAttachmentHandler(svc)

	router := gin.New()
	router.GET("/attachments/:id/download", h.Download)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/attachments/7/download", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "%PDF-1.4 report body" {
		t.Fatalf("body = %q, want stored file content", got)
	}
	disposition := rec.Header().Get("Content-Disposition")
	if disposition != `attachment; filename="audit-report.pdf"` {
		t.Fatalf("Content-Disposition = %q, want original filename", disposition)
	}
}

func TestDownloadUnknownAttachment(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewAttachmentHandler(&stubAttachmentService{byID: map[uint]*model.Attachment{}})
	router := gin.New()
	router.GET("/attachments/:id/download", h.Download)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/attachments/99/download", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
