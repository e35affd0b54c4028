package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/legalese-app/legalese-core/internal/core/domain"
	"github.com/legalese-app/legalese-core/internal/core/ports/driven/mocks"
	"github.com/legalese-app/legalese-core/internal/core/ports/driving"
)

var (
	owner    = &domain.AuthContext{UserID: "user-1", Role: domain.RoleMember}
	stranger = &domain.AuthContext{UserID: "user-2", Role: domain.RoleMember}
	admin    = &domain.AuthContext{UserID: "admin-1", Role: domain.RoleAdmin}
)

func pdfBytes(n int) []byte {
	return append([]byte("%PDF-1.7\n"), bytes.Repeat([]byte("x"), n)...)
}

func docxBytes(n int) []byte {
	return append([]byte{0x50, 0x4b, 0x03, 0x04}, bytes.Repeat([]byte("x"), n)...)
}

func newTestDocumentService() (*mocks.MockDocumentStore, *mocks.MockFileStore, *documentService) {
	documentStore := mocks.NewMockDocumentStore()
	fileStore := mocks.NewMockFileStore()
	svc := NewDocumentService(documentStore, fileStore, nil).(*documentService)
	return documentStore, fileStore, svc
}

func TestDocumentService_Upload(t *testing.T) {
	tests := []struct {
		name    string
		req     driving.UploadRequest
		wantErr error
	}{
		{"pdf", driving.UploadRequest{Filename: "Lease Agreement.pdf", MimeType: domain.MimeTypePDF, Content: pdfBytes(200)}, nil},
		{"docx without declared type", driving.UploadRequest{Filename: "nda.DOCX", Content: docxBytes(200)}, nil},
		{"too small", driving.UploadRequest{Filename: "a.pdf", Content: pdfBytes(10)}, domain.ErrInvalidInput},
		{"too large", driving.UploadRequest{Filename: "a.pdf", Content: pdfBytes(MaxUploadBytes)}, domain.ErrDocumentTooLarge},
		{"unknown content", driving.UploadRequest{Filename: "a.pdf", Content: bytes.Repeat([]byte("x"), 200)}, domain.ErrUnsupportedFileType},
		{"extension mismatch", driving.UploadRequest{Filename: "a.docx", Content: pdfBytes(200)}, domain.ErrUnsupportedFileType},
		{"declared type mismatch", driving.UploadRequest{Filename: "a.pdf", MimeType: domain.MimeTypeDOCX, Content: pdfBytes(200)}, domain.ErrUnsupportedFileType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			documentStore, fileStore, svc := newTestDocumentService()

			doc, err := svc.Upload(context.Background(), owner, tt.req)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				if fileStore.Len() != 0 || documentStore.Len() != 0 {
					t.Error("expected nothing to be stored on rejection")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if doc.Status != domain.StatusUploaded {
				t.Errorf("expected status uploaded, got %s", doc.Status)
			}
			if !strings.HasPrefix(doc.StorageKey, "user-1/") {
				t.Errorf("expected key under the owner's prefix, got %s", doc.StorageKey)
			}
			if !fileStore.Has(doc.StorageKey) {
				t.Error("expected file to be stored")
			}
			if doc.OriginalName != tt.req.Filename {
				t.Errorf("expected original name %s, got %s", tt.req.Filename, doc.OriginalName)
			}
		})
	}
}

func TestDocumentService_Upload_RemovesFileWhenSaveFails(t *testing.T) {
	documentStore, fileStore, svc := newTestDocumentService()
	documentStore.SaveErr = errors.New("db down")

	_, err := svc.Upload(context.Background(), owner, driving.UploadRequest{Filename: "a.pdf", Content: pdfBytes(200)})
	if err == nil {
		t.Fatal("expected error")
	}
	if fileStore.Len() != 0 {
		t.Error("expected orphaned file to be removed")
	}
}

func TestDocumentService_GetScopedToOwner(t *testing.T) {
	documentStore, _, svc := newTestDocumentService()
	ctx := context.Background()
	_ = documentStore.Save(ctx, &domain.Document{ID: "doc-1", UserID: "user-1", Status: domain.StatusUploaded})

	if _, err := svc.Get(ctx, owner, "doc-1"); err != nil {
		t.Errorf("owner: unexpected error %v", err)
	}
	if _, err := svc.Get(ctx, admin, "doc-1"); err != nil {
		t.Errorf("admin: unexpected error %v", err)
	}
	if _, err := svc.Get(ctx, stranger, "doc-1"); err != domain.ErrNotFound {
		t.Errorf("stranger: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Get(ctx, nil, "doc-1"); err != domain.ErrUnauthorized {
		t.Errorf("anonymous: expected ErrUnauthorized, got %v", err)
	}
}

func TestDocumentService_List(t *testing.T) {
	documentStore, _, svc := newTestDocumentService()
	ctx := context.Background()
	base := time.Now()
	for i, st := range []domain.DocumentStatus{domain.StatusUploaded, domain.StatusAnalyzed, domain.StatusUploaded} {
		_ = documentStore.Save(ctx, &domain.Document{
			ID:        "doc-" + string(rune('a'+i)),
			UserID:    "user-1",
			Status:    st,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	_ = documentStore.Save(ctx, &domain.Document{ID: "other", UserID: "user-2", Status: domain.StatusUploaded})

	list, err := svc.List(ctx, owner, domain.DocumentFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list.Total != 3 || len(list.Documents) != 3 {
		t.Fatalf("expected 3 documents, got %d/%d", len(list.Documents), list.Total)
	}
	if list.Documents[0].ID != "doc-c" {
		t.Errorf("expected newest first, got %s", list.Documents[0].ID)
	}
	if list.Limit != 20 {
		t.Errorf("expected default limit 20, got %d", list.Limit)
	}

	list, _ = svc.List(ctx, owner, domain.DocumentFilter{Status: domain.StatusAnalyzed})
	if list.Total != 1 || list.Documents[0].ID != "doc-b" {
		t.Errorf("expected only the analyzed document, got %+v", list.Documents)
	}

	if _, err := svc.List(ctx, owner, domain.DocumentFilter{Status: "archived"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown status, got %v", err)
	}
}

func TestDocumentService_Delete(t *testing.T) {
	documentStore, fileStore, svc := newTestDocumentService()
	ctx := context.Background()

	doc, err := svc.Upload(ctx, owner, driving.UploadRequest{Filename: "a.pdf", Content: pdfBytes(200)})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if err := svc.Delete(ctx, stranger, doc.ID); err != domain.ErrNotFound {
		t.Errorf("expected ErrNotFound for stranger, got %v", err)
	}

	_, _ = documentStore.TransitionStatus(ctx, doc.ID, []domain.DocumentStatus{domain.StatusUploaded}, domain.StatusProcessing, "")
	if err := svc.Delete(ctx, owner, doc.ID); err != domain.ErrAnalysisInProgress {
		t.Errorf("expected ErrAnalysisInProgress while processing, got %v", err)
	}

	_, _ = documentStore.TransitionStatus(ctx, doc.ID, []domain.DocumentStatus{domain.StatusProcessing}, domain.StatusError, "boom")
	if err := svc.Delete(ctx, owner, doc.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if documentStore.Len() != 0 || fileStore.Len() != 0 {
		t.Error("expected document and file to be removed")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Lease Agreement.pdf", "Lease_Agreement"},
		{"../../etc/passwd.pdf", "passwd"},
		{`C:\Users\me\contract v2.docx`, "contract_v2"},
		{"Vertrag_über_Miete.pdf", "Vertrag__ber_Miete"},
		{"....pdf", "document"},
		{strings.Repeat("a", 150) + ".pdf", strings.Repeat("a", 100)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SanitizeFilename(tt.in); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStorageKey(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	key := StorageKey("user-1", "lease", ".pdf", at)

	if !strings.HasPrefix(key, "user-1/1700000000000_") {
		t.Errorf("unexpected key prefix: %s", key)
	}
	if !strings.HasSuffix(key, "_lease.pdf") {
		t.Errorf("unexpected key suffix: %s", key)
	}
	if StorageKey("user-1", "lease", ".pdf", at) == key {
		t.Error("expected random component to differ")
	}
}
