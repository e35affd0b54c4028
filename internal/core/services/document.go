package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/legalese-app/legalese-core/internal/core/domain"
	"github.com/legalese-app/legalese-core/internal/core/ports/driven"
	"github.com/legalese-app/legalese-core/internal/core/ports/driving"
)

// Ensure documentService implements DocumentService
var _ driving.DocumentService = (*documentService)(nil)

// Upload bounds
const (
	MinUploadBytes = 100
	MaxUploadBytes = 10 << 20
)

var (
	pdfMagic  = []byte("%PDF-")
	zipMagics = [][]byte{
		{0x50, 0x4b, 0x03, 0x04},
		{0x50, 0x4b, 0x05, 0x06},
		{0x50, 0x4b, 0x07, 0x08},
	}
)

// documentService implements the DocumentService interface
type documentService struct {
	documentStore driven.DocumentStore
	fileStore     driven.FileStore
	logger        *slog.Logger
	now           func() time.Time
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(documentStore driven.DocumentStore, fileStore driven.FileStore, logger *slog.Logger) driving.DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentService{
		documentStore: documentStore,
		fileStore:     fileStore,
		logger:        logger,
		now:           time.Now,
	}
}

// Upload validates and stores a file, creating a document in uploaded status
func (s *documentService) Upload(ctx context.Context, actor *domain.AuthContext, req driving.UploadRequest) (*domain.Document, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}

	size := int64(len(req.Content))
	if size < MinUploadBytes {
		return nil, fmt.Errorf("%w: file is smaller than %d bytes", domain.ErrInvalidInput, MinUploadBytes)
	}
	if size > MaxUploadBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrDocumentTooLarge, MaxUploadBytes)
	}

	mimeType, ext, err := DetectFileType(req.Filename, req.MimeType, req.Content)
	if err != nil {
		return nil, err
	}

	now := s.now()
	base := SanitizeFilename(req.Filename)
	key := StorageKey(actor.UserID, base, ext, now)

	if err := s.fileStore.Put(ctx, key, bytes.NewReader(req.Content), size, mimeType); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	doc := &domain.Document{
		ID:           uuid.NewString(),
		UserID:       actor.UserID,
		Filename:     base + ext,
		OriginalName: req.Filename,
		MimeType:     mimeType,
		SizeBytes:    size,
		StorageKey:   key,
		Status:       domain.StatusUploaded,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.documentStore.Save(ctx, doc); err != nil {
		if delErr := s.fileStore.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to remove orphaned upload", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("save document: %w", err)
	}

	s.logger.Info("document uploaded",
		"document_id", doc.ID,
		"user_id", doc.UserID,
		"mime_type", doc.MimeType,
		"size_bytes", doc.SizeBytes,
	)
	return doc, nil
}

// Get retrieves a document the actor may access
func (s *documentService) Get(ctx context.Context, actor *domain.AuthContext, id string) (*domain.Document, error) {
	return loadOwnedDocument(ctx, s.documentStore, actor, id)
}

// List retrieves the actor's documents
func (s *documentService) List(ctx context.Context, actor *domain.AuthContext, filter domain.DocumentFilter) (*driving.DocumentList, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, filter.Status)
	}
	filter.UserID = actor.UserID
	filter.Normalize()

	docs, err := s.documentStore.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.documentStore.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &driving.DocumentList{
		Documents: docs,
		Total:     total,
		Limit:     filter.Limit,
		Offset:    filter.Offset,
	}, nil
}

// Delete removes a document, its stored file, and its analysis.
// A document being analysed cannot be deleted.
func (s *documentService) Delete(ctx context.Context, actor *domain.AuthContext, id string) error {
	doc, err := loadOwnedDocument(ctx, s.documentStore, actor, id)
	if err != nil {
		return err
	}
	if doc.Status == domain.StatusProcessing {
		return domain.ErrAnalysisInProgress
	}

	if err := s.documentStore.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.fileStore.Delete(ctx, doc.StorageKey); err != nil {
		s.logger.Warn("failed to delete stored file", "document_id", id, "key", doc.StorageKey, "error", err)
	}
	return nil
}

// loadOwnedDocument fetches a document and hides it from anyone but its
// owner or an admin
func loadOwnedDocument(ctx context.Context, store driven.DocumentStore, actor *domain.AuthContext, id string) (*domain.Document, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	doc, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(doc.UserID) {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

// DetectFileType decides the MIME type and extension of an upload. The
// content signature, the extension, and the declared MIME type (if any)
// must all agree.
func DetectFileType(filename, declared string, content []byte) (mimeType, ext string, err error) {
	ext = strings.ToLower(filepath.Ext(filename))

	switch {
	case bytes.HasPrefix(content, pdfMagic):
		mimeType = domain.MimeTypePDF
		if ext != ".pdf" {
			return "", "", fmt.Errorf("%w: PDF content with %q extension", domain.ErrUnsupportedFileType, ext)
		}
	case hasZipMagic(content):
		mimeType = domain.MimeTypeDOCX
		if ext != ".docx" {
			return "", "", fmt.Errorf("%w: ZIP content with %q extension", domain.ErrUnsupportedFileType, ext)
		}
	default:
		return "", "", fmt.Errorf("%w: only PDF and DOCX files are accepted", domain.ErrUnsupportedFileType)
	}

	if declared != "" {
		declared = strings.ToLower(strings.TrimSpace(strings.SplitN(declared, ";", 2)[0]))
		if declared != mimeType && declared != "application/octet-stream" {
			return "", "", fmt.Errorf("%w: declared %s does not match content", domain.ErrUnsupportedFileType, declared)
		}
	}
	return mimeType, ext, nil
}

func hasZipMagic(content []byte) bool {
	for _, sig := range zipMagics {
		if bytes.HasPrefix(content, sig) {
			return true
		}
	}
	return false
}

// SanitizeFilename reduces an uploaded name to a safe base name without
// extension: letters, digits, dot, dash, and underscore, at most 100 bytes.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimSuffix(name, filepath.Ext(name))

	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	out := strings.Trim(sb.String(), "._")
	if len(out) > 100 {
		out = out[:100]
	}
	if out == "" {
		out = "document"
	}
	return out
}

// StorageKey builds the object key of an upload:
// <userID>/<unix-ms>_<random>_<base><ext>
func StorageKey(userID, base, ext string, at time.Time) string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%s/%d_%s_%s%s", userID, at.UnixMilli(), hex.EncodeToString(b), base, ext)
}
