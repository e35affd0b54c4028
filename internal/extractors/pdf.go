package extractors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/legalese-app/legalese-core/internal/core/domain"
	"github.com/legalese-app/legalese-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TextExtractor = (*PDFExtractor)(nil)

// Runner executes an external command with stdin and returns its stdout
type Runner interface {
	Run(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error)
}

// ExecRunner runs commands through os/exec. Path overrides the pdftotext
// binary location.
type ExecRunner struct {
	Path string
}

// NewExecRunner creates a runner; an empty path resolves pdftotext on PATH
func NewExecRunner(path string) *ExecRunner {
	return &ExecRunner{Path: path}
}

// Run executes the command. stderr is folded into the error on failure.
func (r *ExecRunner) Run(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error) {
	if name == pdftotext && r.Path != "" {
		name = r.Path
	}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

const pdftotext = "pdftotext"

// pdfMagic opens every PDF file
var pdfMagic = []byte("%PDF-")

// PDFExtractor converts PDFs with poppler's pdftotext in layout mode.
// pdftotext ends every page with a form feed, which gives the page count.
type PDFExtractor struct {
	runner Runner
}

// NewPDFExtractor creates a PDF extractor using runner
func NewPDFExtractor(runner Runner) *PDFExtractor {
	return &PDFExtractor{runner: runner}
}

// Extract reads the PDF from stdin and its text from stdout
func (e *PDFExtractor) Extract(ctx context.Context, content []byte) (*domain.ExtractedDocument, error) {
	if !bytes.HasPrefix(content, pdfMagic) {
		return nil, fmt.Errorf("%w: not a PDF file", domain.ErrUnsupportedFileType)
	}

	out, err := e.runner.Run(ctx, pdftotext, []string{"-layout", "-enc", "UTF-8", "-", "-"}, content)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("pdftotext is not installed: %w", err)
		}
		return nil, fmt.Errorf("failed to parse PDF: %w", err)
	}

	raw := string(out)
	pages := strings.Count(raw, "\f")
	if pages == 0 && strings.TrimSpace(raw) != "" {
		pages = 1
	}
	return build(raw, pages), nil
}

// SupportedTypes returns the PDF MIME type
func (e *PDFExtractor) SupportedTypes() []string {
	return []string{domain.MimeTypePDF}
}

// Priority is format-specific
func (e *PDFExtractor) Priority() int {
	return 50
}
