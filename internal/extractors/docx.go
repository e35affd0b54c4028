package extractors

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/legalese-app/legalese-core/internal/core/domain"
	"github.com/legalese-app/legalese-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TextExtractor = (*DOCXExtractor)(nil)

// maxDocumentXML bounds the decompressed main part against zip bombs
const maxDocumentXML = 64 << 20

// DOCXExtractor reads the text runs of word/document.xml. Each paragraph
// becomes a block separated by a blank line; tabs and breaks are kept.
type DOCXExtractor struct{}

// Extract unzips the package and walks the main document part
func (e *DOCXExtractor) Extract(ctx context.Context, content []byte) (*domain.ExtractedDocument, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a DOCX file: %v", domain.ErrUnsupportedFileType, err)
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			part = f
			break
		}
	}
	if part == nil {
		return nil, fmt.Errorf("%w: word/document.xml missing", domain.ErrUnsupportedFileType)
	}

	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to parse DOCX: %w", err)
	}
	defer rc.Close()

	text, err := documentText(ctx, io.LimitReader(rc, maxDocumentXML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse DOCX: %w", err)
	}
	return build(text, 0), nil
}

// documentText streams the WordprocessingML tokens and collects w:t text
func documentText(ctx context.Context, r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	inText := false
	paragraphs := 0

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteString("\n\n")
				paragraphs++
				if paragraphs%256 == 0 && ctx.Err() != nil {
					return "", ctx.Err()
				}
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}

// SupportedTypes returns the DOCX MIME type
func (e *DOCXExtractor) SupportedTypes() []string {
	return []string{domain.MimeTypeDOCX}
}

// Priority is format-specific
func (e *DOCXExtractor) Priority() int {
	return 50
}
