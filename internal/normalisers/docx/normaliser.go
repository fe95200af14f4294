// Package docx extracts text from Word OOXML documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

const (
	documentPart = "word/document.xml"
	corePart     = "docProps/core.xml"
)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
}

// SupportedExtensions returns the extensions used when no MIME type matches.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".docx"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise reads the main document part, one line per paragraph.
// The title comes from the core properties when set.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	archive, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: docx: %v", domain.ErrInvalidInput, err)
	}

	body, err := readPart(archive, documentPart)
	if err != nil {
		return nil, fmt.Errorf("%w: docx: %v", domain.ErrInvalidInput, err)
	}
	content, paragraphs, err := extractText(body)
	if err != nil {
		return nil, fmt.Errorf("%w: docx: %v", domain.ErrInvalidInput, err)
	}

	var title string
	if core, err := readPart(archive, corePart); err == nil {
		title = extractTitle(core)
	}

	return &driven.NormaliseResult{
		Title:   title,
		Content: content,
		Metadata: map[string]any{
			"format":     "docx",
			"paragraphs": paragraphs,
		},
	}, nil
}

var errMissingPart = errors.New("missing part")

func readPart(archive *zip.Reader, name string) ([]byte, error) {
	for _, file := range archive.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%w %s", errMissingPart, name)
}

// extractText walks the WordprocessingML token stream. Text runs are
// joined, tabs and breaks kept, and each non-empty paragraph becomes a line.
func extractText(body []byte) (string, int, error) {
	decoder := xml.NewDecoder(bytes.NewReader(body))
	var (
		out        strings.Builder
		para       strings.Builder
		inText     bool
		paragraphs int
	)
	flush := func() {
		line := strings.TrimSpace(para.String())
		para.Reset()
		if line == "" {
			return
		}
		if paragraphs > 0 {
			out.WriteByte('\n')
		}
		out.WriteString(line)
		paragraphs++
	}

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", 0, err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte('\n')
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				flush()
			}
		case xml.CharData:
			if inText {
				para.Write(el)
			}
		}
	}
	flush()
	return out.String(), paragraphs, nil
}

// coreProperties is the subset of docProps/core.xml we read.
type coreProperties struct {
	Title string `xml:"title"`
}

func extractTitle(core []byte) string {
	var props coreProperties
	if err := xml.Unmarshal(core, &props); err != nil {
		return ""
	}
	return strings.TrimSpace(props.Title)
}
