// Package textextract extracts plain text from uploaded document files.
// PDF, plain text and Markdown are supported.
package textextract

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	apperr "github.com/askdoc/askdoc/internal/errors"
)

// Format identifies a supported input file format.
type Format string

const (
	FormatPDF      Format = "pdf"
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
)

// SupportedFormats lists the formats Extract accepts, in display order.
var SupportedFormats = []Format{FormatPDF, FormatText, FormatMarkdown}

// DetectFormat maps a filename extension to a Format. The second return
// value is false for unrecognized extensions.
func DetectFormat(filename string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF, true
	case ".txt":
		return FormatText, true
	case ".md", ".markdown":
		return FormatMarkdown, true
	default:
		return "", false
	}
}

// Extractor converts raw file bytes into plain text.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Extract returns the plain text content of data interpreted as format.
// Unparseable input yields a CORRUPT_FILE error, unknown formats an
// UNSUPPORTED_FORMAT error.
func (e *Extractor) Extract(data []byte, format Format) (string, error) {
	switch format {
	case FormatPDF:
		return e.extractPDF(data)
	case FormatText:
		return e.extractText(data)
	case FormatMarkdown:
		return e.extractMarkdown(data)
	default:
		return "", apperr.UnsupportedFormat(string(format))
	}
}

func (e *Extractor) extractPDF(data []byte) (text string, err error) {
	// The pdf package panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = apperr.CorruptFile(fmt.Sprintf("malformed pdf: %v", r), nil)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", apperr.CorruptFile("failed to open pdf", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func (e *Extractor) extractText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", apperr.CorruptFile("file is not valid utf-8", nil)
	}
	return string(data), nil
}

// extractMarkdown strips Markdown structure by walking the parsed AST and
// collecting the raw text segments, so headings, emphasis and links come out
// as their visible text only.
func (e *Extractor) extractMarkdown(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", apperr.CorruptFile("file is not valid utf-8", nil)
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(data))

	var sb strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock && n.Kind() != ast.KindDocument {
				sb.WriteString("\n")
			}
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			sb.Write(node.Segment.Value(data))
			if node.SoftLineBreak() || node.HardLineBreak() {
				sb.WriteString("\n")
			}
		case *ast.CodeBlock:
			writeRawLines(&sb, node.Lines(), data)
		case *ast.FencedCodeBlock:
			writeRawLines(&sb, node.Lines(), data)
		case *ast.AutoLink:
			sb.Write(node.URL(data))
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", apperr.CorruptFile("failed to parse markdown", err)
	}
	return sb.String(), nil
}

func writeRawLines(sb *strings.Builder, lines *text.Segments, data []byte) {
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		sb.Write(segment.Value(data))
	}
	sb.WriteString("\n")
}
