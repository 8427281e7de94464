// Package export renders ordered project sections into downloadable
// Office Open XML documents (docx and pptx).
package export

import (
	"context"
	"errors"
)

// Format represents the export output format
type Format string

const (
	FormatDOCX Format = "docx"
	FormatPPTX Format = "pptx"
)

// MimeTypes maps each supported format to its content type
var MimeTypes = map[Format]string{
	FormatDOCX: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	FormatPPTX: "application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// Section is one titled block of exported content
type Section struct {
	Title   string
	Content string
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// Renderer turns sections into the bytes of a document of the given format
type Renderer interface {
	Render(ctx context.Context, format Format, title string, sections []Section) ([]byte, error)
}

var (
	// ErrUnsupportedFormat indicates a document type outside docx and pptx.
	ErrUnsupportedFormat = errors.New("unsupported document type")
	// ErrNoContent indicates there were no sections left to export.
	ErrNoContent = errors.New("no valid content to export")
	// ErrPandocMissing indicates the pandoc renderer was selected but pandoc is not installed.
	ErrPandocMissing = errors.New("export pandoc dependency missing")
)
