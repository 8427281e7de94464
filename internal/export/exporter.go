package export

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// Exporter validates export input and hands it to a Renderer
type Exporter struct {
	renderer Renderer
}

// NewExporter creates an exporter backed by renderer
func NewExporter(renderer Renderer) *Exporter {
	return &Exporter{renderer: renderer}
}

// NewRenderer returns the renderer named by EXPORT_RENDERER
func NewRenderer(name string) (Renderer, error) {
	switch name {
	case "", "native":
		return NewNativeRenderer(), nil
	case "pandoc":
		return NewPandocRenderer(), nil
	}
	return nil, fmt.Errorf("unsupported export renderer: %s", name)
}

// Export renders sections, which must already exclude failed content.
// An empty section list is ErrNoContent even when the format is also invalid.
func (e *Exporter) Export(ctx context.Context, documentType, title string, sections []Section) (*Result, error) {
	if len(sections) == 0 {
		return nil, ErrNoContent
	}

	format := Format(documentType)
	mimeType, ok := MimeTypes[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, documentType)
	}

	data, err := e.renderer.Render(ctx, format, title, sections)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}

	return &Result{
		Data:     data,
		Filename: SanitizeFilename(title) + "." + string(format),
		MimeType: mimeType,
	}, nil
}

// SanitizeFilename keeps letters, digits, spaces and underscores, trims
// trailing spaces and maps the remaining spaces to underscores.
func SanitizeFilename(title string) string {
	var sb strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' {
			sb.WriteRune(r)
		}
	}

	name := strings.ReplaceAll(strings.TrimRight(sb.String(), " "), " ", "_")
	if name == "" {
		return "document"
	}
	return name
}
