package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"os/exec"
)

var pandocHTML = template.Must(template.New("pandoc").Funcs(template.FuncMap{
	"paragraphs": paragraphs,
}).Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title></head><body>
{{range .Sections}}<h1>{{.Title}}</h1>
{{range paragraphs .Content}}<p>{{.}}</p>
{{end}}{{end}}</body></html>
`))

// PandocRenderer converts an HTML rendition of the sections with pandoc
type PandocRenderer struct {
	binary string
}

// NewPandocRenderer creates a renderer that shells out to pandoc on PATH
func NewPandocRenderer() *PandocRenderer {
	return &PandocRenderer{binary: "pandoc"}
}

// Render implements Renderer
func (r *PandocRenderer) Render(ctx context.Context, format Format, title string, sections []Section) ([]byte, error) {
	if _, ok := MimeTypes[format]; !ok {
		return nil, ErrUnsupportedFormat
	}
	if _, err := exec.LookPath(r.binary); err != nil {
		return nil, fmt.Errorf("%w: %s not installed", ErrPandocMissing, r.binary)
	}

	var html bytes.Buffer
	if err := pandocHTML.Execute(&html, docxModel{Title: title, Sections: sections}); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, r.binary,
		"-f", "html",
		"-t", string(format),
		"--standalone",
		"-o", "-", // Output to stdout
	)
	cmd.Stdin = &html

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("pandoc failed: %s", string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("pandoc execution failed: %w", err)
	}
	return output, nil
}
