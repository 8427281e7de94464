package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readZip(t *testing.T, data []byte) (names []string, parts map[string]string) {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	parts = make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		names = append(names, f.Name)
		parts[f.Name] = string(b)
	}
	return names, parts
}

func assertWellFormed(t *testing.T, name, doc string) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(doc))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return
		}
		require.NoError(t, err, "part %s is not well formed", name)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Q3 Market Report", "Q3_Market_Report"},
		{"Plan: 2026/27 (draft)!", "Plan_202627_draft"},
		{"snake_case title  ", "snake_case_title"},
		{"???", "document"},
		{"", "document"},
		{"Café Strategy", "Café_Strategy"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.title))
		})
	}
}

func TestExportNoContentBeforeFormat(t *testing.T) {
	e := NewExporter(NewNativeRenderer())

	_, err := e.Export(context.Background(), "pdf", "T", nil)
	assert.ErrorIs(t, err, ErrNoContent)

	_, err = e.Export(context.Background(), "pdf", "T", []Section{{Title: "A", Content: "a"}})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExportDOCX(t *testing.T) {
	e := NewExporter(NewNativeRenderer())

	res, err := e.Export(context.Background(), "docx", "Growth Plan", []Section{
		{Title: "Intro", Content: "First paragraph.\n\nSecond & last."},
		{Title: "Conclusion <final>", Content: "Done."},
	})
	require.NoError(t, err)
	assert.Equal(t, "Growth_Plan.docx", res.Filename)
	assert.Equal(t, MimeTypes[FormatDOCX], res.MimeType)

	names, parts := readZip(t, res.Data)
	assert.Equal(t, "[Content_Types].xml", names[0])
	assert.Contains(t, parts, "_rels/.rels")
	assert.Contains(t, parts, "word/styles.xml")

	doc := parts["word/document.xml"]
	assertWellFormed(t, "word/document.xml", doc)
	assert.Contains(t, doc, "Growth Plan")
	assert.Contains(t, doc, "Second &amp; last.")
	assert.Contains(t, doc, "Conclusion &lt;final&gt;")
	assert.Less(t, strings.Index(doc, "Intro"), strings.Index(doc, "Conclusion"))
	assert.Equal(t, 2, strings.Count(doc, `<w:pStyle w:val="Heading1"/>`))
}

func TestExportPPTX(t *testing.T) {
	e := NewExporter(NewNativeRenderer())

	res, err := e.Export(context.Background(), "pptx", "Deck", []Section{
		{Title: "One", Content: "alpha"},
		{Title: "Two", Content: "beta\ngamma"},
		{Title: "Three", Content: "delta"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Deck.pptx", res.Filename)
	assert.Equal(t, MimeTypes[FormatPPTX], res.MimeType)

	names, parts := readZip(t, res.Data)
	assert.Equal(t, "[Content_Types].xml", names[0])
	for name, doc := range parts {
		assertWellFormed(t, name, doc)
	}

	for i, title := range []string{"One", "Two", "Three"} {
		slide := parts["ppt/slides/slide"+string(rune('1'+i))+".xml"]
		assert.Contains(t, slide, "<a:t>"+title+"</a:t>")
		assert.Contains(t, parts, "ppt/slides/_rels/slide"+string(rune('1'+i))+".xml.rels")
	}
	assert.Contains(t, parts["ppt/slides/slide2.xml"], "<a:t>gamma</a:t>")

	pres := parts["ppt/presentation.xml"]
	assert.Equal(t, 3, strings.Count(pres, "<p:sldId "))
	assert.Contains(t, parts["ppt/_rels/presentation.xml.rels"], `Target="slides/slide3.xml"`)
	assert.Equal(t, 3, strings.Count(parts["[Content_Types].xml"], "presentationml.slide+xml"))
	assert.NotContains(t, parts, "ppt/slides/slide.xml.tmpl")
}

func TestNativeRenderIsDeterministic(t *testing.T) {
	r := NewNativeRenderer()
	sections := []Section{{Title: "A", Content: "a"}}

	first, err := r.Render(context.Background(), FormatDOCX, "T", sections)
	require.NoError(t, err)
	second, err := r.Render(context.Background(), FormatDOCX, "T", sections)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPandocMissing(t *testing.T) {
	r := &PandocRenderer{binary: "pandoc-not-installed-here"}
	_, err := r.Render(context.Background(), FormatDOCX, "T", []Section{{Title: "A", Content: "a"}})
	assert.ErrorIs(t, err, ErrPandocMissing)
}

func TestNewRenderer(t *testing.T) {
	r, err := NewRenderer("native")
	require.NoError(t, err)
	assert.IsType(t, &NativeRenderer{}, r)

	r, err = NewRenderer("pandoc")
	require.NoError(t, err)
	assert.IsType(t, &PandocRenderer{}, r)

	_, err = NewRenderer("pdf")
	assert.Error(t, err)
}

func TestParagraphs(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, paragraphs("  a \r\n\r\n b\n"))
	assert.Empty(t, paragraphs("   \n"))
}
