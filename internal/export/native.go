// native.go
//
// A document authoring service that drafts and refines content with an LLM
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of docauthor.
// docauthor is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// docauthor is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with docauthor.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/localnerve/docauthor/data"
)

const (
	contentTypesPart = "[Content_Types].xml"
	templateSuffix   = ".tmpl"
	slideTemplate    = "ppt/slides/slide.xml.tmpl"
	slideRelTemplate = "ppt/slides/slide.xml.rels.tmpl"
)

// packageTime is stamped on every zip entry so identical input yields identical output
var packageTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// NativeRenderer writes OOXML packages from the embedded part templates.
// Parts ending in .tmpl are executed with the document model; the rest are copied.
type NativeRenderer struct {
	parts fs.FS
	funcs template.FuncMap
}

type docxModel struct {
	Title    string
	Sections []Section
}

type slideModel struct {
	Number  int
	ID      int
	RelID   string
	Title   string
	Content string
}

type pptxModel struct {
	Slides []slideModel
}

// NewNativeRenderer creates a renderer over the embedded OOXML parts
func NewNativeRenderer() *NativeRenderer {
	parts, err := fs.Sub(data.OOXML, "ooxml")
	if err != nil {
		panic(err)
	}
	return &NativeRenderer{
		parts: parts,
		funcs: template.FuncMap{
			"xml":        xmlEscape,
			"paragraphs": paragraphs,
		},
	}
}

// Render implements Renderer
func (r *NativeRenderer) Render(ctx context.Context, format Format, title string, sections []Section) ([]byte, error) {
	switch format {
	case FormatDOCX:
		return r.build(ctx, "docx", docxModel{Title: title, Sections: sections}, nil)

	case FormatPPTX:
		model := pptxModel{Slides: make([]slideModel, len(sections))}
		for i, s := range sections {
			model.Slides[i] = slideModel{
				Number:  i + 1,
				ID:      256 + i,
				RelID:   fmt.Sprintf("rId%d", i+3),
				Title:   s.Title,
				Content: s.Content,
			}
		}
		return r.build(ctx, "pptx", model, func(pkg *ooxmlPackage) error {
			for _, s := range model.Slides {
				if err := r.addTemplate(pkg, "pptx/"+slideTemplate, fmt.Sprintf("ppt/slides/slide%d.xml", s.Number), s); err != nil {
					return err
				}
				if err := r.addTemplate(pkg, "pptx/"+slideRelTemplate, fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", s.Number), s); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return nil, ErrUnsupportedFormat
}

// build writes every part under root, then lets extra add per-item parts
func (r *NativeRenderer) build(ctx context.Context, root string, model any, extra func(*ooxmlPackage) error) ([]byte, error) {
	var names []string
	err := fs.WalkDir(r.parts, root, func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel := strings.TrimPrefix(name, root+"/")
		if rel == slideTemplate || rel == slideRelTemplate {
			return nil
		}
		names = append(names, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The content types part goes first
	sort.Slice(names, func(i, j int) bool {
		ci := strings.HasPrefix(names[i], contentTypesPart)
		cj := strings.HasPrefix(names[j], contentTypesPart)
		if ci != cj {
			return ci
		}
		return names[i] < names[j]
	})

	pkg := newPackage()
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src := root + "/" + name
		if strings.HasSuffix(name, templateSuffix) {
			err = r.addTemplate(pkg, src, strings.TrimSuffix(name, templateSuffix), model)
		} else {
			err = r.addStatic(pkg, src, name)
		}
		if err != nil {
			return nil, err
		}
	}

	if extra != nil {
		if err := extra(pkg); err != nil {
			return nil, err
		}
	}
	return pkg.close()
}

func (r *NativeRenderer) addStatic(pkg *ooxmlPackage, src, name string) error {
	b, err := fs.ReadFile(r.parts, src)
	if err != nil {
		return err
	}
	return pkg.add(name, b)
}

func (r *NativeRenderer) addTemplate(pkg *ooxmlPackage, src, name string, model any) error {
	raw, err := fs.ReadFile(r.parts, src)
	if err != nil {
		return err
	}
	tmpl, err := template.New(path.Base(src)).Funcs(r.funcs).Parse(string(raw))
	if err != nil {
		return fmt.Errorf("parse %s: %w", src, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, model); err != nil {
		return fmt.Errorf("execute %s: %w", src, err)
	}
	return pkg.add(name, buf.Bytes())
}

type ooxmlPackage struct {
	buf bytes.Buffer
	zw  *zip.Writer
}

func newPackage() *ooxmlPackage {
	pkg := &ooxmlPackage{}
	pkg.zw = zip.NewWriter(&pkg.buf)
	return pkg
}

func (p *ooxmlPackage) add(name string, content []byte) error {
	w, err := p.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: packageTime,
	})
	if err != nil {
		return err
	}
	_, err = w.Write(content)
	return err
}

func (p *ooxmlPackage) close() ([]byte, error) {
	if err := p.zw.Close(); err != nil {
		return nil, err
	}
	return p.buf.Bytes(), nil
}

func xmlEscape(s string) (string, error) {
	var sb strings.Builder
	if err := xml.EscapeText(&sb, []byte(s)); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// paragraphs splits generated text into non-blank lines
func paragraphs(s string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
