// gateway.go
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

package llm

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/localnerve/docauthor/data"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

// Fallback content stored in place of a completion when a call fails
const (
	GenerateSentinel = "Error: Could not generate content due to an API issue."
	RefineSentinel   = "Error: Could not refine content due to an API issue."
)

// Gateway operation names, used as metric labels and log fields
const (
	OpOutline  = "outline"
	OpGenerate = "generate"
	OpRefine   = "refine"
)

var (
	degradedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docauthor_generation_degraded_total",
		Help: "Content generation calls that fell back to the sentinel value.",
	}, []string{"operation"})

	generationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docauthor_generation_seconds",
		Help:    "Duration of content generation calls.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	}, []string{"operation"})
)

// IsSentinel reports whether content is one of the gateway fallback values
func IsSentinel(content string) bool {
	content = strings.TrimSpace(content)
	return content == GenerateSentinel || content == RefineSentinel
}

// Gateway adapts a TextGenerator to the three authoring operations.
// No Gateway method returns an error: failures are logged, counted and
// replaced by the sentinel content (or an empty outline).
type Gateway struct {
	generator TextGenerator
	timeout   time.Duration
	prompts   *template.Template
}

// NewGateway parses the embedded prompt templates.
// A zero timeout leaves calls bounded only by the caller's context.
func NewGateway(generator TextGenerator, timeout time.Duration) (*Gateway, error) {
	prompts, err := template.ParseFS(data.Prompts, "prompts/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt templates: %w", err)
	}
	return &Gateway{
		generator: generator,
		timeout:   timeout,
		prompts:   prompts,
	}, nil
}

// Endpoint is the base URL of the underlying generator
func (g *Gateway) Endpoint() string {
	return g.generator.Endpoint()
}

// SuggestOutline proposes section headers (docx) or slide titles (anything else)
// for the topic. Returns an empty, non-nil list on failure.
func (g *Gateway) SuggestOutline(ctx context.Context, mainTopic, documentType string) []string {
	itemType := "slide titles"
	if documentType == "docx" {
		itemType = "section headers"
	}

	text, err := g.complete(ctx, OpOutline, "outline.tmpl", map[string]string{
		"MainTopic": mainTopic,
		"ItemType":  itemType,
	})
	if err != nil {
		return []string{}
	}

	titles := []string{}
	for _, item := range strings.Split(text, ",") {
		if item = strings.TrimSpace(item); item != "" {
			titles = append(titles, item)
		}
	}
	return titles
}

// GenerateSection writes content for one section of the topic
func (g *Gateway) GenerateSection(ctx context.Context, mainTopic, sectionTitle string) string {
	text, err := g.complete(ctx, OpGenerate, "section.tmpl", map[string]string{
		"MainTopic":    mainTopic,
		"SectionTitle": sectionTitle,
	})
	if err != nil {
		return GenerateSentinel
	}
	return text
}

// RefineSection rewrites content according to instruction
func (g *Gateway) RefineSection(ctx context.Context, content, instruction string) string {
	text, err := g.complete(ctx, OpRefine, "refine.tmpl", map[string]string{
		"Content":     content,
		"Instruction": instruction,
	})
	if err != nil {
		return RefineSentinel
	}
	return text
}

// complete renders the named prompt and runs it through the generator.
// Panics in the generator are converted to errors.
func (g *Gateway) complete(ctx context.Context, op, name string, vars map[string]string) (text string, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generator panic: %v", r)
		}
		generationSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())
		if err != nil {
			degradedTotal.WithLabelValues(op).Inc()
			logrus.WithFields(logrus.Fields{
				"op":      op,
				"elapsed": time.Since(start).String(),
			}).WithError(err).Error("Content generation degraded")
		}
	}()

	var prompt strings.Builder
	if err = g.prompts.ExecuteTemplate(&prompt, name, vars); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	text, err = g.generator.GenerateText(ctx, strings.TrimSpace(prompt.String()))
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty completion")
	}
	return text, nil
}
