// Package document assembles per-interface flow graphs into an ordered
// multi-section document. Page production is delegated to the rendering
// collaborator; this package owns only ordering, section labeling, and the
// collect-and-report handling of per-section failures.
package document

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ozskywalker/frc2g/internal/flowgraph"
)

// Page is one rendered section artifact, opaque to the core.
type Page struct {
	Section string
	Path    string
}

// Renderer is the external collaborator that turns one flow graph into a
// page artifact.
type Renderer interface {
	Render(ctx context.Context, g *flowgraph.Graph) (Page, error)
}

// SectionError records a render failure for one section. Other sections are
// still assembled.
type SectionError struct {
	Section string
	Err     error
}

func (e SectionError) Error() string {
	return fmt.Sprintf("document: render section %s: %v", e.Section, e.Err)
}

// Document is the assembled result: rendered pages in section order plus
// any per-section failures.
type Document struct {
	Gateway  string
	Pages    []Page
	Failures []SectionError
}

type Assembler struct {
	renderer Renderer
	logger   *slog.Logger
}

func NewAssembler(renderer Renderer, logger *slog.Logger) *Assembler {
	return &Assembler{renderer: renderer, logger: logger}
}

// Assemble renders every graph in order: one section per real interface in
// discovery order, the floating-rules section last. A failed section is
// recorded and skipped; already-rendered sections are never discarded.
func (a *Assembler) Assemble(ctx context.Context, gateway string, graphs []*flowgraph.Graph) *Document {
	doc := &Document{Gateway: gateway}

	ordered := make([]*flowgraph.Graph, 0, len(graphs))
	var floating []*flowgraph.Graph
	for _, g := range graphs {
		if g.Floating {
			floating = append(floating, g)
			continue
		}
		ordered = append(ordered, g)
	}
	ordered = append(ordered, floating...)

	for _, g := range ordered {
		page, err := a.renderer.Render(ctx, g)
		if err != nil {
			a.logger.Error("section render failed", "section", g.Section(), "error", err)
			doc.Failures = append(doc.Failures, SectionError{Section: g.Section(), Err: err})
			continue
		}
		page.Section = g.Section()
		doc.Pages = append(doc.Pages, page)
	}
	return doc
}
