package document

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ozskywalker/frc2g/internal/flowgraph"
)

// DOTRenderer is the default rendering collaborator: it writes each graph's
// DOT description to a gateway-scoped .gv file for an external Graphviz
// pass. Deployments with a drawing pipeline swap in their own Renderer.
type DOTRenderer struct {
	OutputDir string
}

func NewDOTRenderer(outputDir string) *DOTRenderer {
	return &DOTRenderer{OutputDir: outputDir}
}

func (r *DOTRenderer) Render(_ context.Context, g *flowgraph.Graph) (Page, error) {
	if err := os.MkdirAll(r.OutputDir, 0o755); err != nil {
		return Page{}, err
	}
	name := safeFilename(g.Gateway) + "_" + safeFilename(g.Interface) + "_flows.gv"
	path := filepath.Join(r.OutputDir, name)
	if err := os.WriteFile(path, []byte(g.DOT()), 0o644); err != nil {
		return Page{}, err
	}
	return Page{Path: path}, nil
}

func safeFilename(name string) string {
	replacer := strings.NewReplacer("/", "_", " ", "_", "<", "", ">", "")
	return replacer.Replace(name)
}
