// Package pipeline drives one conversion run per gateway: alias collection,
// rule fetch, change detection, flow-graph construction, document assembly,
// optional evidence upload, and the final fingerprint commit.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ozskywalker/frc2g/internal/alias"
	"github.com/ozskywalker/frc2g/internal/document"
	"github.com/ozskywalker/frc2g/internal/evidence"
	"github.com/ozskywalker/frc2g/internal/fingerprint"
	"github.com/ozskywalker/frc2g/internal/flowgraph"
	"github.com/ozskywalker/frc2g/internal/source"
)

// StaticAliases carries the operator-supplied alias overrides applied on
// top of whatever each gateway's API reports.
type StaticAliases struct {
	// CSVPath points at a "category,key,label" mapping file.
	CSVPath string
	// Entries maps "category/key" onto display labels.
	Entries map[string]string
	// AnyLabel replaces the default label for wildcard endpoints.
	AnyLabel string
}

// Summary reports what one gateway run did, for operator-facing output.
type Summary struct {
	Gateway         string
	Changed         bool
	Pages           int
	SectionFailures int
	SkippedRules    int
	FailedFetches   int
	AliasFallbacks  uint64
	Uploaded        int
	UploadFailed    int
}

// Pipeline wires the run's shared collaborators. One Pipeline serves every
// gateway in the run; per-gateway state lives in the Source and the
// detector's pending map.
type Pipeline struct {
	Detector  *fingerprint.Detector
	Assembler *document.Assembler
	Evidence  *evidence.Client
	Static    StaticAliases
	Logger    *slog.Logger
}

// Run executes the full conversion for one gateway. The returned Summary is
// valid even when err is non-nil; err marks the gateway as failed.
func (p *Pipeline) Run(ctx context.Context, src source.Source) (*Summary, error) {
	gateway := src.Gateway()
	log := p.Logger.With("gateway", gateway)
	sum := &Summary{Gateway: gateway}

	builder := alias.NewBuilder()
	if err := p.applyStatic(builder, log); err != nil {
		return sum, err
	}
	if err := src.FetchAliases(ctx, builder); err != nil {
		// Rules still resolve through the fallback path, so a failed
		// alias fetch degrades labels rather than aborting the run.
		log.Warn("alias fetch failed, continuing with static mappings only", "error", err)
	}
	table := builder.Build()

	set, report, err := src.FetchRules(ctx, table)
	if report != nil {
		sum.SkippedRules = len(report.SkippedRules)
		sum.FailedFetches = len(report.FailedFetches)
		for _, skipped := range report.SkippedRules {
			log.Warn("rule skipped", "index", skipped.Index, "interface", skipped.Interface, "reason", skipped.Reason)
		}
		for _, note := range report.DiscoveryNotes {
			log.Warn("interface discovery degraded", "note", note)
		}
	}
	if err != nil {
		return sum, fmt.Errorf("pipeline: fetch rules: %w", err)
	}
	if !set.Complete {
		// Rendering a partial set would overwrite good output and a
		// committed fingerprint would mask the missing interfaces.
		return sum, fmt.Errorf("pipeline: rule fetch incomplete for %s (%d interface fetches failed)", gateway, sum.FailedFetches)
	}
	log.Info("rules fetched", "rules", len(set.Rules), "interfaces", len(set.Interfaces), "skipped", sum.SkippedRules)

	if !p.Detector.HasChanged(ctx, gateway, set.Rules) {
		sum.AliasFallbacks = table.Fallbacks()
		log.Info("rule set unchanged, skipping render")
		return sum, nil
	}
	sum.Changed = true

	graphs := flowgraph.Build(set)
	doc := p.Assembler.Assemble(ctx, gateway, graphs)
	sum.Pages = len(doc.Pages)
	sum.SectionFailures = len(doc.Failures)

	if p.Evidence != nil && p.Evidence.Enabled() {
		stats := p.Evidence.UploadDocument(ctx, doc)
		sum.Uploaded = stats.Successful
		sum.UploadFailed = stats.Failed
	}

	sum.AliasFallbacks = table.Fallbacks()
	if sum.AliasFallbacks > 0 {
		log.Warn("alias lookups fell back to raw keys", "count", sum.AliasFallbacks, "by_category", table.FallbacksByCategory())
	}

	if len(doc.Failures) > 0 {
		// Not committing keeps the failed sections due for regeneration
		// on the next run.
		return sum, fmt.Errorf("pipeline: %d of %d sections failed to render", len(doc.Failures), len(graphs))
	}
	if err := p.Detector.Commit(ctx, gateway); err != nil {
		return sum, fmt.Errorf("pipeline: %w", err)
	}
	log.Info("run complete", "pages", sum.Pages)
	return sum, nil
}

func (p *Pipeline) applyStatic(builder *alias.Builder, log *slog.Logger) error {
	if p.Static.CSVPath != "" {
		f, err := os.Open(p.Static.CSVPath)
		if err != nil {
			return fmt.Errorf("pipeline: open alias csv: %w", err)
		}
		loaded, err := alias.LoadCSV(builder, f)
		f.Close()
		if err != nil {
			return fmt.Errorf("pipeline: load alias csv: %w", err)
		}
		log.Info("static alias csv loaded", "entries", loaded)
	}
	for rawKey, label := range p.Static.Entries {
		catName, key, ok := strings.Cut(rawKey, "/")
		if !ok {
			log.Warn("static alias ignored, expected category/key", "key", rawKey)
			continue
		}
		cat, ok := alias.ParseCategory(catName)
		if !ok {
			log.Warn("static alias ignored, unknown category", "key", rawKey)
			continue
		}
		builder.AddStatic(cat, key, label)
	}
	if p.Static.AnyLabel != "" {
		builder.AddStatic(alias.Misc, alias.AnySentinelKey, p.Static.AnyLabel)
	}
	return nil
}
