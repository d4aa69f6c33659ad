// Package source defines the vendor-neutral contracts for turning a gateway
// API's raw payloads into canonical rules. One package per vendor implements
// Source; adding a vendor means adding one package, not touching the core.
package source

import (
	"context"
	"fmt"

	"github.com/ozskywalker/frc2g/internal/alias"
	"github.com/ozskywalker/frc2g/internal/model"
)

// Source is one gateway's rule provider. FetchAliases populates the run's
// alias builder from the gateway API; FetchRules retrieves the raw rule
// payloads and adapts them against the sealed alias table.
type Source interface {
	Gateway() string
	FetchAliases(ctx context.Context, b *alias.Builder) error
	FetchRules(ctx context.Context, table *alias.Table) (*model.RuleSet, *Report, error)
}

// Report collects the recoverable incidents of one fetch-and-adapt pass.
// Rule-level problems are counted here and never abort the run.
type Report struct {
	// SkippedRules are raw entries that could not be adapted.
	SkippedRules []SkippedRule

	// FailedFetches are per-interface fetch failures (Vendor B fetches one
	// interface at a time). Any entry here marks the rule set incomplete.
	FailedFetches []FetchFailure

	// DiscoveryNotes surface interface-discovery tier failures.
	DiscoveryNotes []string
}

type SkippedRule struct {
	Index     int
	Interface string
	Reason    string
}

type FetchFailure struct {
	Interface string
	Err       error
}

// Skip records one unadaptable raw entry.
func (r *Report) Skip(index int, iface, reason string) {
	r.SkippedRules = append(r.SkippedRules, SkippedRule{Index: index, Interface: iface, Reason: reason})
}

// FetchError is a gateway-level failure (network, auth, malformed response).
// It aborts that gateway's pipeline before the change detector but never
// affects other gateways in the batch.
type FetchError struct {
	Gateway string
	Op      string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("source: %s: %s: %v", e.Gateway, e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
