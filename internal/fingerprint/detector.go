package fingerprint

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ozskywalker/frc2g/internal/model"
)

// Detector gates the expensive downstream stages. HasChanged compares the
// current rule set's digest against the stored one; the new digest is held
// pending and only persisted when the caller confirms downstream success
// via Commit.
type Detector struct {
	store  Store
	force  bool
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]string
}

// NewDetector builds a detector over the given store. force makes every
// gateway count as changed regardless of the stored digest.
func NewDetector(store Store, force bool, logger *slog.Logger) *Detector {
	return &Detector{
		store:   store,
		force:   force,
		logger:  logger,
		pending: make(map[string]string),
	}
}

// HasChanged reports whether the canonical rule set differs from the last
// committed run. A missing or unreadable stored digest counts as changed:
// the detector fails open toward re-rendering, never toward skipping a real
// change.
func (d *Detector) HasChanged(ctx context.Context, gatewayID string, rules []model.Rule) bool {
	digest := Digest(rules)
	d.mu.Lock()
	d.pending[gatewayID] = digest
	d.mu.Unlock()

	if d.force {
		d.logger.Info("forced regeneration, skipping fingerprint gate", "gateway", gatewayID)
		return true
	}

	stored, err := d.store.Load(ctx, gatewayID)
	if err != nil {
		d.logger.Warn("fingerprint read failed, assuming changed", "gateway", gatewayID, "error", err)
		return true
	}
	if stored == "" {
		return true
	}
	return stored != digest
}

// Commit persists the digest computed by the last HasChanged call for this
// gateway. A write failure is fatal to the run: claiming success without a
// saved fingerprint would cause a missed change next run.
func (d *Detector) Commit(ctx context.Context, gatewayID string) error {
	d.mu.Lock()
	digest, ok := d.pending[gatewayID]
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("fingerprint: no pending digest for gateway %q", gatewayID)
	}
	if err := d.store.Save(ctx, gatewayID, digest); err != nil {
		return fmt.Errorf("fingerprint: save digest for gateway %q: %w", gatewayID, err)
	}
	return nil
}
