package opnsense

import (
	"context"
	"fmt"
	"strings"
)

// Discovery is the outcome of the three-tier interface discovery chain:
// capability endpoint, then scanning fetched rules for interface keys in
// use, then the operator-configured list. Failures of earlier tiers are
// kept so they can be surfaced, not swallowed.
type Discovery struct {
	Interfaces []string
	Tier       string
	TierErrors []string
}

// systemInterfaces are never diagrammed.
var systemInterfaces = map[string]bool{
	"lo0":    true,
	"enc0":   true,
	"pflog0": true,
}

// DiscoverInterfaces tries each discovery tier in order and stops at the
// first one that yields interfaces. An empty result with all tier errors
// populated means discovery failed outright.
func (c *Client) DiscoverInterfaces(ctx context.Context) Discovery {
	tiers := []struct {
		name string
		fn   func(context.Context) ([]string, error)
	}{
		{"capability-endpoint", c.discoverFromOverview},
		{"rule-scan", c.discoverFromRules},
		{"configured-list", c.discoverConfigured},
	}

	d := Discovery{}
	for _, tier := range tiers {
		interfaces, err := tier.fn(ctx)
		if err != nil {
			d.TierErrors = append(d.TierErrors, fmt.Sprintf("%s: %v", tier.name, err))
			c.logger.Warn("interface discovery tier failed", "tier", tier.name, "error", err)
			continue
		}
		if len(interfaces) == 0 {
			d.TierErrors = append(d.TierErrors, tier.name+": no interfaces found")
			c.logger.Warn("interface discovery tier empty", "tier", tier.name)
			continue
		}
		d.Interfaces = interfaces
		d.Tier = tier.name
		c.logger.Info("interfaces discovered", "tier", tier.name, "count", len(interfaces))
		return d
	}
	return d
}

func (c *Client) discoverFromOverview(ctx context.Context) ([]string, error) {
	var resp interfacesResponse
	if err := c.getJSON(ctx, "/api/interfaces/overview/interfaces_info", &resp); err != nil {
		return nil, err
	}
	var interfaces []string
	for _, row := range resp.Rows {
		id := strings.ToLower(strings.TrimSpace(row.Identifier))
		if id == "" || systemInterfaces[id] || !row.Enabled {
			continue
		}
		interfaces = append(interfaces, id)
	}
	return interfaces, nil
}

func (c *Client) discoverFromRules(ctx context.Context) ([]string, error) {
	rows, err := c.fetchRuleRows(ctx, "")
	if err != nil {
		return nil, err
	}
	return InterfacesInUse(rows), nil
}

func (c *Client) discoverConfigured(_ context.Context) ([]string, error) {
	var interfaces []string
	for _, iface := range c.cfg.Interfaces {
		iface = strings.ToLower(strings.TrimSpace(iface))
		if iface != "" {
			interfaces = append(interfaces, iface)
		}
	}
	return interfaces, nil
}
