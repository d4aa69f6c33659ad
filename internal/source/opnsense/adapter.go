// Package opnsense adapts OPNSense API payloads into canonical rules.
// OPNSense exposes rules per interface only, represents "any" as a numeric
// sentinel that must resolve through the alias table, and never reports
// disabled state for existing rules.
package opnsense

import (
	"sort"
	"strings"

	"github.com/ozskywalker/frc2g/internal/alias"
	"github.com/ozskywalker/frc2g/internal/model"
	"github.com/ozskywalker/frc2g/internal/source"
)

type Adapter struct{}

// Adapt converts raw OPNSense rows in evaluation order. Rows with an empty
// interface key are floating rules.
func (Adapter) Adapt(raw []RawRule, table *alias.Table) ([]model.Rule, *source.Report) {
	report := &source.Report{}
	rules := make([]model.Rule, 0, len(raw))

	for i, row := range raw {
		rule, reason := adaptOne(row, i, table)
		if reason != "" {
			report.Skip(i, row.Interface, reason)
			continue
		}
		rules = append(rules, rule)
	}
	return rules, report
}

func adaptOne(row RawRule, index int, table *alias.Table) (model.Rule, string) {
	var action model.Action
	switch strings.ToLower(row.Action) {
	case "pass":
		action = model.Pass
	case "block", "reject":
		action = model.Block
	case "":
		return model.Rule{}, "missing rule action"
	default:
		return model.Rule{}, "unknown rule action " + row.Action
	}

	ifaceRaw := strings.ToLower(strings.TrimSpace(row.Interface))
	floating := ifaceRaw == ""

	id := row.UUID
	if id == "" {
		id = model.SyntheticID(ifaceRaw, index)
	}

	iface := model.InterfaceRef{Raw: ifaceRaw}
	if !floating {
		iface.Label = table.Resolve(alias.Interface, ifaceRaw)
	}

	protocol := strings.ToUpper(strings.TrimSpace(row.Protocol))
	if protocol == "" || protocol == "ANY" {
		protocol = "ANY"
	}

	return model.Rule{
		ID:        id,
		Interface: iface,
		Action:    action,
		// The API cannot report disabled state for existing rules; this is
		// surfaced as assumed, never silently asserted as enabled.
		Enabled:     model.AssumedEnabled,
		Protocol:    protocol,
		Source:      resolveEndpoint(table, row.SourceNet),
		Destination: resolveEndpoint(table, row.DestinationNet),
		Ports:       resolvePorts(table, row.DestinationPort),
		Comment:     strings.TrimSpace(row.Description),
		Floating:    floating,
	}, ""
}

// resolveEndpoint maps the numeric "any" sentinel through the alias table's
// misc-tag entry before the shared resolution path runs.
func resolveEndpoint(table *alias.Table, raw string) model.Endpoint {
	if strings.TrimSpace(raw) == AnySentinel {
		return model.Endpoint{
			Label: table.Resolve(alias.Misc, alias.AnySentinelKey),
			Raw:   raw,
			Class: model.ClassAny,
		}
	}
	return source.ResolveEndpoint(table, raw)
}

func resolvePorts(table *alias.Table, raw string) []string {
	if strings.TrimSpace(raw) == AnySentinel {
		return nil
	}
	return source.ResolvePorts(table, raw)
}

// InterfacesInUse returns the sorted set of interface keys referenced by the
// given rows. This is the rule-scan discovery tier.
func InterfacesInUse(rows []RawRule) []string {
	seen := make(map[string]bool)
	for _, row := range rows {
		key := strings.ToLower(strings.TrimSpace(row.Interface))
		if key != "" {
			seen[key] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
