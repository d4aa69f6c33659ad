// Package pfsense adapts pfSense REST API (v2) payloads into canonical
// rules. pfSense reports rule fields directly: disabled state and floating
// membership are present on the wire, but a destination host's network
// membership is not, and is recovered from a VLAN hint in the rule comment.
package pfsense

import (
	"regexp"
	"strings"

	"github.com/ozskywalker/frc2g/internal/alias"
	"github.com/ozskywalker/frc2g/internal/model"
	"github.com/ozskywalker/frc2g/internal/source"
)

// vlanHintPattern matches the operator convention of tagging a rule comment
// with the VLAN its destination host belongs to: "VLAN30", "vlan=guest".
var vlanHintPattern = regexp.MustCompile(`(?i)\bvlan[=\s]?([a-z0-9_-]+)`)

type Adapter struct{}

// Adapt converts raw pfSense rules in evaluation order. Malformed entries
// are skipped and counted in the report, never fatal.
func (Adapter) Adapt(raw []RawRule, table *alias.Table) ([]model.Rule, *source.Report) {
	report := &source.Report{}
	rules := make([]model.Rule, 0, len(raw))

	for i, entry := range raw {
		rule, reason := adaptOne(entry, i, table)
		if reason != "" {
			report.Skip(i, string(entry.Interface), reason)
			continue
		}
		rules = append(rules, rule)
	}
	return rules, report
}

func adaptOne(entry RawRule, index int, table *alias.Table) (model.Rule, string) {
	var action model.Action
	switch strings.ToLower(entry.Type) {
	case "pass":
		action = model.Pass
	case "block", "reject":
		action = model.Block
	case "":
		return model.Rule{}, "missing rule type"
	default:
		return model.Rule{}, "unknown rule type " + entry.Type
	}

	ifaceRaw := strings.ToLower(string(entry.Interface))
	if ifaceRaw == "" && !entry.Floating {
		return model.Rule{}, "missing interface"
	}

	id := string(entry.Tracker)
	if id == "" {
		id = string(entry.ID)
	}
	if id == "" {
		id = model.SyntheticID(ifaceRaw, index)
	}

	enabled := model.Enabled
	if entry.Disabled {
		enabled = model.Disabled
	}

	dest := source.ResolveEndpoint(table, string(entry.Destination))
	if dest.Class == model.ClassHost && dest.Network == "" {
		// The API does not expose which network a destination host sits in;
		// the comment's VLAN hint is the only recovery path. Without a hint
		// the destination stays a plain host.
		if m := vlanHintPattern.FindStringSubmatch(entry.Descr); m != nil {
			dest.Network = "VLAN " + m[1]
		}
	}

	protocol := strings.ToUpper(strings.TrimSpace(entry.Protocol))
	if protocol == "" {
		protocol = "ANY"
	}

	iface := model.InterfaceRef{Raw: ifaceRaw}
	if ifaceRaw != "" {
		iface.Label = table.Resolve(alias.Interface, ifaceRaw)
	}

	return model.Rule{
		ID:          id,
		Interface:   iface,
		Action:      action,
		Enabled:     enabled,
		Protocol:    protocol,
		Source:      source.ResolveEndpoint(table, string(entry.Source)),
		Destination: dest,
		Ports:       source.ResolvePorts(table, string(entry.DestinationPort)),
		Comment:     strings.TrimSpace(entry.Descr),
		Floating:    entry.Floating,
	}, ""
}
