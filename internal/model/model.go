package model

import "fmt"

type Action string

const (
	Pass  Action = "PASS"
	Block Action = "BLOCK"
)

// EnabledState is tri-valued because not every gateway API reports whether a
// rule is disabled. OPNSense in particular never exposes it for existing
// rules, so those rules carry AssumedEnabled rather than a silent true.
type EnabledState string

const (
	Enabled        EnabledState = "enabled"
	Disabled       EnabledState = "disabled"
	AssumedEnabled EnabledState = "assumed-enabled"
)

// Active reports whether the rule should be drawn with its action color.
// AssumedEnabled counts as active; the uncertainty is surfaced in the label,
// not in the styling.
func (s EnabledState) Active() bool {
	return s != Disabled
}

type EndpointClass string

const (
	ClassNetwork EndpointClass = "network"
	ClassHost    EndpointClass = "host"
	ClassAny     EndpointClass = "any"
)

// Endpoint is a resolved source or destination reference.
type Endpoint struct {
	Label string
	Raw   string
	Class EndpointClass

	// Network is the network membership recovered for a host endpoint
	// (e.g. from a VLAN hint in the rule comment). Empty when unknown.
	Network string

	// OutsidePerimeter marks destinations that live beyond the managed
	// perimeter and get a distinguishing marker in the diagram.
	OutsidePerimeter bool
}

// InterfaceRef carries both the resolved display label and the raw vendor
// key an interface came from.
type InterfaceRef struct {
	Label string
	Raw   string
}

// Rule is the vendor-agnostic representation of one firewall rule. Every
// field is fully resolved; no raw vendor identifier reaches the graph
// builder except as the Raw companions kept for diagnostics.
type Rule struct {
	ID          string
	Interface   InterfaceRef
	Action      Action
	Enabled     EnabledState
	Protocol    string
	Source      Endpoint
	Destination Endpoint
	Ports       []string // resolved port labels or ranges; empty means any
	Comment     string
	Floating    bool
}

// SyntheticID builds a rule identifier from interface and position for
// sources that assign no stable id of their own.
func SyntheticID(rawInterface string, position int) string {
	return fmt.Sprintf("%s#%d", rawInterface, position)
}

// RuleSet is one gateway's ordered canonical rules together with the order
// interfaces were discovered in. Rule order within an interface is the
// evaluation order reported by the source.
type RuleSet struct {
	Gateway    string
	Rules      []Rule
	Interfaces []InterfaceRef

	// Complete is false when at least one per-interface fetch failed.
	// An incomplete set must not update the stored fingerprint and must
	// not be rendered.
	Complete bool
}

// ByInterface groups rules by resolved interface label, preserving rule
// order. Floating rules are excluded; they get their own aggregate graph.
func (s *RuleSet) ByInterface() map[string][]Rule {
	grouped := make(map[string][]Rule)
	for _, r := range s.Rules {
		if r.Floating {
			continue
		}
		grouped[r.Interface.Label] = append(grouped[r.Interface.Label], r)
	}
	return grouped
}

// FloatingRules returns the rules not bound to a single interface, in order.
func (s *RuleSet) FloatingRules() []Rule {
	var floating []Rule
	for _, r := range s.Rules {
		if r.Floating {
			floating = append(floating, r)
		}
	}
	return floating
}
