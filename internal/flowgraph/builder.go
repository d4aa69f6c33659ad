// Package flowgraph turns canonical rules, grouped by interface, into
// abstract flow-graph descriptions: one directed node chain per rule from
// source endpoint through gateway, action, protocol and port annotation to
// destination endpoint.
package flowgraph

import (
	"strconv"
	"strings"

	"github.com/ozskywalker/frc2g/internal/model"
	"github.com/ozskywalker/frc2g/pkg/wellknown"
)

// Styling color classes. Disabled overrides the action color.
const (
	ColorPass     = "#a3f7a3"
	ColorBlock    = "#f7a3a3"
	ColorDisabled = "#ffcc00"
)

// FloatingSection is the section label used for the aggregate of rules not
// bound to a single interface.
const FloatingSection = "Floating-rules"

const anyLabel = "Any"

type Node struct {
	ID    string
	Label string
	Fill  string // empty means unstyled

	// Marker distinguishes outside-perimeter destinations.
	Marker bool
}

type Edge struct {
	From string
	To   string
}

// Graph is the flow diagram for one interface (or the floating aggregate).
// It is built fresh on every run that passes the change gate and never
// mutated afterwards.
type Graph struct {
	Gateway   string
	Interface string
	Floating  bool
	Nodes     []Node
	Edges     []Edge
}

// Section returns the diagram's section label, gateway-scoped.
func (g *Graph) Section() string {
	return g.Gateway + "/" + g.Interface
}

// Build produces one graph per interface in discovery order, plus a trailing
// floating-rules graph when floating rules exist. Interfaces that carry no
// rules produce no graph.
func Build(set *model.RuleSet) []*Graph {
	grouped := set.ByInterface()

	var order []string
	seen := make(map[string]bool)
	for _, iface := range set.Interfaces {
		if !seen[iface.Label] {
			seen[iface.Label] = true
			order = append(order, iface.Label)
		}
	}
	// Interfaces referenced by rules but absent from the discovery order
	// still get a section, after the discovered ones.
	for _, r := range set.Rules {
		if r.Floating || r.Interface.Label == "" || seen[r.Interface.Label] {
			continue
		}
		seen[r.Interface.Label] = true
		order = append(order, r.Interface.Label)
	}

	var graphs []*Graph
	for _, label := range order {
		rules := grouped[label]
		if len(rules) == 0 {
			continue
		}
		graphs = append(graphs, buildGraph(set.Gateway, label, false, rules))
	}
	if floating := set.FloatingRules(); len(floating) > 0 {
		graphs = append(graphs, buildGraph(set.Gateway, FloatingSection, true, floating))
	}
	return graphs
}

// builder tracks node identity while a graph is assembled. Endpoint nodes
// are deduplicated by label so fan-in/fan-out stays visible; every other
// node, and every edge, is per-rule.
type builder struct {
	graph     *Graph
	endpoints map[string]string // label -> node ID
	gateways  map[string]string
}

func buildGraph(gateway, iface string, floating bool, rules []model.Rule) *Graph {
	b := &builder{
		graph:     &Graph{Gateway: gateway, Interface: iface, Floating: floating},
		endpoints: make(map[string]string),
		gateways:  make(map[string]string),
	}
	for _, r := range rules {
		b.addRule(gateway, iface, r)
	}
	return b.graph
}

func (b *builder) addRule(gateway, iface string, r model.Rule) {
	// The outside-perimeter marker is a destination property only.
	src := b.endpointNode("SOURCE | "+endpointLabel(r.Source), false)

	gwLabel := "GATEWAY | " + gateway + "/" + iface
	gw, ok := b.gateways[gwLabel]
	if !ok {
		gw = b.newNode(gwLabel, "", false)
		b.gateways[gwLabel] = gw
	}

	action := b.newNode(actionLabel(r), actionFill(r), false)
	proto := b.newNode("PROTOCOL | "+r.Protocol, "", false)
	port := b.newNode("PORT | "+portLabel(r), "", false)
	dst := b.endpointNode(endpointLabel(r.Destination), r.Destination.OutsidePerimeter)

	b.graph.Edges = append(b.graph.Edges,
		Edge{src, gw}, Edge{gw, action}, Edge{action, proto},
		Edge{proto, port}, Edge{port, dst},
	)
}

func (b *builder) endpointNode(label string, marker bool) string {
	if id, ok := b.endpoints[label]; ok {
		if marker {
			b.markNode(id)
		}
		return id
	}
	id := b.newNode(label, "", marker)
	b.endpoints[label] = id
	return id
}

func (b *builder) newNode(label, fill string, marker bool) string {
	id := nodeID(len(b.graph.Nodes))
	b.graph.Nodes = append(b.graph.Nodes, Node{ID: id, Label: label, Fill: fill, Marker: marker})
	return id
}

func (b *builder) markNode(id string) {
	for i := range b.graph.Nodes {
		if b.graph.Nodes[i].ID == id {
			b.graph.Nodes[i].Marker = true
			return
		}
	}
}

func nodeID(index int) string {
	return "n" + strconv.Itoa(index)
}

func actionFill(r model.Rule) string {
	if !r.Enabled.Active() {
		return ColorDisabled
	}
	switch r.Action {
	case model.Pass:
		return ColorPass
	default:
		return ColorBlock
	}
}

func actionLabel(r model.Rule) string {
	label := "ACTION | " + string(r.Action)
	switch r.Enabled {
	case model.Disabled:
		label += " | Rule disabled"
	case model.AssumedEnabled:
		label += " | enabled: assumed"
	}
	return label
}

func endpointLabel(e model.Endpoint) string {
	label := e.Label
	if label == "" {
		label = anyLabel
	}
	if e.Network != "" {
		label += " | " + e.Network
	}
	return label
}

func portLabel(r model.Rule) string {
	if len(r.Ports) == 0 {
		return anyLabel
	}
	annotated := make([]string, 0, len(r.Ports))
	for _, p := range r.Ports {
		annotated = append(annotated, wellknown.Annotate(p, r.Protocol))
	}
	return strings.Join(annotated, ", ")
}
