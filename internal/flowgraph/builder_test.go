package flowgraph

import (
	"strings"
	"testing"

	"github.com/ozskywalker/frc2g/internal/model"
)

func passRule(id, iface, dst string) model.Rule {
	return model.Rule{
		ID:          id,
		Interface:   model.InterfaceRef{Raw: strings.ToLower(iface), Label: iface},
		Action:      model.Pass,
		Enabled:     model.Enabled,
		Protocol:    "TCP",
		Source:      model.Endpoint{Label: iface + " net", Class: model.ClassNetwork},
		Destination: model.Endpoint{Label: dst, Class: model.ClassHost},
		Ports:       []string{"443"},
	}
}

func testSet(rules ...model.Rule) *model.RuleSet {
	return &model.RuleSet{
		Gateway: "edge-fw",
		Rules:   rules,
		Interfaces: []model.InterfaceRef{
			{Raw: "lan", Label: "LAN"},
			{Raw: "wan", Label: "WAN"},
		},
		Complete: true,
	}
}

func findNode(t *testing.T, g *Graph, label string) Node {
	t.Helper()
	for _, n := range g.Nodes {
		if n.Label == label {
			return n
		}
	}
	t.Fatalf("node %q not found in graph %s", label, g.Section())
	return Node{}
}

func TestBuildOneGraphPerInterfaceInDiscoveryOrder(t *testing.T) {
	set := testSet(
		passRule("r1", "WAN", "mail"),
		passRule("r2", "LAN", "web"),
	)
	graphs := Build(set)
	if len(graphs) != 2 {
		t.Fatalf("expected 2 graphs, got %d", len(graphs))
	}
	// Discovery order, not rule order.
	if graphs[0].Interface != "LAN" || graphs[1].Interface != "WAN" {
		t.Errorf("expected LAN then WAN, got %s then %s", graphs[0].Interface, graphs[1].Interface)
	}
	if graphs[0].Section() != "edge-fw/LAN" {
		t.Errorf("unexpected section label %q", graphs[0].Section())
	}
}

func TestBuildSkipsInterfacesWithoutRules(t *testing.T) {
	set := testSet(passRule("r1", "LAN", "web"))
	graphs := Build(set)
	if len(graphs) != 1 {
		t.Fatalf("expected 1 graph, got %d", len(graphs))
	}
	if graphs[0].Interface != "LAN" {
		t.Errorf("expected LAN, got %s", graphs[0].Interface)
	}
}

func TestBuildFloatingGraphComesLast(t *testing.T) {
	floating := passRule("f1", "", "anywhere")
	floating.Floating = true
	floating.Interface = model.InterfaceRef{}
	set := testSet(passRule("r1", "WAN", "mail"), floating)

	graphs := Build(set)
	if len(graphs) != 2 {
		t.Fatalf("expected 2 graphs, got %d", len(graphs))
	}
	last := graphs[len(graphs)-1]
	if !last.Floating || last.Interface != FloatingSection {
		t.Errorf("expected trailing floating graph, got %+v", last)
	}
}

func TestEndpointNodesDeduplicatedEdgesNever(t *testing.T) {
	r1 := passRule("r1", "LAN", "web")
	r2 := passRule("r2", "LAN", "web")
	r2.Ports = []string{"80"}
	graphs := Build(testSet(r1, r2))
	g := graphs[0]

	dsts := 0
	for _, n := range g.Nodes {
		if n.Label == "web" {
			dsts++
		}
	}
	if dsts != 1 {
		t.Errorf("expected shared destination node, got %d", dsts)
	}
	// Each rule contributes its full 5-edge chain.
	if len(g.Edges) != 10 {
		t.Errorf("expected 10 edges, got %d", len(g.Edges))
	}
}

func TestActionNodeColors(t *testing.T) {
	pass := passRule("r1", "LAN", "web")
	block := passRule("r2", "LAN", "web")
	block.Action = model.Block
	disabled := passRule("r3", "LAN", "web")
	disabled.Enabled = model.Disabled

	g := Build(testSet(pass, block, disabled))[0]

	if n := findNode(t, g, "ACTION | PASS"); n.Fill != ColorPass {
		t.Errorf("pass action fill = %q", n.Fill)
	}
	if n := findNode(t, g, "ACTION | BLOCK"); n.Fill != ColorBlock {
		t.Errorf("block action fill = %q", n.Fill)
	}
	// Disabled wins over the action color.
	if n := findNode(t, g, "ACTION | PASS | Rule disabled"); n.Fill != ColorDisabled {
		t.Errorf("disabled action fill = %q", n.Fill)
	}
}

func TestDisablingOneRuleChangesOnlyItsActionNode(t *testing.T) {
	before := Build(testSet(passRule("r1", "LAN", "web"), passRule("r2", "LAN", "web")))[0]

	r2 := passRule("r2", "LAN", "web")
	r2.Enabled = model.Disabled
	after := Build(testSet(passRule("r1", "LAN", "web"), r2))[0]

	if len(before.Nodes) != len(after.Nodes) {
		t.Fatalf("node count changed: %d vs %d", len(before.Nodes), len(after.Nodes))
	}
	changed := 0
	for i := range before.Nodes {
		if before.Nodes[i] != after.Nodes[i] {
			changed++
		}
	}
	if changed != 1 {
		t.Errorf("expected exactly one node to differ, got %d", changed)
	}
}

func TestAssumedEnabledAnnotatedButActionColored(t *testing.T) {
	r := passRule("r1", "LAN", "web")
	r.Enabled = model.AssumedEnabled
	g := Build(testSet(r))[0]

	n := findNode(t, g, "ACTION | PASS | enabled: assumed")
	if n.Fill != ColorPass {
		t.Errorf("assumed-enabled rule should keep the action color, got %q", n.Fill)
	}
}

func TestOutsidePerimeterDestinationGetsMarker(t *testing.T) {
	r := passRule("r1", "WAN", "EXT_partner")
	r.Destination.OutsidePerimeter = true
	g := Build(testSet(r))[0]

	if n := findNode(t, g, "EXT_partner"); !n.Marker {
		t.Error("outside-perimeter destination should carry the marker")
	}
}

func TestOutsidePerimeterSourceGetsNoMarker(t *testing.T) {
	r := passRule("r1", "WAN", "web")
	r.Source = model.Endpoint{Label: "EXT_vendor", Class: model.ClassHost, OutsidePerimeter: true}
	g := Build(testSet(r))[0]

	if n := findNode(t, g, "SOURCE | EXT_vendor"); n.Marker {
		t.Error("the marker belongs to destination nodes only")
	}
}

func TestNetworkHintAppearsInEndpointLabel(t *testing.T) {
	r := passRule("r1", "LAN", "db01")
	r.Destination.Network = "VLAN 30"
	g := Build(testSet(r))[0]
	findNode(t, g, "db01 | VLAN 30")
}

func TestPortLabelAnnotatesWellKnownPorts(t *testing.T) {
	r := passRule("r1", "LAN", "web")
	r.Ports = []string{"443", "8443"}
	g := Build(testSet(r))[0]
	findNode(t, g, "PORT | 443 (https), 8443")

	anyPorts := passRule("r2", "LAN", "web2")
	anyPorts.Ports = nil
	g = Build(testSet(anyPorts))[0]
	findNode(t, g, "PORT | Any")
}

func TestDOTOutput(t *testing.T) {
	r := passRule("r1", "LAN", "web")
	r.Enabled = model.Disabled
	r.Destination.OutsidePerimeter = true
	dot := Build(testSet(r))[0].DOT()

	for _, want := range []string{
		"digraph flows {",
		"rankdir=LR;",
		"shape=record",
		"label=\"GATEWAY : edge-fw/LAN\"",
		"fillcolor=\"" + ColorDisabled + "\"",
		"peripheries=2",
		"->",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q:\n%s", want, dot)
		}
	}
}

func TestDOTCleansRecordSpecialCharacters(t *testing.T) {
	r := passRule("r1", "LAN", "web")
	r.Destination.Label = "srv{a}<b>\"c\""
	dot := Build(testSet(r))[0].DOT()
	if strings.Contains(dot, "{a}") || strings.Contains(dot, "<b>") {
		t.Errorf("record characters leaked into DOT:\n%s", dot)
	}
}
