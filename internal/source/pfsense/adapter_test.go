package pfsense

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/ozskywalker/frc2g/internal/alias"
	"github.com/ozskywalker/frc2g/internal/model"
)

func testTable() *alias.Table {
	b := alias.NewBuilder()
	b.Add(alias.Interface, "lan", "LAN")
	b.Add(alias.Interface, "opt1", "DMZ")
	b.Add(alias.Network, "guest_net", "Guest WiFi")
	b.Add(alias.Address, "web_srv", "Web server")
	b.Add(alias.Port, "web_ports", "80, 443")
	return b.Build()
}

func TestAdaptFullRule(t *testing.T) {
	raw := []RawRule{{
		Tracker:         "100001",
		Interface:       "lan",
		Type:            "pass",
		Protocol:        "tcp",
		Source:          "lan",
		Destination:     "web_srv",
		DestinationPort: "web_ports",
		Descr:           "allow web",
	}}
	rules, report := Adapter{}.Adapt(raw, testTable())
	if len(report.SkippedRules) != 0 {
		t.Fatalf("unexpected skips: %+v", report.SkippedRules)
	}
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	r := rules[0]
	if r.ID != "100001" {
		t.Errorf("ID = %q", r.ID)
	}
	if r.Interface.Label != "LAN" || r.Interface.Raw != "lan" {
		t.Errorf("interface = %+v", r.Interface)
	}
	if r.Action != model.Pass || r.Enabled != model.Enabled {
		t.Errorf("action/enabled = %s/%s", r.Action, r.Enabled)
	}
	if r.Protocol != "TCP" {
		t.Errorf("protocol = %q", r.Protocol)
	}
	if r.Source.Label != "LAN" || r.Source.Class != model.ClassNetwork {
		t.Errorf("source = %+v", r.Source)
	}
	if r.Destination.Label != "Web server" || r.Destination.Class != model.ClassHost {
		t.Errorf("destination = %+v", r.Destination)
	}
	if len(r.Ports) != 1 || r.Ports[0] != "80, 443" {
		t.Errorf("ports = %v", r.Ports)
	}
}

func TestAdaptActionMapping(t *testing.T) {
	tests := []struct {
		typ  string
		want model.Action
	}{
		{"pass", model.Pass},
		{"PASS", model.Pass},
		{"block", model.Block},
		{"reject", model.Block},
	}
	for _, tt := range tests {
		rules, report := Adapter{}.Adapt([]RawRule{{Type: tt.typ, Interface: "lan"}}, testTable())
		if len(rules) != 1 || len(report.SkippedRules) != 0 {
			t.Errorf("type %q: rule not adapted", tt.typ)
			continue
		}
		if rules[0].Action != tt.want {
			t.Errorf("type %q: action = %s, want %s", tt.typ, rules[0].Action, tt.want)
		}
	}
}

func TestAdaptSkipsMalformedAndKeepsRest(t *testing.T) {
	raw := []RawRule{
		{Type: "pass", Interface: "lan"},
		{Type: "", Interface: "lan"},           // missing type
		{Type: "quarantine", Interface: "lan"}, // unknown type
		{Type: "block"},                        // missing interface, not floating
		{Type: "block", Interface: "opt1"},
	}
	rules, report := Adapter{}.Adapt(raw, testTable())
	if len(rules) != 2 {
		t.Errorf("expected 2 surviving rules, got %d", len(rules))
	}
	if len(report.SkippedRules) != 3 {
		t.Fatalf("expected 3 skips, got %d", len(report.SkippedRules))
	}
	if report.SkippedRules[0].Reason != "missing rule type" {
		t.Errorf("skip reason = %q", report.SkippedRules[0].Reason)
	}
	if report.SkippedRules[0].Index != 1 {
		t.Errorf("skip index = %d", report.SkippedRules[0].Index)
	}
}

func TestAdaptFloatingRuleNeedsNoInterface(t *testing.T) {
	rules, report := Adapter{}.Adapt([]RawRule{{Type: "block", Floating: true}}, testTable())
	if len(report.SkippedRules) != 0 || len(rules) != 1 {
		t.Fatalf("floating rule should adapt: %+v", report.SkippedRules)
	}
	if !rules[0].Floating {
		t.Error("floating flag lost")
	}
}

func TestAdaptIDPrecedence(t *testing.T) {
	tests := []struct {
		name  string
		entry RawRule
		want  string
	}{
		{"tracker wins", RawRule{Tracker: "t1", ID: "i1", Type: "pass", Interface: "lan"}, "t1"},
		{"id next", RawRule{ID: "i1", Type: "pass", Interface: "lan"}, "i1"},
		{"synthetic last", RawRule{Type: "pass", Interface: "lan"}, "lan#0"},
	}
	for _, tt := range tests {
		rules, _ := Adapter{}.Adapt([]RawRule{tt.entry}, testTable())
		if rules[0].ID != tt.want {
			t.Errorf("%s: ID = %q, want %q", tt.name, rules[0].ID, tt.want)
		}
	}
}

func TestAdaptDisabledState(t *testing.T) {
	rules, _ := Adapter{}.Adapt([]RawRule{{Type: "pass", Interface: "lan", Disabled: true}}, testTable())
	if rules[0].Enabled != model.Disabled {
		t.Errorf("enabled = %s", rules[0].Enabled)
	}
}

func TestAdaptVLANHintRecoversDestinationNetwork(t *testing.T) {
	tests := []struct {
		descr string
		want  string
	}{
		{"server in VLAN30", "VLAN 30"},
		{"host on vlan=guest", "VLAN guest"},
		{"Vlan 40 printer", "VLAN 40"},
		{"no hint here", ""},
	}
	for _, tt := range tests {
		raw := []RawRule{{Type: "pass", Interface: "lan", Destination: "db01", Descr: tt.descr}}
		rules, _ := Adapter{}.Adapt(raw, testTable())
		if rules[0].Destination.Network != tt.want {
			t.Errorf("descr %q: network = %q, want %q", tt.descr, rules[0].Destination.Network, tt.want)
		}
	}
}

func TestAdaptVLANHintDoesNotOverrideKnownNetwork(t *testing.T) {
	// A destination that already resolves to a network alias keeps it.
	raw := []RawRule{{Type: "pass", Interface: "lan", Destination: "guest_net", Descr: "see VLAN99"}}
	rules, _ := Adapter{}.Adapt(raw, testTable())
	if rules[0].Destination.Network != "" || rules[0].Destination.Label != "Guest WiFi" {
		t.Errorf("destination = %+v", rules[0].Destination)
	}
}

func TestAdaptEmptyProtocolMeansAny(t *testing.T) {
	rules, _ := Adapter{}.Adapt([]RawRule{{Type: "pass", Interface: "lan"}}, testTable())
	if rules[0].Protocol != "ANY" {
		t.Errorf("protocol = %q", rules[0].Protocol)
	}
}

func TestAdaptIsDeterministic(t *testing.T) {
	raw := []RawRule{
		{Tracker: "1", Interface: "lan", Type: "pass", Protocol: "tcp", Source: "lan", Destination: "web_srv", DestinationPort: "web_ports", Descr: "to VLAN30"},
		{Type: "block", Floating: true, Source: "any", Destination: "any"},
		{ID: "i2", Interface: "opt1", Type: "reject", Destination: "EXT_partner", Disabled: true},
	}
	table := testTable()
	first, _ := Adapter{}.Adapt(raw, table)
	for i := 0; i < 20; i++ {
		again, _ := Adapter{}.Adapt(raw, table)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("iteration %d: same payload adapted differently:\n%+v\nvs\n%+v", i, first, again)
		}
	}
}

func TestFlexStringAbsorbsScalarShapes(t *testing.T) {
	var payload struct {
		A FlexString `json:"a"`
		B FlexString `json:"b"`
		C FlexString `json:"c"`
		D FlexString `json:"d"`
	}
	data := `{"a": "lan", "b": 100001, "c": ["80", "443"], "d": null}`
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if payload.A != "lan" || payload.B != "100001" || payload.C != "80,443" || payload.D != "" {
		t.Errorf("got %+v", payload)
	}
}
