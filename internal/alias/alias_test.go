package alias

import (
	"strings"
	"testing"
)

func TestResolveKnownAndFallback(t *testing.T) {
	b := NewBuilder()
	b.Add(Interface, "opt1", "DMZ")
	b.Add(Network, "srv_net", "Server Network")
	table := b.Build()

	if got := table.Resolve(Interface, "opt1"); got != "DMZ" {
		t.Errorf("expected DMZ, got %s", got)
	}
	if table.Fallbacks() != 0 {
		t.Errorf("expected no fallbacks yet, got %d", table.Fallbacks())
	}

	// Unknown key must resolve to itself, never fail.
	if got := table.Resolve(Interface, "opt9"); got != "opt9" {
		t.Errorf("expected raw key fallback, got %s", got)
	}
	if table.Fallbacks() != 1 {
		t.Errorf("expected 1 fallback, got %d", table.Fallbacks())
	}

	// Same raw key under a different category is a distinct entry.
	if got := table.Resolve(Network, "opt1"); got != "opt1" {
		t.Errorf("expected category-scoped miss, got %s", got)
	}

	byCat := table.FallbacksByCategory()
	if byCat[Interface] != 1 || byCat[Network] != 1 {
		t.Errorf("unexpected per-category fallbacks %v", byCat)
	}
	if table.Fallbacks() != 2 {
		t.Errorf("expected 2 total fallbacks, got %d", table.Fallbacks())
	}
}

func TestStaticOverridesFetched(t *testing.T) {
	b := NewBuilder()
	b.Add(Network, "lan_net", "lan_net auto")
	b.AddStatic(Network, "lan_net", "Office LAN")
	table := b.Build()

	if got := table.Resolve(Network, "lan_net"); got != "Office LAN" {
		t.Errorf("expected operator override to win, got %s", got)
	}
}

func TestAnySentinelSeeded(t *testing.T) {
	table := NewBuilder().Build()
	if got := table.Resolve(Misc, AnySentinelKey); got != DefaultAnyLabel {
		t.Errorf("expected seeded %q, got %q", DefaultAnyLabel, got)
	}

	b := NewBuilder()
	b.AddStatic(Misc, AnySentinelKey, "anywhere")
	if got := b.Build().Resolve(Misc, AnySentinelKey); got != "anywhere" {
		t.Errorf("expected configured any label, got %q", got)
	}
}

func TestLookupDoesNotCountMisses(t *testing.T) {
	table := NewBuilder().Build()
	if _, ok := table.Lookup(Port, "https_ports"); ok {
		t.Fatal("expected lookup miss")
	}
	if table.Fallbacks() != 0 {
		t.Errorf("Lookup must not count fallbacks, got %d", table.Fallbacks())
	}
}

func TestLoadCSV(t *testing.T) {
	data := strings.Join([]string{
		"category,key,label",
		"interface,wan,Internet Uplink",
		"network,dmz_net,DMZ Network",
		"port,8443,Admin HTTPS",
		"bogus,x,y",
		"network,,missing key",
		"short,row",
	}, "\n")

	b := NewBuilder()
	loaded, err := LoadCSV(b, strings.NewReader(data))
	if err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}
	if loaded != 3 {
		t.Errorf("expected 3 records loaded, got %d", loaded)
	}

	table := b.Build()
	if got := table.Resolve(Interface, "wan"); got != "Internet Uplink" {
		t.Errorf("unexpected interface label %q", got)
	}
	if got := table.Resolve(Port, "8443"); got != "Admin HTTPS" {
		t.Errorf("unexpected port label %q", got)
	}
}

func TestLoadCSVMissingHeader(t *testing.T) {
	if _, err := LoadCSV(NewBuilder(), strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty reader")
	}
}

func TestKeysSorted(t *testing.T) {
	b := NewBuilder()
	b.Add(Interface, "wan", "WAN")
	b.Add(Interface, "lan", "LAN")
	b.Add(Network, "n1", "N1")
	table := b.Build()

	keys := table.Keys(Interface)
	if len(keys) != 2 || keys[0] != "lan" || keys[1] != "wan" {
		t.Errorf("unexpected keys %v", keys)
	}
}
