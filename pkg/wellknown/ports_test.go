package wellknown

import "testing"

func TestServiceName(t *testing.T) {
	tests := []struct {
		port     int
		protocol string
		want     string
		found    bool
	}{
		{443, "tcp", "https", true},
		{443, "TCP", "https", true},
		{22, "tcp", "ssh", true},
		{53, "udp", "domain", true},
		{22, "udp", "", false},
		{443, "any", "https", true}, // non-tcp/udp prefers the tcp entry
		{49999, "tcp", "", false},
	}
	for _, tt := range tests {
		got, ok := ServiceName(tt.port, tt.protocol)
		if ok != tt.found || got != tt.want {
			t.Errorf("ServiceName(%d, %q) = %q, %v; want %q, %v", tt.port, tt.protocol, got, ok, tt.want, tt.found)
		}
	}
}

func TestAnnotate(t *testing.T) {
	tests := []struct {
		label    string
		protocol string
		want     string
	}{
		{"443", "tcp", "443 (https)"},
		{" 443 ", "tcp", " 443  (https)"},
		{"49999", "tcp", "49999"},
		{"8000-9000", "tcp", "8000-9000"},
		{"web_ports", "tcp", "web_ports"},
		{"", "tcp", ""},
	}
	for _, tt := range tests {
		if got := Annotate(tt.label, tt.protocol); got != tt.want {
			t.Errorf("Annotate(%q, %q) = %q, want %q", tt.label, tt.protocol, got, tt.want)
		}
	}
}
