// Package wellknown maps well-known port numbers to service names, used to
// enrich port annotations in flow diagrams ("443 (https)").
package wellknown

import (
	"bytes"
	"encoding/csv"
	"io"
	"log"
	"strconv"
	"strings"

	_ "embed"
)

//go:embed well_known_ports.csv
var wellKnownPortsData string

type portKey struct {
	port  int
	proto string // "tcp" or "udp"
}

var serviceNames map[portKey]string

func init() {
	serviceNames = make(map[portKey]string)
	reader := csv.NewReader(bytes.NewBufferString(wellKnownPortsData))
	reader.TrimLeadingSpace = true
	// Skip header
	if _, err := reader.Read(); err != nil {
		log.Fatalf("Failed to read header from embedded well_known_ports.csv: %v", err)
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Failed to parse embedded well_known_ports.csv: %v", err)
		}
		if len(record) < 3 {
			continue
		}

		port, err := strconv.Atoi(record[0])
		if err != nil {
			continue
		}

		tcpName := strings.TrimSpace(record[1])
		if tcpName != "" && tcpName != "N/A" {
			serviceNames[portKey{port, "tcp"}] = tcpName
		}
		udpName := strings.TrimSpace(record[2])
		if udpName != "" && udpName != "N/A" {
			serviceNames[portKey{port, "udp"}] = udpName
		}
	}
}

// ServiceName returns the well-known service name for a port and protocol
// ("tcp"/"udp"). Any other protocol matches either entry, preferring TCP.
func ServiceName(port int, protocol string) (string, bool) {
	proto := strings.ToLower(protocol)
	if proto == "tcp" || proto == "udp" {
		name, ok := serviceNames[portKey{port, proto}]
		return name, ok
	}
	if name, ok := serviceNames[portKey{port, "tcp"}]; ok {
		return name, true
	}
	name, ok := serviceNames[portKey{port, "udp"}]
	return name, ok
}

// Annotate decorates a numeric port label with its service name when one is
// known: "443" becomes "443 (https)". Non-numeric labels (alias names,
// ranges) pass through unchanged.
func Annotate(portLabel, protocol string) string {
	port, err := strconv.Atoi(strings.TrimSpace(portLabel))
	if err != nil {
		return portLabel
	}
	if name, ok := ServiceName(port, protocol); ok {
		return portLabel + " (" + name + ")"
	}
	return portLabel
}
