package source

import (
	"strings"

	"github.com/ozskywalker/frc2g/internal/alias"
	"github.com/ozskywalker/frc2g/internal/model"
)

// outsidePerimeterPrefix marks aliases whose targets live beyond the managed
// perimeter (operator convention, e.g. "EXT_SERVER1").
const outsidePerimeterPrefix = "ext_"

// ResolveEndpoint turns a raw source/destination value into a resolved
// endpoint. Lookup precedence mirrors the alias categories: interface
// networks first, then network aliases, then host/address aliases; a bare
// CIDR classifies as network and anything left classifies as host.
func ResolveEndpoint(table *alias.Table, raw string) model.Endpoint {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" || key == "any" || key == "*" {
		return model.Endpoint{
			Label: table.Resolve(alias.Misc, alias.AnySentinelKey),
			Raw:   raw,
			Class: model.ClassAny,
		}
	}

	ep := model.Endpoint{Raw: raw, OutsidePerimeter: strings.HasPrefix(key, outsidePerimeterPrefix)}

	if label, ok := table.Lookup(alias.Interface, key); ok {
		ep.Label = label
		ep.Class = model.ClassNetwork
		return ep
	}
	if label, ok := table.Lookup(alias.Network, key); ok {
		ep.Label = label
		ep.Class = model.ClassNetwork
		return ep
	}
	if label, ok := table.Lookup(alias.Address, key); ok {
		ep.Label = label
		ep.Class = model.ClassHost
		return ep
	}

	// Unmapped values keep the raw spelling; the table counts the fallback.
	ep.Label = table.Resolve(alias.Address, key)
	if strings.Contains(key, "/") {
		ep.Class = model.ClassNetwork
	} else {
		ep.Class = model.ClassHost
	}
	return ep
}

// ResolvePorts splits a raw port field ("443", "80,443", "8000-9000", alias
// names) into resolved labels. An empty field means any and yields nil.
func ResolvePorts(table *alias.Table, raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var ports []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ports = append(ports, table.Resolve(alias.Port, strings.ToLower(part)))
	}
	return ports
}
