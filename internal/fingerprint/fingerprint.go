// Package fingerprint decides whether a gateway's canonical rule set changed
// since the last run. The digest is computed over a stable, order-preserving
// serialization, so reordering rules counts as a change while re-serializing
// the identical sequence never does.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/ozskywalker/frc2g/internal/model"
)

// Digest returns the hex SHA-256 of the canonical serialization of rules.
func Digest(rules []model.Rule) string {
	h := sha256.New()
	for _, r := range rules {
		h.Write([]byte(serializeRule(r)))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// serializeRule emits one rule as a fixed-field-order line. Free-text fields
// are quoted so embedded separators cannot collide across field boundaries.
func serializeRule(r model.Rule) string {
	fields := []string{
		strconv.Quote(r.ID),
		strconv.Quote(r.Interface.Raw),
		strconv.Quote(r.Interface.Label),
		string(r.Action),
		string(r.Enabled),
		r.Protocol,
		serializeEndpoint(r.Source),
		serializeEndpoint(r.Destination),
		strconv.Quote(strings.Join(r.Ports, ",")),
		strconv.Quote(r.Comment),
		strconv.FormatBool(r.Floating),
	}
	return strings.Join(fields, "|")
}

func serializeEndpoint(e model.Endpoint) string {
	return fmt.Sprintf("%s/%s/%s/%s/%t",
		string(e.Class), strconv.Quote(e.Label), strconv.Quote(e.Raw),
		strconv.Quote(e.Network), e.OutsidePerimeter)
}
