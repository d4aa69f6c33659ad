package pfsense

import (
	"encoding/json"
	"strings"
)

// The pfSense REST API (v2) is loose about scalar types: identifiers arrive
// as numbers or strings, and a few fields are either a scalar or a list
// depending on firmware version. FlexString absorbs all of those shapes.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = []byte(strings.TrimSpace(string(data)))
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case '[':
		var parts []FlexString
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		joined := make([]string, 0, len(parts))
		for _, p := range parts {
			if p != "" {
				joined = append(joined, string(p))
			}
		}
		*f = FlexString(strings.Join(joined, ","))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = FlexString(n.String())
	}
	return nil
}

// RawRule is one rule entry as returned by /api/v2/firewall/rules.
type RawRule struct {
	Tracker         FlexString `json:"tracker"`
	ID              FlexString `json:"id"`
	Interface       FlexString `json:"interface"`
	Type            string     `json:"type"`
	Disabled        bool       `json:"disabled"`
	Floating        bool       `json:"floating"`
	Protocol        string     `json:"protocol"`
	Source          FlexString `json:"source"`
	Destination     FlexString `json:"destination"`
	DestinationPort FlexString `json:"destination_port"`
	Descr           string     `json:"descr"`
}

type rulesResponse struct {
	Data []RawRule `json:"data"`
}

type rawAlias struct {
	Name    string     `json:"name"`
	Type    string     `json:"type"`
	Address FlexString `json:"address"`
	Descr   string     `json:"descr"`
}

type aliasesResponse struct {
	Data []rawAlias `json:"data"`
}

type rawInterface struct {
	ID    string `json:"id"`
	Descr string `json:"descr"`
	If    string `json:"if"`
}

type interfacesResponse struct {
	Data []rawInterface `json:"data"`
}
