package opnsense

import "sort"

// AnySentinel is the numeric sentinel OPNSense uses on the wire where a
// field means "any". It maps through the alias table's misc-tag category
// rather than a hardcoded display string.
const AnySentinel = "0"

// RawRule is one row as returned by /api/firewall/filter/search_rule.
// Note what is absent: OPNSense does not expose disabled state for existing
// rules at all, so the adapter reports those rules as assumed enabled.
type RawRule struct {
	UUID            string `json:"uuid"`
	Sequence        string `json:"sequence"`
	Interface       string `json:"interface"`
	Action          string `json:"action"`
	Protocol        string `json:"protocol"`
	SourceNet       string `json:"source_net"`
	DestinationNet  string `json:"destination_net"`
	DestinationPort string `json:"destination_port"`
	Description     string `json:"description"`
}

type rulesResponse struct {
	Rows []RawRule `json:"rows"`
}

// Alias payloads use OPNSense's selection-map convention: the alias type
// and contents are maps where the chosen entries carry selected=1.
type aliasGetResponse struct {
	Alias struct {
		Aliases struct {
			Alias map[string]rawAlias `json:"alias"`
		} `json:"aliases"`
	} `json:"alias"`
}

type rawAlias struct {
	Enabled     string                 `json:"enabled"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Type        map[string]selectEntry `json:"type"`
	Content     map[string]selectEntry `json:"content"`
}

type selectEntry struct {
	Selected int    `json:"selected"`
	Value    string `json:"value"`
}

// Selection maps decode into Go maps, whose iteration order is randomized.
// Both accessors sort so the same payload always yields the same result;
// otherwise a multi-entry port alias would join in a different order on
// every run and the change detector would see a phantom change.
func (a rawAlias) selectedType() string {
	var names []string
	for name, entry := range a.Type {
		if entry.Selected == 1 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return names[0]
}

func (a rawAlias) selectedContent() []string {
	var values []string
	for key, entry := range a.Content {
		if entry.Selected != 1 {
			continue
		}
		if entry.Value != "" {
			values = append(values, entry.Value)
		} else {
			values = append(values, key)
		}
	}
	sort.Strings(values)
	return values
}

type interfacesResponse struct {
	Rows []rawInterface `json:"rows"`
}

type rawInterface struct {
	Identifier  string `json:"identifier"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
	Config      struct {
		Descr string `json:"descr"`
		If    string `json:"if"`
	} `json:"config"`
}
