package pfsense

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ozskywalker/frc2g/internal/alias"
	"github.com/ozskywalker/frc2g/internal/model"
	"github.com/ozskywalker/frc2g/internal/source"
)

// Config holds the pfSense API connection settings.
type Config struct {
	Gateway string // display name used in section labels and fingerprints
	BaseURL string
	APIKey  string
	HTTP    source.HTTPConfig
}

// Client fetches rules and aliases from a pfSense gateway and adapts them.
type Client struct {
	cfg     Config
	http    *http.Client
	adapter Adapter
	logger  *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   source.NewHTTPClient(cfg.HTTP),
		logger: logger.With("gateway", cfg.Gateway, "vendor", "pfsense"),
	}
}

func (c *Client) Gateway() string {
	return c.cfg.Gateway
}

func (c *Client) auth(req *http.Request) {
	req.Header.Set("X-API-Key", c.cfg.APIKey)
}

func (c *Client) url(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + path
}

// FetchAliases loads firewall aliases and interface descriptions into the
// run's alias builder. Host and network aliases map to human descriptions;
// port aliases map to their expanded contents.
func (c *Client) FetchAliases(ctx context.Context, b *alias.Builder) error {
	var aliases aliasesResponse
	if err := source.GetJSON(ctx, c.http, c.url("/api/v2/firewall/aliases"), c.auth, &aliases); err != nil {
		return &source.FetchError{Gateway: c.cfg.Gateway, Op: "fetch aliases", Err: err}
	}
	for _, a := range aliases.Data {
		name := strings.ToLower(a.Name)
		label := a.Descr
		if label == "" {
			label = a.Name
		}
		switch a.Type {
		case "host":
			b.Add(alias.Address, name, label)
		case "network":
			b.Add(alias.Network, name, label)
		case "port":
			content := string(a.Address)
			if content == "" {
				content = label
			}
			b.Add(alias.Port, name, content)
		default:
			b.Add(alias.Network, name, label)
		}
	}
	c.logger.Debug("aliases fetched", "count", len(aliases.Data))

	var ifaces interfacesResponse
	if err := source.GetJSON(ctx, c.http, c.url("/api/v2/interfaces"), c.auth, &ifaces); err != nil {
		return &source.FetchError{Gateway: c.cfg.Gateway, Op: "fetch interfaces", Err: err}
	}
	for _, iface := range ifaces.Data {
		if iface.ID == "" {
			continue
		}
		label := strings.TrimSpace(iface.Descr)
		if label == "" {
			label = strings.ToUpper(iface.ID)
		}
		b.Add(alias.Interface, strings.ToLower(iface.ID), label)
	}
	c.logger.Debug("interfaces fetched", "count", len(ifaces.Data))
	return nil
}

// FetchRules retrieves the global rule list (pfSense exposes one call for
// all interfaces), deduplicates by tracker id, and adapts the result. Rule
// order in the response is evaluation order and is preserved.
func (c *Client) FetchRules(ctx context.Context, table *alias.Table) (*model.RuleSet, *source.Report, error) {
	var resp rulesResponse
	if err := source.GetJSON(ctx, c.http, c.url("/api/v2/firewall/rules"), c.auth, &resp); err != nil {
		return nil, nil, &source.FetchError{Gateway: c.cfg.Gateway, Op: "fetch rules", Err: err}
	}

	seen := make(map[string]bool)
	raw := make([]RawRule, 0, len(resp.Data))
	for i, entry := range resp.Data {
		id := string(entry.Tracker)
		if id == "" {
			id = string(entry.ID)
		}
		if id == "" {
			id = model.SyntheticID(strings.ToLower(string(entry.Interface)), i)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		raw = append(raw, entry)
	}

	rules, report := c.adapter.Adapt(raw, table)
	c.logger.Info("rules adapted", "fetched", len(resp.Data), "adapted", len(rules), "skipped", len(report.SkippedRules))

	return &model.RuleSet{
		Gateway:    c.cfg.Gateway,
		Rules:      rules,
		Interfaces: interfaceOrder(rules),
		Complete:   true,
	}, report, nil
}

// interfaceOrder records interfaces in the order they first appear in the
// evaluation sequence, which is the order sections are emitted in.
func interfaceOrder(rules []model.Rule) []model.InterfaceRef {
	var order []model.InterfaceRef
	seen := make(map[string]bool)
	for _, r := range rules {
		if r.Floating || r.Interface.Raw == "" || seen[r.Interface.Raw] {
			continue
		}
		seen[r.Interface.Raw] = true
		order = append(order, r.Interface)
	}
	return order
}
