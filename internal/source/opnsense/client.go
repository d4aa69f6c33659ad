package opnsense

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/ozskywalker/frc2g/internal/alias"
	"github.com/ozskywalker/frc2g/internal/model"
	"github.com/ozskywalker/frc2g/internal/source"
)

// Config holds the OPNSense API connection settings.
type Config struct {
	Gateway string
	BaseURL string
	Key     string
	Secret  string

	// Interfaces is the operator-configured list, used only as the final
	// discovery tier when both automatic tiers fail.
	Interfaces []string

	HTTP source.HTTPConfig
}

// Client fetches rules and aliases from an OPNSense gateway and adapts them.
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
		logger: logger.With("gateway", cfg.Gateway, "vendor", "opnsense"),
	}
}

func (c *Client) Gateway() string {
	return c.cfg.Gateway
}

func (c *Client) auth(req *http.Request) {
	req.SetBasicAuth(c.cfg.Key, c.cfg.Secret)
}

func (c *Client) getJSON(ctx context.Context, path string, result any) error {
	return source.GetJSON(ctx, c.http, strings.TrimRight(c.cfg.BaseURL, "/")+path, c.auth, result)
}

// FetchAliases loads enabled host/network/port aliases and interface
// descriptions into the run's alias builder.
func (c *Client) FetchAliases(ctx context.Context, b *alias.Builder) error {
	var resp aliasGetResponse
	if err := c.getJSON(ctx, "/api/firewall/alias/get", &resp); err != nil {
		return &source.FetchError{Gateway: c.cfg.Gateway, Op: "fetch aliases", Err: err}
	}

	loaded := 0
	for _, a := range resp.Alias.Aliases.Alias {
		if a.Enabled != "1" || a.Name == "" {
			continue
		}
		name := strings.ToLower(a.Name)
		label := a.Description
		if label == "" {
			label = a.Name
		}
		switch a.selectedType() {
		case "host":
			b.Add(alias.Address, name, label)
		case "network":
			b.Add(alias.Network, name, label)
		case "port":
			content := strings.Join(a.selectedContent(), ", ")
			if content == "" {
				content = label
			}
			b.Add(alias.Port, name, content)
		default:
			continue
		}
		loaded++
	}
	c.logger.Debug("aliases fetched", "count", loaded)

	var ifaces interfacesResponse
	if err := c.getJSON(ctx, "/api/interfaces/overview/interfaces_info", &ifaces); err != nil {
		// Interface labels degrade to raw keys; discovery has its own tiers.
		c.logger.Warn("interface description fetch failed", "error", err)
		return nil
	}
	for _, row := range ifaces.Rows {
		id := strings.ToLower(strings.TrimSpace(row.Identifier))
		if id == "" || systemInterfaces[id] || !row.Enabled {
			continue
		}
		label := strings.TrimSpace(row.Description)
		if label == "" {
			label = strings.TrimSpace(row.Config.Descr)
		}
		if label == "" {
			label = strings.ToUpper(id)
		}
		b.Add(alias.Interface, id, label)
	}
	return nil
}

// FetchRules discovers interfaces and fetches each interface's rules with
// one API call per interface, issued concurrently. A failed fetch for one
// interface does not cancel the others, but marks the set incomplete.
func (c *Client) FetchRules(ctx context.Context, table *alias.Table) (*model.RuleSet, *source.Report, error) {
	discovery := c.DiscoverInterfaces(ctx)
	report := &source.Report{DiscoveryNotes: discovery.TierErrors}
	if len(discovery.Interfaces) == 0 {
		return nil, report, &source.FetchError{
			Gateway: c.cfg.Gateway,
			Op:      "discover interfaces",
			Err:     errors.New(strings.Join(discovery.TierErrors, "; ")),
		}
	}

	rowsByInterface := make([][]RawRule, len(discovery.Interfaces))
	errsByInterface := make([]error, len(discovery.Interfaces))
	var wg sync.WaitGroup
	for i, iface := range discovery.Interfaces {
		wg.Add(1)
		go func(i int, iface string) {
			defer wg.Done()
			rowsByInterface[i], errsByInterface[i] = c.fetchRuleRows(ctx, iface)
		}(i, iface)
	}
	wg.Wait()

	complete := true
	seen := make(map[string]bool)
	var ordered []RawRule
	var floating []RawRule
	for i, iface := range discovery.Interfaces {
		if err := errsByInterface[i]; err != nil {
			report.FailedFetches = append(report.FailedFetches, source.FetchFailure{Interface: iface, Err: err})
			complete = false
			c.logger.Error("interface rule fetch failed", "interface", iface, "error", err)
			continue
		}
		for _, row := range rowsByInterface[i] {
			key := row.UUID
			if key == "" {
				key = row.Interface + "/" + row.Sequence + "/" + row.Description
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			if strings.TrimSpace(row.Interface) == "" {
				floating = append(floating, row)
			} else {
				ordered = append(ordered, row)
			}
		}
	}
	ordered = append(ordered, floating...)

	rules, adaptReport := c.adapter.Adapt(ordered, table)
	report.SkippedRules = adaptReport.SkippedRules
	c.logger.Info("rules adapted", "fetched", len(ordered), "adapted", len(rules),
		"skipped", len(report.SkippedRules), "failed_interfaces", len(report.FailedFetches))

	interfaces := make([]model.InterfaceRef, 0, len(discovery.Interfaces))
	for _, iface := range discovery.Interfaces {
		interfaces = append(interfaces, model.InterfaceRef{
			Label: table.Resolve(alias.Interface, iface),
			Raw:   iface,
		})
	}

	return &model.RuleSet{
		Gateway:    c.cfg.Gateway,
		Rules:      rules,
		Interfaces: interfaces,
		Complete:   complete,
	}, report, nil
}

// fetchRuleRows queries search_rule, optionally scoped to one interface.
func (c *Client) fetchRuleRows(ctx context.Context, iface string) ([]RawRule, error) {
	params := url.Values{"show_all": {"1"}}
	if iface != "" {
		params.Set("interface", iface)
	}
	var resp rulesResponse
	if err := c.getJSON(ctx, "/api/firewall/filter/search_rule?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Rows, nil
}
