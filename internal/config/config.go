// Package config loads and validates the YAML run configuration: the
// gateways to fetch, where fingerprints and rendered documents live, static
// alias overrides, and the optional evidence tracker.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// Gateway kinds understood by the pipeline.
	KindPfSense  = "pfsense"
	KindOPNSense = "opnsense"

	// Fingerprint store backends.
	StoreFile  = "file"
	StoreMySQL = "mysql"
)

type Config struct {
	Gateways    []Gateway   `yaml:"gateways"`
	Output      Output      `yaml:"output"`
	Fingerprint Fingerprint `yaml:"fingerprint"`
	Aliases     Aliases     `yaml:"aliases"`
	Evidence    Evidence    `yaml:"evidence"`
	HTTP        HTTP        `yaml:"http"`
}

type Gateway struct {
	Name    string `yaml:"name"`
	Kind    string `yaml:"kind"`
	BaseURL string `yaml:"base_url"`

	// pfSense auth.
	APIKey string `yaml:"api_key"`

	// OPNSense auth.
	Key    string `yaml:"key"`
	Secret string `yaml:"secret"`

	// Configured interface list, used as the discovery tier of last
	// resort for OPNSense gateways.
	Interfaces []string `yaml:"interfaces"`
}

type Output struct {
	Dir string `yaml:"dir"`
}

type Fingerprint struct {
	Store string `yaml:"store"`
	Dir   string `yaml:"dir"`
	DSN   string `yaml:"dsn"`
}

type Aliases struct {
	// CSVPath points at a "category,key,label" file of static overrides.
	CSVPath string `yaml:"csv_path"`
	// Static entries beat both the CSV file and anything fetched from a
	// gateway. Keys are "category/key".
	Static map[string]string `yaml:"static"`
	// AnyLabel overrides the label used for the wildcard endpoint.
	AnyLabel string `yaml:"any_label"`
}

type Evidence struct {
	BaseURL    string `yaml:"base_url"`
	Token      string `yaml:"token"`
	EvidenceID string `yaml:"evidence_id"`
}

type HTTP struct {
	RequestTimeout     Duration `yaml:"request_timeout"`
	ConnectTimeout     Duration `yaml:"connect_timeout"`
	InsecureSkipVerify bool     `yaml:"insecure_skip_verify"`
}

// Duration accepts Go duration strings ("30s", "1m") in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// ApplyDefaults fills in anything the operator left blank.
func (c *Config) ApplyDefaults() {
	if c.Output.Dir == "" {
		c.Output.Dir = "out"
	}
	if c.Fingerprint.Store == "" {
		c.Fingerprint.Store = StoreFile
	}
	if c.Fingerprint.Dir == "" {
		c.Fingerprint.Dir = ".fingerprints"
	}
	if c.HTTP.RequestTimeout == 0 {
		c.HTTP.RequestTimeout = Duration(30 * time.Second)
	}
	if c.HTTP.ConnectTimeout == 0 {
		c.HTTP.ConnectTimeout = Duration(10 * time.Second)
	}
}

// Validate rejects configurations the pipeline cannot act on.
func (c *Config) Validate() error {
	if len(c.Gateways) == 0 {
		return fmt.Errorf("config: no gateways defined")
	}
	seen := make(map[string]bool, len(c.Gateways))
	for i, gw := range c.Gateways {
		if gw.Name == "" {
			return fmt.Errorf("config: gateway %d has no name", i)
		}
		if seen[gw.Name] {
			return fmt.Errorf("config: duplicate gateway name %q", gw.Name)
		}
		seen[gw.Name] = true
		if gw.BaseURL == "" {
			return fmt.Errorf("config: gateway %q has no base_url", gw.Name)
		}
		switch gw.Kind {
		case KindPfSense:
			if gw.APIKey == "" {
				return fmt.Errorf("config: gateway %q needs api_key", gw.Name)
			}
		case KindOPNSense:
			if gw.Key == "" || gw.Secret == "" {
				return fmt.Errorf("config: gateway %q needs key and secret", gw.Name)
			}
		default:
			return fmt.Errorf("config: gateway %q has unknown kind %q", gw.Name, gw.Kind)
		}
	}
	switch c.Fingerprint.Store {
	case StoreFile:
	case StoreMySQL:
		if c.Fingerprint.DSN == "" {
			return fmt.Errorf("config: fingerprint store %q needs dsn", StoreMySQL)
		}
	default:
		return fmt.Errorf("config: unknown fingerprint store %q", c.Fingerprint.Store)
	}
	return nil
}

// Parse decodes a config document, applies defaults and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}
