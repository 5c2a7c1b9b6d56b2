// Package config loads the gateway configuration from a TOML or YAML file,
// the environment and command-line flags, in that order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/venturelab/adsgw/internal/logger"
	"github.com/venturelab/adsgw/internal/tty"
)

const (
	// DefaultListen binds every interface, which a container needs for its
	// port mapping. LocalListen is used on a bare host.
	DefaultListen     = ":8080"
	LocalListen       = "127.0.0.1:8080"
	DefaultTool       = "search"
	DefaultTimeout    = 60 * time.Second
	DefaultClientName = "default"
	DefaultConfigFile = "adsgw.toml"
)

var logConfig = logger.New("config:config")

// Config is the complete gateway configuration.
type Config struct {
	Gateway  GatewayConfig  `toml:"gateway" yaml:"gateway"`
	Upstream UpstreamConfig `toml:"upstream" yaml:"upstream"`
	Ads      AdsConfig      `toml:"ads" yaml:"ads"`
	Logging  LoggingConfig  `toml:"logging" yaml:"logging"`
}

// GatewayConfig configures the inbound HTTP surface.
type GatewayConfig struct {
	Listen string `toml:"listen" yaml:"listen" validate:"required"`
	// APIKey guards every /api route. Empty disables authentication.
	APIKey string `toml:"api_key" yaml:"api_key"`
}

// UpstreamConfig points at the remote tool host.
type UpstreamConfig struct {
	URL     string            `toml:"url" yaml:"url" validate:"required,http_url"`
	Tool    string            `toml:"tool" yaml:"tool" validate:"required"`
	Timeout time.Duration     `toml:"timeout" yaml:"timeout" validate:"gt=0"`
	Retries int               `toml:"retries" yaml:"retries" validate:"min=0,max=10"`
	Token   string            `toml:"token" yaml:"token"`
	Headers map[string]string `toml:"headers" yaml:"headers"`
}

// AdsConfig describes the advertising account searched by default.
type AdsConfig struct {
	Client          string `toml:"client" yaml:"client"`
	CustomerID      string `toml:"customer_id" yaml:"customer_id" validate:"omitempty,numeric"`
	LoginCustomerID string `toml:"login_customer_id" yaml:"login_customer_id" validate:"omitempty,numeric"`
}

// LoggingConfig configures the file and JSONL loggers.
type LoggingConfig struct {
	Dir string `toml:"dir" yaml:"dir"`
}

// Default returns a configuration with every optional field filled in.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{Listen: defaultListen()},
		Upstream: UpstreamConfig{
			Tool:    DefaultTool,
			Timeout: DefaultTimeout,
		},
		Ads:     AdsConfig{Client: DefaultClientName},
		Logging: LoggingConfig{Dir: "/tmp/adsgw-logs"},
	}
}

func defaultListen() string {
	if tty.IsRunningInContainer() {
		return DefaultListen
	}
	return LocalListen
}

// Load reads path on top of the defaults and applies environment overrides.
// A missing file is not an error. The result is not validated; callers
// apply flag overrides first and then call Validate.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logConfig.Printf("Config file %s not found, using defaults", path)
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			log.Printf("Reading configuration from %s...", path)
			if err := decodeFile(path, data, cfg); err != nil {
				return nil, err
			}
		}
	}

	applyEnv(cfg)
	cfg.Normalize()
	logConfig.Printf("Configuration loaded: upstream=%s, tool=%s, listen=%s", cfg.Upstream.URL, cfg.Upstream.Tool, cfg.Gateway.Listen)
	return cfg, nil
}

// Normalize trims values and strips the dashes operators commonly copy
// along with account ids ("123-456-7890").
func (c *Config) Normalize() {
	c.Gateway.Listen = strings.TrimSpace(c.Gateway.Listen)
	c.Upstream.URL = strings.TrimSpace(c.Upstream.URL)
	c.Upstream.Tool = strings.TrimSpace(c.Upstream.Tool)
	c.Ads.CustomerID = stripDashes(c.Ads.CustomerID)
	c.Ads.LoginCustomerID = stripDashes(c.Ads.LoginCustomerID)
}

func stripDashes(id string) string {
	return strings.ReplaceAll(strings.TrimSpace(id), "-", "")
}

// decodeFile expands ${VAR} references, checks the document against the
// embedded schema and decodes it into cfg. The format follows the extension.
func decodeFile(path string, data []byte, cfg *Config) error {
	data, err := expandRawVariables(data)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return decodeYAML(data, cfg)
	default:
		return decodeTOML(data, cfg)
	}
}

func decodeTOML(data []byte, cfg *Config) error {
	var doc map[string]any
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return fmt.Errorf("failed to parse TOML config: %w", err)
	}
	if err := validateSchema(doc); err != nil {
		return err
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		logConfig.Printf("Ignoring undecoded keys: %v", undecoded)
	}
	return nil
}

func decodeYAML(data []byte, cfg *Config) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := validateSchema(doc); err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode YAML config: %w", err)
	}
	return nil
}
