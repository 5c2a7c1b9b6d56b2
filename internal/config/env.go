package config

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/venturelab/adsgw/internal/logger/sanitize"
)

// Environment variables that override the config file.
const (
	EnvAPIToken        = "API_TOKEN"
	EnvPort            = "PORT"
	EnvUpstreamURL     = "MCP_URL"
	EnvUpstreamToken   = "MCP_TOKEN"
	EnvCustomerID      = "GOOGLE_ADS_CUSTOMER_ID"
	EnvLoginCustomerID = "GOOGLE_ADS_LOGIN_CUSTOMER_ID"
	EnvClientName      = "ADSGW_CLIENT_NAME"
	EnvLogDir          = "ADSGW_LOG_DIR"
)

func applyEnv(cfg *Config) {
	set := func(name string, dst *string) {
		if v, ok := os.LookupEnv(name); ok && strings.TrimSpace(v) != "" {
			logConfig.Printf("Override from %s", name)
			*dst = strings.TrimSpace(v)
		}
	}

	set(EnvAPIToken, &cfg.Gateway.APIKey)
	set(EnvUpstreamURL, &cfg.Upstream.URL)
	set(EnvUpstreamToken, &cfg.Upstream.Token)
	set(EnvCustomerID, &cfg.Ads.CustomerID)
	set(EnvLoginCustomerID, &cfg.Ads.LoginCustomerID)
	set(EnvClientName, &cfg.Ads.Client)
	set(EnvLogDir, &cfg.Logging.Dir)

	var port string
	set(EnvPort, &port)
	if port != "" {
		cfg.Gateway.Listen = ":" + port
	}
}

// LoadEnvFile reads KEY=VALUE lines from a .env file into the process
// environment. $VAR references in values are expanded.
func LoadEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	log.Printf("Loading environment from %s...", path)
	scanner := bufio.NewScanner(file)
	loadedVars := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = os.ExpandEnv(unquote(strings.TrimSpace(value)))

		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
		log.Printf("  Loaded: %s=%s", key, sanitize.TruncateSecret(value))
		loadedVars++
	}

	log.Printf("Loaded %d environment variables from %s", loadedVars, path)
	return scanner.Err()
}

func unquote(value string) string {
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') || (value[0] == '\'' && value[len(value)-1] == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}
