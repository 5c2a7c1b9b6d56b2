package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandRawVariables(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		envVars   map[string]string
		expected  string
		shouldErr bool
	}{
		{
			name:     "simple variable",
			input:    `token = "${TEST_VAR}"`,
			envVars:  map[string]string{"TEST_VAR": "value"},
			expected: `token = "value"`,
		},
		{
			name:     "multiple variables",
			input:    "${VAR1}-${VAR2}",
			envVars:  map[string]string{"VAR1": "hello", "VAR2": "world"},
			expected: "hello-world",
		},
		{
			name:     "no variables",
			input:    "static-value",
			expected: "static-value",
		},
		{
			name:     "bare dollar is kept",
			input:    "$HOME and $",
			expected: "$HOME and $",
		},
		{
			name:      "undefined variable",
			input:     "${ADSGW_TEST_NOT_SET}",
			shouldErr: true,
		},
		{
			name:      "mixed defined and undefined",
			input:     "${DEFINED}-${ADSGW_TEST_NOT_SET}",
			envVars:   map[string]string{"DEFINED": "value"},
			shouldErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			result, err := expandRawVariables([]byte(tt.input))
			if tt.shouldErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "ADSGW_TEST_NOT_SET")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func validConfig() *Config {
	cfg := Default()
	cfg.Upstream.URL = "http://localhost:8000/mcp"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		jsonPath  string
		errMsg    string
	}{
		{name: "valid defaults plus url", mutate: func(*Config) {}},
		{
			name:     "missing upstream url",
			mutate:   func(c *Config) { c.Upstream.URL = "" },
			jsonPath: "upstream.url",
			errMsg:   "'url' is required",
		},
		{
			name:     "upstream url without scheme",
			mutate:   func(c *Config) { c.Upstream.URL = "localhost:8000/mcp" },
			jsonPath: "upstream.url",
			errMsg:   "is not an http(s) URL",
		},
		{
			name:     "empty tool",
			mutate:   func(c *Config) { c.Upstream.Tool = "" },
			jsonPath: "upstream.tool",
			errMsg:   "'tool' is required",
		},
		{
			name:     "zero timeout",
			mutate:   func(c *Config) { c.Upstream.Timeout = 0 },
			jsonPath: "upstream.timeout",
			errMsg:   "timeout must be positive",
		},
		{
			name:     "negative timeout",
			mutate:   func(c *Config) { c.Upstream.Timeout = -time.Second },
			jsonPath: "upstream.timeout",
			errMsg:   "timeout must be positive",
		},
		{
			name:     "too many retries",
			mutate:   func(c *Config) { c.Upstream.Retries = 11 },
			jsonPath: "upstream.retries",
			errMsg:   "retries must be between 0 and 10",
		},
		{
			name:     "negative retries",
			mutate:   func(c *Config) { c.Upstream.Retries = -1 },
			jsonPath: "upstream.retries",
			errMsg:   "retries must be between 0 and 10",
		},
		{
			name:     "customer id with letters",
			mutate:   func(c *Config) { c.Ads.CustomerID = "12ab" },
			jsonPath: "ads.customer_id",
			errMsg:   "must contain only digits",
		},
		{
			name:     "missing listen",
			mutate:   func(c *Config) { c.Gateway.Listen = "" },
			jsonPath: "gateway.listen",
			errMsg:   "'listen' is required",
		},
		{
			name:     "listen without port",
			mutate:   func(c *Config) { c.Gateway.Listen = "localhost" },
			jsonPath: "gateway.listen",
			errMsg:   "invalid listen address",
		},
		{
			name:     "listen with named port",
			mutate:   func(c *Config) { c.Gateway.Listen = ":http" },
			jsonPath: "gateway.listen",
			errMsg:   "invalid port",
		},
		{
			name:     "listen port out of range",
			mutate:   func(c *Config) { c.Gateway.Listen = ":70000" },
			jsonPath: "gateway.listen",
			errMsg:   "port must be between 1 and 65535",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.jsonPath, verr.JSONPath)
			assert.Contains(t, verr.Message, tt.errMsg)
		})
	}
}

func TestValidate_MissingURLSuggestsEnv(t *testing.T) {
	cfg := Default()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MCP_URL")
}

func TestNormalize(t *testing.T) {
	cfg := &Config{
		Gateway:  GatewayConfig{Listen: " :8080 "},
		Upstream: UpstreamConfig{URL: " http://x/mcp ", Tool: " search "},
		Ads:      AdsConfig{CustomerID: " 123-456-7890 ", LoginCustomerID: "111-222-3333"},
	}
	cfg.Normalize()

	assert.Equal(t, ":8080", cfg.Gateway.Listen)
	assert.Equal(t, "http://x/mcp", cfg.Upstream.URL)
	assert.Equal(t, "search", cfg.Upstream.Tool)
	assert.Equal(t, "1234567890", cfg.Ads.CustomerID)
	assert.Equal(t, "1112223333", cfg.Ads.LoginCustomerID)
}
