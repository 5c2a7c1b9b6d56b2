package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		EnvAPIToken, EnvPort, EnvUpstreamURL, EnvUpstreamToken,
		EnvCustomerID, EnvLoginCustomerID, EnvClientName, EnvLogDir,
	} {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, defaultListen(), cfg.Gateway.Listen)
	assert.Equal(t, DefaultTool, cfg.Upstream.Tool)
	assert.Equal(t, DefaultTimeout, cfg.Upstream.Timeout)
	assert.Equal(t, 0, cfg.Upstream.Retries)
	assert.Equal(t, DefaultClientName, cfg.Ads.Client)
	assert.Empty(t, cfg.Upstream.URL)
}

func TestDefaultListen(t *testing.T) {
	t.Setenv("RUNNING_IN_CONTAINER", "true")
	assert.Equal(t, DefaultListen, Default().Gateway.Listen)
}

func TestLoad_TOML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "adsgw.toml", `
[gateway]
listen = "127.0.0.1:9090"
api_key = "s3cret"

[upstream]
url = "http://localhost:8000/mcp"
tool = "gaql_search"
timeout = "15s"
retries = 2
token = "upstream-token"

[upstream.headers]
X-Client = "adsgw"

[ads]
client = "acme"
customer_id = "123-456-7890"
login_customer_id = "9876543210"

[logging]
dir = "/var/log/adsgw"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Gateway.Listen)
	assert.Equal(t, "s3cret", cfg.Gateway.APIKey)
	assert.Equal(t, "http://localhost:8000/mcp", cfg.Upstream.URL)
	assert.Equal(t, "gaql_search", cfg.Upstream.Tool)
	assert.Equal(t, 15*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 2, cfg.Upstream.Retries)
	assert.Equal(t, "upstream-token", cfg.Upstream.Token)
	assert.Equal(t, map[string]string{"X-Client": "adsgw"}, cfg.Upstream.Headers)
	assert.Equal(t, "acme", cfg.Ads.Client)
	assert.Equal(t, "1234567890", cfg.Ads.CustomerID, "dashes are stripped")
	assert.Equal(t, "9876543210", cfg.Ads.LoginCustomerID)
	assert.Equal(t, "/var/log/adsgw", cfg.Logging.Dir)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "adsgw.yaml", `
gateway:
  listen: ":7070"
upstream:
  url: https://tools.example.com/mcp
  timeout: 2m
ads:
  customer_id: "1112223333"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Gateway.Listen)
	assert.Equal(t, "https://tools.example.com/mcp", cfg.Upstream.URL)
	assert.Equal(t, 2*time.Minute, cfg.Upstream.Timeout)
	assert.Equal(t, DefaultTool, cfg.Upstream.Tool, "unset keys keep their default")
	assert.Equal(t, "1112223333", cfg.Ads.CustomerID)
}

func TestLoad_EmptyYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "adsgw.yml", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, defaultListen(), cfg.Gateway.Listen)
}

func TestLoad_SchemaErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		errMsg  string
	}{
		{
			name:    "unknown top-level section",
			file:    "adsgw.toml",
			content: "[servers]\nname = \"x\"\n",
			errMsg:  "additionalProperties",
		},
		{
			name:    "unknown field in upstream",
			file:    "adsgw.yaml",
			content: "upstream:\n  endpoint: http://x\n",
			errMsg:  "additionalProperties",
		},
		{
			name:    "timeout given as number",
			file:    "adsgw.toml",
			content: "[upstream]\ntimeout = 30\n",
			errMsg:  "/upstream/timeout",
		},
		{
			name:    "negative retries",
			file:    "adsgw.toml",
			content: "[upstream]\nretries = -1\n",
			errMsg:  "/upstream/retries",
		},
		{
			name:    "customer id with letters",
			file:    "adsgw.toml",
			content: "[ads]\ncustomer_id = \"abc\"\n",
			errMsg:  "/ads/customer_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(writeConfig(t, tt.file, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "Configuration validation error")
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.Contains(t, err.Error(), "adsgw.example.toml")
		})
	}
}

func TestLoad_SyntaxErrors(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeConfig(t, "adsgw.toml", "[gateway\nlisten="))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse TOML config")

	_, err = Load(writeConfig(t, "adsgw.yaml", "gateway: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML config")
}

func TestLoad_ExpandsVariables(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADS_HOST", "tools.internal:8000")
	path := writeConfig(t, "adsgw.toml", `
[upstream]
url = "http://${ADS_HOST}/mcp"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://tools.internal:8000/mcp", cfg.Upstream.URL)
}

func TestLoad_UndefinedVariable(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "adsgw.toml", "[upstream]\ntoken = \"${ADSGW_TEST_UNDEFINED_TOKEN}\"\n")

	_, err := Load(path)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "ADSGW_TEST_UNDEFINED_TOKEN")
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "adsgw.toml", `
[gateway]
listen = ":9090"
api_key = "from-file"

[upstream]
url = "http://file/mcp"
`)
	t.Setenv(EnvAPIToken, "from-env")
	t.Setenv(EnvPort, "8181")
	t.Setenv(EnvUpstreamURL, "http://env/mcp")
	t.Setenv(EnvUpstreamToken, "tok")
	t.Setenv(EnvCustomerID, "111-222-3333")
	t.Setenv(EnvLoginCustomerID, "4445556666")
	t.Setenv(EnvClientName, "acme")
	t.Setenv(EnvLogDir, "/tmp/elsewhere")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Gateway.APIKey)
	assert.Equal(t, ":8181", cfg.Gateway.Listen)
	assert.Equal(t, "http://env/mcp", cfg.Upstream.URL)
	assert.Equal(t, "tok", cfg.Upstream.Token)
	assert.Equal(t, "1112223333", cfg.Ads.CustomerID)
	assert.Equal(t, "4445556666", cfg.Ads.LoginCustomerID)
	assert.Equal(t, "acme", cfg.Ads.Client)
	assert.Equal(t, "/tmp/elsewhere", cfg.Logging.Dir)
}

func TestLoad_BlankEnvDoesNotOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvUpstreamURL, "   ")
	path := writeConfig(t, "adsgw.toml", "[upstream]\nurl = \"http://file/mcp\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://file/mcp", cfg.Upstream.URL)
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv("ADSGW_TEST_BASE", "base")
	t.Setenv("ADSGW_TEST_PLAIN", "")
	t.Setenv("ADSGW_TEST_QUOTED", "")
	t.Setenv("ADSGW_TEST_EXPORTED", "")
	t.Setenv("ADSGW_TEST_EXPANDED", "")

	path := writeConfig(t, ".env", `
# comment
ADSGW_TEST_PLAIN=value
ADSGW_TEST_QUOTED="quoted value"
export ADSGW_TEST_EXPORTED='single'
ADSGW_TEST_EXPANDED=${ADSGW_TEST_BASE}/sub
not a pair
`)

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "value", os.Getenv("ADSGW_TEST_PLAIN"))
	assert.Equal(t, "quoted value", os.Getenv("ADSGW_TEST_QUOTED"))
	assert.Equal(t, "single", os.Getenv("ADSGW_TEST_EXPORTED"))
	assert.Equal(t, "base/sub", os.Getenv("ADSGW_TEST_EXPANDED"))
}

func TestLoadEnvFile_Missing(t *testing.T) {
	assert.Error(t, LoadEnvFile(filepath.Join(t.TempDir(), ".env")))
}

func TestLoad_ExampleConfig(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join("..", "..", "adsgw.example.toml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/mcp", cfg.Upstream.URL)
	assert.Equal(t, DefaultTimeout, cfg.Upstream.Timeout)
	assert.NoError(t, cfg.Validate())
}
