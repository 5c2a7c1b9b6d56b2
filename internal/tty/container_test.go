package tty

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

func TestDetectContainer(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		env   func(string) string
		want  bool
	}{
		{name: "bare host", want: false},
		{
			name: "env override",
			env: func(key string) string {
				if key == "RUNNING_IN_CONTAINER" {
					return "true"
				}
				return ""
			},
			want: true,
		},
		{name: "dockerenv", files: map[string]string{".dockerenv": ""}, want: true},
		{name: "podman containerenv", files: map[string]string{"run/.containerenv": ""}, want: true},
		{name: "kubernetes cgroup", files: map[string]string{"proc/1/cgroup": "0::/kubepods/besteffort/pod123"}, want: true},
		{name: "plain cgroup", files: map[string]string{"proc/1/cgroup": "0::/init.scope"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			for name, content := range tt.files {
				path := filepath.Join(root, name)
				require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
				require.NoError(t, os.WriteFile(path, []byte(content), 0644))
			}
			env := tt.env
			if env == nil {
				env = noEnv
			}

			assert.Equal(t, tt.want, detectContainer(root, env))
		})
	}
}

func TestIsRunningInContainer_EnvOverride(t *testing.T) {
	t.Setenv("RUNNING_IN_CONTAINER", "true")
	assert.True(t, IsRunningInContainer())
}
