package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConf(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestFunc_LoadConfDefaults(t *testing.T) {
	c := NewCompositor()
	require.NoError(t, c.LoadConf(writeConf(t, "node:\n  name: test\n")))

	assert.Equal(t, "test", *c.Conf.Node.Name)
	assert.Equal(t, "8080", *c.Conf.HTTPServer.Port)
	assert.Equal(t, 5*time.Second, *c.Conf.HTTPServer.Timeout)
	assert.Equal(t, "/rpc", *c.Conf.Gateway.Route)
	assert.Equal(t, "EduMonitor_", *c.Conf.Gateway.TargetPrefix)
	assert.Equal(t, "/invoke", *c.Conf.Service.Route)
	assert.Equal(t, uint32(5), *c.Conf.Breaker.MaxFailures)
	assert.Empty(t, *c.Conf.Gateway.Namespaces)
	assert.False(t, *c.Conf.RateLimit.Enabled)
}

func TestFunc_LoadConfNamespaces(t *testing.T) {
	c := NewCompositor()
	err := c.LoadConf(writeConf(t, `
gateway:
  caller_env:
    stage: prod
  namespaces:
    - name: Math
      kind: lua
      scripts: ./interfaces/math
    - name: Grades
      kind: http
      url: http://grades:8081/invoke
      timeout: 3s
`))
	require.NoError(t, err)

	namespaces := *c.Conf.Gateway.Namespaces
	require.Len(t, namespaces, 2)
	assert.Equal(t, Namespace{Name: "Math", Kind: KindLua, Scripts: "./interfaces/math"}, namespaces[0])
	assert.Equal(t, "Grades", namespaces[1].Name)
	assert.Equal(t, 3*time.Second, namespaces[1].Timeout)
	assert.Equal(t, map[string]string{"stage": "prod"}, *c.Conf.Gateway.CallerEnv)
}

func TestFunc_LoadConfRejectsNamespaces(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no name", "gateway:\n  namespaces:\n    - kind: lua\n      scripts: ./x\n"},
		{"unknown kind", "gateway:\n  namespaces:\n    - name: A\n      kind: grpc\n"},
		{"lua without scripts", "gateway:\n  namespaces:\n    - name: A\n      kind: lua\n"},
		{"http without url", "gateway:\n  namespaces:\n    - name: A\n      kind: http\n"},
		{"illegal name", "gateway:\n  namespaces:\n    - name: Edu-Monitor\n      kind: http\n      url: http://x\n"},
		{"duplicate name", "gateway:\n  namespaces:\n    - name: A\n      kind: http\n      url: http://x\n    - name: A\n      kind: lua\n      scripts: ./x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, NewCompositor().LoadConf(writeConf(t, tt.body)))
		})
	}
}

func TestFunc_LoadConfMissingFile(t *testing.T) {
	assert.Error(t, NewCompositor().LoadConf(filepath.Join(t.TempDir(), "absent.yaml")))
}

func TestFunc_SessionSecret(t *testing.T) {
	tests := []struct {
		name      string
		env       map[string]string
		conf      string
		want      string
		isDefault bool
	}{
		{"default", nil, "", DefaultSessionSecret, true},
		{"config", nil, "session:\n  secret: from-conf\n", "from-conf", false},
		{"legacy env", map[string]string{"CRYPTO_PASSWORD": "legacy"}, "session:\n  secret: from-conf\n", "legacy", false},
		{"env", map[string]string{"GS_SESSION_SECRET": "fresh", "CRYPTO_PASSWORD": "legacy"}, "", "fresh", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GS_SESSION_SECRET", "")
			t.Setenv("CRYPTO_PASSWORD", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			c := NewCompositor()
			require.NoError(t, c.LoadEnv())
			require.NoError(t, c.LoadConf(writeConf(t, tt.conf)))

			got, isDefault := c.SessionSecret()
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.isDefault, isDefault)
		})
	}
}

func TestFunc_LoadEnvConfigPath(t *testing.T) {
	t.Setenv("GS_CONFIG_PATH", "/etc/node.yaml")
	c := NewCompositor()
	require.NoError(t, c.LoadEnv())
	assert.Equal(t, "/etc/node.yaml", *c.Env.ConfigPath)
	assert.Equal(t, "./", *c.Env.NodePath)
}

func TestFunc_LoadCMDLine(t *testing.T) {
	root := &cobra.Command{Use: "node", Run: func(*cobra.Command, []string) {}}
	call := &cobra.Command{Use: "call [Namespace::method] [args...]", Run: func(*cobra.Command, []string) {}}
	root.AddCommand(call)

	c := NewCompositor()
	c.LoadCMDLine(root)

	root.SetArgs([]string{"call", "-c", "cfg.yaml", "--url", "http://gw/rpc", "-t", "3", "A::b"})
	require.NoError(t, root.Execute())

	assert.Equal(t, "cfg.yaml", c.CMDLine.Node.ConfigPath)
	assert.False(t, c.CMDLine.Node.Debug)
	assert.Equal(t, "http://gw/rpc", c.CMDLine.Call.URL)
	assert.Equal(t, 3, c.CMDLine.Call.Timeout)
}

func TestFunc_PrintMasksSecret(t *testing.T) {
	c := NewCompositor()
	require.NoError(t, c.LoadConf(writeConf(t, "session:\n  secret: hunter2\n")))

	var buf bytes.Buffer
	c.Print(&buf, c.Conf)
	assert.Contains(t, buf.String(), "***")
	assert.NotContains(t, buf.String(), "hunter2")
	assert.Contains(t, buf.String(), "/rpc")
}
