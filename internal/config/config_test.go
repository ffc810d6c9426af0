package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCLI struct {
	Server  string        `default:"http://localhost:3000"`
	Timeout time.Duration `default:"30s"`
	DataDir string
	Debug   bool

	Dashboard struct {
		Interval  time.Duration `default:"5s"`
		Heartbeat bool
	} `cmd:""`

	Detect struct {
		Interval time.Duration `default:"5s"`
	} `cmd:""`
}

func parse(t *testing.T, doc string, args ...string) *testCLI {
	t.Helper()

	resolver, err := YAMLLoader(strings.NewReader(doc))
	require.NoError(t, err)

	var cli testCLI
	parser, err := kong.New(&cli, kong.Resolvers(resolver))
	require.NoError(t, err)

	_, err = parser.Parse(args)
	require.NoError(t, err)

	return &cli
}

func TestYAMLLoader_globalValues(t *testing.T) {
	cli := parse(t, `
server: http://busser.local:3000
timeout: 10s
data_dir: /tmp/openbusser
debug: true
`, "detect")

	assert.Equal(t, "http://busser.local:3000", cli.Server)
	assert.Equal(t, 10*time.Second, cli.Timeout)
	assert.Equal(t, "/tmp/openbusser", cli.DataDir)
	assert.True(t, cli.Debug)
	assert.Equal(t, 5*time.Second, cli.Detect.Interval)
}

func TestYAMLLoader_commandValues(t *testing.T) {
	doc := `
interval: 9s
dashboard:
  interval: 2s
  heartbeat: true
`
	cli := parse(t, doc, "dashboard")
	assert.Equal(t, 2*time.Second, cli.Dashboard.Interval)
	assert.True(t, cli.Dashboard.Heartbeat)

	// top-level value applies where no command section overrides it
	cli = parse(t, doc, "detect")
	assert.Equal(t, 9*time.Second, cli.Detect.Interval)
}

func TestYAMLLoader_flagsWin(t *testing.T) {
	cli := parse(t, "server: http://busser.local:3000\n", "--server", "http://other:3000", "detect")
	assert.Equal(t, "http://other:3000", cli.Server)
}

func TestYAMLLoader_emptyDocument(t *testing.T) {
	cli := parse(t, "", "detect")
	assert.Equal(t, "http://localhost:3000", cli.Server)
}

func TestYAMLLoader_invalidDocument(t *testing.T) {
	_, err := YAMLLoader(strings.NewReader("server: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode yaml configuration")
}

func TestYAMLLoader_withConfigurationOption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: http://from-file:3000\n"), 0o600))

	var cli testCLI
	parser, err := kong.New(&cli, kong.Configuration(YAMLLoader, path))
	require.NoError(t, err)

	_, err = parser.Parse([]string{"detect"})
	require.NoError(t, err)
	assert.Equal(t, "http://from-file:3000", cli.Server)
}
