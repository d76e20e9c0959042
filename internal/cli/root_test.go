package cli

import (
	"bytes"
	"testing"

	"github.com/leapstack-labs/leapxmla/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()

	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "discover", "rowsets", "version", "completion"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
	for _, flag := range []string{"config", "catalog", "log-level", "log-format", "verbose", "environment"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestRootCmd_Version(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "leapxmla "+Version)
}

func TestRootCmd_Discover(t *testing.T) {
	catalog := testutil.WriteFile(t, "catalog.yaml", testutil.SalesCatalog)

	out, err := execute(t, "--catalog", catalog, "discover", "MDSCHEMA_CUBES", "-r", "CUBE_NAME=Warehouse")
	require.NoError(t, err)
	assert.Contains(t, out, "<CUBE_NAME>Warehouse</CUBE_NAME>")
	assert.NotContains(t, out, "<CUBE_NAME>Sales</CUBE_NAME>")
}

func TestRootCmd_InvalidLogFormat(t *testing.T) {
	_, err := execute(t, "--log-format", "xml", "rowsets")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log.format")
}

func TestRootCmd_UnknownEnvironment(t *testing.T) {
	_, err := execute(t, "-e", "prod", "rowsets")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `environment "prod" is not defined`)
}

func TestCompletionCommand(t *testing.T) {
	out, err := execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "leapxmla")

	_, err = execute(t, "completion", "tcsh")
	assert.Error(t, err)
}
