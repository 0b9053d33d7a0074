package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Tree(t *testing.T) {
	root := NewRootCmd()

	for _, path := range [][]string{
		{"init"},
		{"select-server"},
		{"login"},
		{"logout"},
		{"whoami"},
		{"materials", "ls"},
		{"materials", "show"},
		{"materials", "create"},
		{"materials", "update"},
		{"materials", "delete"},
		{"users", "ls"},
		{"users", "signup"},
		{"stats"},
		{"dash"},
		{"version"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	assert.NotNil(t, root.PersistentFlags().Lookup("server"))
	assert.NotNil(t, root.PersistentFlags().Lookup("verbose"))
}

func TestRootCmd_Version(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "museucom version dev\n", out.String())
}
