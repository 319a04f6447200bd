package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/postquery/internal/cli"
	"github.com/rshade/postquery/pkg/version"
)

func TestMainComponents(t *testing.T) {
	t.Run("version available", func(t *testing.T) {
		assert.NotEmpty(t, version.GetVersion())
	})

	t.Run("cli root command", func(t *testing.T) {
		root := cli.NewRootCmd(version.GetVersion())
		require.NotNil(t, root)
		assert.Equal(t, "postquery", root.Use)

		names := make([]string, 0, len(root.Commands()))
		for _, c := range root.Commands() {
			names = append(names, c.Name())
		}
		assert.Subset(t, names, []string{"ui", "posts", "config", "version"})
	})
}

func TestRunVersion(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })

	os.Args = []string{"postquery", "version"}
	assert.Equal(t, 0, run())

	os.Args = []string{"postquery", "no-such-command"}
	assert.Equal(t, 1, run())
}
