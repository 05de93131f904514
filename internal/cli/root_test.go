package cli_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"jaspr.dev/jaspr/internal/cli"
)

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	root := cli.NewRootCmd("1.2.3", "abcdef", "2026-08-23")

	names := map[string]bool{}
	for _, cmd := range root.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"init", "push", "status", "merge", "automerge", "clean"} {
		require.True(t, names[want], "missing command %q", want)
	}

	require.NotNil(t, root.PersistentFlags().Lookup("verbose"))
	require.Contains(t, root.Version, "1.2.3")

	push, _, err := root.Find([]string{"push"})
	require.NoError(t, err)
	require.NotNil(t, push.Flags().Lookup("stack"))
	require.NotNil(t, push.Flags().Lookup("draft"))

	clean, _, err := root.Find([]string{"clean"})
	require.NoError(t, err)
	require.NotNil(t, clean.Flags().Lookup("abandoned"))
	require.NotNil(t, clean.Flags().Lookup("all-authors"))
	require.NotNil(t, clean.Flags().Lookup("yes"))
}
