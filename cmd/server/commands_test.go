package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	t.Parallel()
	root := newRootCommand()

	for _, path := range [][]string{{"serve"}, {"migrate"}, {"user", "create"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestMigrateCommand_RejectsBadArgs(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{
		{"migrate"},
		{"migrate", "sideways"},
		{"migrate", "up", "down"},
	} {
		root := newRootCommand()
		root.SetArgs(args)
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})

		assert.Error(t, root.Execute(), args)
	}
}

func TestUserCreateCommand_RequiresFlags(t *testing.T) {
	t.Parallel()
	root := newRootCommand()
	root.SetArgs([]string{"user", "create", "--username", "alice"})
	errOut := &bytes.Buffer{}
	root.SetOut(&bytes.Buffer{})
	root.SetErr(errOut)

	err := root.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "password")
}

func TestUserCreateCommand_DefaultRole(t *testing.T) {
	t.Parallel()
	root := newRootCommand()
	cmd, _, err := root.Find([]string{"user", "create"})
	require.NoError(t, err)

	flag := cmd.Flags().Lookup("role")
	require.NotNil(t, flag)
	assert.Equal(t, "USER", flag.DefValue)
}
