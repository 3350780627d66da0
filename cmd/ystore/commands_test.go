package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("GIN_MODE", "test")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("LOG_CONSOLE", "false")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestMigrateCommand(t *testing.T) {
	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "memory storage migrated")
}

func TestPromoteUnknownAccount(t *testing.T) {
	_, err := execute(t, "promote", "--email", "ghost@example.com", "--role", "admin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "User not found")
}

func TestPromoteRejectsUnknownRole(t *testing.T) {
	_, err := execute(t, "promote", "--email", "ghost@example.com", "--role", "root")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid role")
}
