package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolveConfig(t *testing.T, args ...string) string {
	t.Helper()
	var got string
	cmd := newRootCmd(func(configPath string) error {
		got = configPath
		return nil
	})
	// non-nil so cobra does not fall back to os.Args
	cmd.SetArgs(append([]string{}, args...))
	require.NoError(t, cmd.Execute())
	return got
}

func TestRootCmd_ConfigFlag(t *testing.T) {
	assert.Equal(t, "", resolveConfig(t))
	assert.Equal(t, "shop.yaml", resolveConfig(t, "--config", "shop.yaml"))
}

func TestRootCmd_ConfigFromEnv(t *testing.T) {
	t.Setenv("SHOP_CONFIG", "/etc/shop/env.yaml")
	assert.Equal(t, "/etc/shop/env.yaml", resolveConfig(t))
	assert.Equal(t, "cli.yaml", resolveConfig(t, "--config", "cli.yaml"))
}

func TestRootCmd_RejectsArgs(t *testing.T) {
	cmd := newRootCmd(func(string) error { return nil })
	cmd.SetArgs([]string{"extra"})
	assert.Error(t, cmd.Execute())
}
