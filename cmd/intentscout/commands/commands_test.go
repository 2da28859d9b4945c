/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: commands_test.go
Description: Tests for building the scan configuration from viper settings and environment.
*/

package commands_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kleascm/intentscout/cmd/intentscout/commands"
	"github.com/kleascm/intentscout/pkg/permissions"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPipelineConfig tests the mapping from settings to the pipeline config
func TestPipelineConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	root := t.TempDir()
	viper.Set("dir", root)
	viper.Set("package", "com.acme.x")
	viper.Set("max_permission_level", "dangerous")
	viper.Set("alive_only", true)
	viper.Set("no_shared_userid", true)
	viper.Set("concurrency", 8)
	viper.Set("timeout", "30s")
	viper.Set("run_timeout", "5m")
	viper.Set("oracle_timeout", "3s")
	viper.Set("llm.endpoint", "http://localhost:1234/v1")
	viper.Set("llm.model", "qwen")

	cfg, err := commands.PipelineConfig()
	require.NoError(t, err)
	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, "com.acme.x", cfg.PackageFilter)
	assert.Equal(t, permissions.LevelDangerous, cfg.MaxPermissionLevel)
	assert.True(t, cfg.AliveOnly)
	assert.True(t, cfg.ExcludeSharedUserID)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 5*time.Minute, cfg.RunTimeout)
	assert.Equal(t, 3*time.Second, cfg.OracleTimeout)
	assert.True(t, cfg.LLM.Enabled())
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
}

// TestPipelineConfigDefaults tests the defaults and the "any" threshold
func TestPipelineConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("dir", t.TempDir())
	viper.Set("max_permission_level", "any")

	cfg, err := commands.PipelineConfig()
	require.NoError(t, err)
	assert.Equal(t, permissions.Unbounded, cfg.MaxPermissionLevel)
	assert.False(t, cfg.LLM.Enabled())
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 10*time.Second, cfg.OracleTimeout)

	viper.Set("max_permission_level", "root")
	_, err = commands.PipelineConfig()
	assert.Error(t, err)

	viper.Set("max_permission_level", "normal")
	viper.Set("dir", "")
	_, err = commands.PipelineConfig()
	assert.Error(t, err)
}

// TestLoadConfigEnvironment tests INTENTSCOUT_ variables, including the short key name
func TestLoadConfigEnvironment(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("INTENTSCOUT_LLM_KEY", "sk-test")
	t.Setenv("INTENTSCOUT_PACKAGE", "com.env.app")
	require.NoError(t, commands.LoadConfig())

	assert.Equal(t, "sk-test", commands.LLMConfig().APIKey)
	assert.Equal(t, "com.env.app", viper.GetString("package"))
}

// TestLoadConfigFile tests reading settings from a config file
func TestLoadConfigFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "intentscout.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_permission_level: normal\nllm:\n  model: local\n"), 0o644))
	viper.Set("config", path)
	viper.Set("dir", t.TempDir())

	require.NoError(t, commands.LoadConfig())
	cfg, err := commands.PipelineConfig()
	require.NoError(t, err)
	assert.Equal(t, permissions.LevelNormal, cfg.MaxPermissionLevel)
	assert.Equal(t, "local", cfg.LLM.Model)
}

// TestListPermissions tests the table listing
func TestListPermissions(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	override := filepath.Join(t.TempDir(), "table.yaml")
	require.NoError(t, os.WriteFile(override, []byte("dangerous:\n  - com.vendor.permission.SECRET\n"), 0o644))

	cmd := &cobra.Command{}
	cmd.Flags().String("permission-table", "", "")
	require.NoError(t, cmd.Flags().Set("permission-table", override))
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, commands.ListPermissions(cmd, nil))
	text := out.String()
	assert.True(t, strings.HasPrefix(text, "normal:\n"))
	assert.Contains(t, text, "dangerous:\n")
	assert.Contains(t, text, "  com.vendor.permission.SECRET\n")
	assert.Contains(t, text, "  android.permission.CAMERA\n")
}
