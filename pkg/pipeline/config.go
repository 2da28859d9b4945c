/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: config.go
Description: Run configuration for the scan pipeline. One Config value is built by the CLI layer,
validated once, and passed by value into every stage.
*/

package pipeline

import (
	"fmt"
	"runtime"
	"time"

	"github.com/kleascm/intentscout/pkg/inference"
	"github.com/kleascm/intentscout/pkg/permissions"
)

// Config holds everything a scan needs
type Config struct {
	// Root is the project directory searched for manifests
	Root string `mapstructure:"dir" json:"root"`
	// PackageFilter keeps only components of this exact package when set
	PackageFilter string `mapstructure:"package" json:"package_filter,omitempty"`
	// MaxPermissionLevel drops components guarded above it; permissions.Unbounded keeps all
	MaxPermissionLevel  permissions.Level `mapstructure:"-" json:"max_permission_level"`
	AliveOnly           bool              `mapstructure:"alive_only" json:"alive_only"`
	ExcludeSharedUserID bool              `mapstructure:"no_shared_userid" json:"exclude_shared_user_id"`
	IncludeTests        bool              `mapstructure:"include_tests" json:"include_tests"`
	// StaticExtras scans located sources for get*Extra calls when the model is off or fails
	StaticExtras bool `mapstructure:"static_extras" json:"static_extras"`

	LLM inference.Config `mapstructure:"llm" json:"llm"`

	// Concurrency bounds simultaneous component enrichments
	Concurrency int `mapstructure:"concurrency" json:"concurrency"`
	// ParseWorkers bounds simultaneous manifest parses
	ParseWorkers int `mapstructure:"parse_workers" json:"parse_workers"`
	// RequestTimeout bounds the enrichment of one component, retries included
	RequestTimeout time.Duration `mapstructure:"timeout" json:"request_timeout"`
	// RunTimeout bounds the whole run; zero means no limit
	RunTimeout time.Duration `mapstructure:"run_timeout" json:"run_timeout"`
	// OracleTimeout bounds the installed package query; on expiry every package counts as installed
	OracleTimeout time.Duration `mapstructure:"oracle_timeout" json:"oracle_timeout"`

	// PermissionTable is an optional YAML file overriding the embedded table
	PermissionTable string `mapstructure:"permission_table" json:"permission_table,omitempty"`
	// DeviceSerial selects the adb device for the alive-only check
	DeviceSerial string `mapstructure:"device" json:"device_serial,omitempty"`
}

// DefaultConfig returns a configuration with the tool's defaults and no root
func DefaultConfig() Config {
	return Config{
		MaxPermissionLevel: permissions.LevelSignature,
		LLM:                inference.DefaultConfig(),
		Concurrency:        4,
		ParseWorkers:       runtime.NumCPU(),
		RequestTimeout:     2 * time.Minute,
		OracleTimeout:      10 * time.Second,
	}
}

// Validate checks the configuration before a run
func (c Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("root directory is required")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.ParseWorkers < 1 {
		return fmt.Errorf("parse workers must be at least 1, got %d", c.ParseWorkers)
	}
	if c.RequestTimeout < 0 || c.RunTimeout < 0 || c.OracleTimeout < 0 {
		return fmt.Errorf("timeouts must be non-negative")
	}
	if c.MaxPermissionLevel < permissions.LevelNormal || c.MaxPermissionLevel > permissions.Unbounded {
		return fmt.Errorf("unknown permission level %d", int(c.MaxPermissionLevel))
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("invalid llm config: %w", err)
	}
	return nil
}
