/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Shared utilities for the intentscout commands. Loads configuration from an optional
.env file, a config file, INTENTSCOUT_ environment variables and flags, sets up logging, and
builds the pipeline configuration from the merged settings.
*/

package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kleascm/intentscout/pkg/inference"
	"github.com/kleascm/intentscout/pkg/logging"
	"github.com/kleascm/intentscout/pkg/permissions"
	"github.com/kleascm/intentscout/pkg/pipeline"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the tool reads
const EnvPrefix = "INTENTSCOUT"

// LoadConfig loads configuration from .env, the config file and the environment
func LoadConfig() error {
	// A missing .env is normal; a broken one is not
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read .env: %w", err)
	}

	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
	// The model key is also accepted under the shorter name used by the --llm-key flag
	_ = viper.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", EnvPrefix+"_LLM_KEY")

	return nil
}

// SetupLogging builds the process logger from the log_* settings
func SetupLogging() (*logging.Logger, error) {
	cfg := &logging.LoggerConfig{
		Level:     logging.LogLevel(viper.GetString("log_level")),
		Format:    logging.LogFormat(viper.GetString("log_format")),
		OutputDir: viper.GetString("log_dir"),
		MaxFiles:  viper.GetInt("log_max_files"),
		Timestamp: true,
		Caller:    viper.GetBool("log_caller"),
		Colors:    !viper.GetBool("no_color"),
	}
	if viper.GetBool("json_logs") {
		cfg.Format = logging.LogFormatJSON
	}
	logger, err := logging.NewLogger(cfg, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	return logger, nil
}

// LLMConfig reads the model endpoint settings
func LLMConfig() inference.Config {
	cfg := inference.DefaultConfig()
	cfg.Endpoint = viper.GetString("llm.endpoint")
	cfg.APIKey = viper.GetString("llm.api_key")
	cfg.Model = viper.GetString("llm.model")
	cfg.JSONMode = viper.GetBool("llm.json_mode")
	if viper.IsSet("llm.max_retries") {
		cfg.MaxRetries = viper.GetInt("llm.max_retries")
	}
	if viper.IsSet("llm.temperature") {
		cfg.Temperature = viper.GetFloat64("llm.temperature")
	}
	if viper.IsSet("llm.request_timeout") {
		cfg.RequestTimeout = viper.GetDuration("llm.request_timeout")
	}
	return cfg
}

// PipelineConfig builds the scan configuration from the merged settings
func PipelineConfig() (pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()

	level, err := permissions.ParseThreshold(viper.GetString("max_permission_level"))
	if err != nil {
		return cfg, err
	}

	cfg.Root = viper.GetString("dir")
	cfg.PackageFilter = viper.GetString("package")
	cfg.MaxPermissionLevel = level
	cfg.AliveOnly = viper.GetBool("alive_only")
	cfg.ExcludeSharedUserID = viper.GetBool("no_shared_userid")
	cfg.IncludeTests = viper.GetBool("include_tests")
	cfg.StaticExtras = viper.GetBool("static_extras")
	cfg.LLM = LLMConfig()
	cfg.PermissionTable = viper.GetString("permission_table")
	cfg.DeviceSerial = viper.GetString("device")

	if n := viper.GetInt("concurrency"); n > 0 {
		cfg.Concurrency = n
	}
	if viper.IsSet("timeout") {
		cfg.RequestTimeout = viper.GetDuration("timeout")
	}
	cfg.RunTimeout = viper.GetDuration("run_timeout")
	if viper.IsSet("oracle_timeout") {
		cfg.OracleTimeout = viper.GetDuration("oracle_timeout")
	}

	return cfg, cfg.Validate()
}
