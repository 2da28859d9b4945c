/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Command-line interface for intentscout. Finds exported Android components in a
project tree and prints adb commands that exercise them, optionally with intent extras proposed
by a language model or recovered from the component's source.
*/

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kleascm/intentscout/cmd/intentscout/commands"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "intentscout",
		Short: "intentscout - exported component discovery and adb command synthesis",
		Long: `intentscout walks an Android project for AndroidManifest.xml files, keeps the components
other apps can reach, filters them by permission level and device state, and prints one adb
command per component. With a chat-completion endpoint configured it also asks a model which
intent extras each component reads.`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags
	rootCmd.PersistentFlags().String("config", "", "Configuration file path")
	rootCmd.PersistentFlags().String("log-level", "info", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "custom", "Log format (text, json, custom)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Use JSON log format")
	rootCmd.PersistentFlags().String("log-dir", "", "Also write logs to timestamped files in this directory")
	rootCmd.PersistentFlags().Int("log-max-files", 10, "Maximum number of log files to keep")
	rootCmd.PersistentFlags().Bool("log-caller", false, "Include caller file and line in logs")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	// Model endpoint flags are shared by scan and models
	rootCmd.PersistentFlags().String("llm-url", "", "Chat-completion endpoint, e.g. http://localhost:1234/v1")
	rootCmd.PersistentFlags().String("llm-key", "", "API key for the endpoint")
	rootCmd.PersistentFlags().String("llm-model", "", "Model id, substring, or 1-based index from 'intentscout models'")
	rootCmd.PersistentFlags().Bool("llm-json-mode", false, "Request a JSON object reply via response_format")
	rootCmd.PersistentFlags().Int("llm-retries", 3, "Retries for failed model requests")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("json_logs", rootCmd.PersistentFlags().Lookup("json-logs"))
	viper.BindPFlag("log_dir", rootCmd.PersistentFlags().Lookup("log-dir"))
	viper.BindPFlag("log_max_files", rootCmd.PersistentFlags().Lookup("log-max-files"))
	viper.BindPFlag("log_caller", rootCmd.PersistentFlags().Lookup("log-caller"))
	viper.BindPFlag("no_color", rootCmd.PersistentFlags().Lookup("no-color"))
	viper.BindPFlag("llm.endpoint", rootCmd.PersistentFlags().Lookup("llm-url"))
	viper.BindPFlag("llm.api_key", rootCmd.PersistentFlags().Lookup("llm-key"))
	viper.BindPFlag("llm.model", rootCmd.PersistentFlags().Lookup("llm-model"))
	viper.BindPFlag("llm.json_mode", rootCmd.PersistentFlags().Lookup("llm-json-mode"))
	viper.BindPFlag("llm.max_retries", rootCmd.PersistentFlags().Lookup("llm-retries"))

	// Add scan command
	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Find exported components and synthesize adb commands",
		Long: `Scan a project directory for AndroidManifest.xml files and print an adb command for every
exported component that passes the package, shared user id, permission and alive-only filters.`,
		RunE: commands.RunScan,
	}

	scanCmd.Flags().StringP("dir", "d", "", "Project directory to search (required)")
	scanCmd.Flags().StringP("package", "p", "", "Only report components of this package")
	scanCmd.Flags().StringP("max-permission-level", "m", "signature", "Highest permission level to keep (normal, dangerous, signature, signatureOrSystem, any)")
	scanCmd.Flags().BoolP("alive-only", "a", false, "Only report packages installed on the connected device")
	scanCmd.Flags().Bool("no-shared-userid", false, "Exclude components of apps that declare a sharedUserId")
	scanCmd.Flags().Bool("include-tests", false, "Also scan test source sets")
	scanCmd.Flags().Bool("static-extras", false, "Scan located sources for get*Extra calls when no model answers")
	scanCmd.Flags().Int("concurrency", 4, "Components enriched in parallel")
	scanCmd.Flags().Duration("timeout", 2*time.Minute, "Enrichment time limit per component, retries included")
	scanCmd.Flags().Duration("run-timeout", 0, "Time limit for the whole scan (0 = none)")
	scanCmd.Flags().String("permission-table", "", "YAML file overriding the built-in permission levels")
	scanCmd.Flags().String("device", "", "adb serial of the device used by --alive-only")
	scanCmd.Flags().Duration("oracle-timeout", 10*time.Second, "Time limit for listing installed packages; on expiry --alive-only is ignored")
	scanCmd.Flags().String("format", "text", "Report format (text, json, html)")
	scanCmd.Flags().StringP("output", "o", "", "Write the report to this file instead of stdout")

	scanCmd.MarkFlagRequired("dir")

	viper.BindPFlag("dir", scanCmd.Flags().Lookup("dir"))
	viper.BindPFlag("package", scanCmd.Flags().Lookup("package"))
	viper.BindPFlag("max_permission_level", scanCmd.Flags().Lookup("max-permission-level"))
	viper.BindPFlag("alive_only", scanCmd.Flags().Lookup("alive-only"))
	viper.BindPFlag("no_shared_userid", scanCmd.Flags().Lookup("no-shared-userid"))
	viper.BindPFlag("include_tests", scanCmd.Flags().Lookup("include-tests"))
	viper.BindPFlag("static_extras", scanCmd.Flags().Lookup("static-extras"))
	viper.BindPFlag("concurrency", scanCmd.Flags().Lookup("concurrency"))
	viper.BindPFlag("timeout", scanCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("run_timeout", scanCmd.Flags().Lookup("run-timeout"))
	viper.BindPFlag("permission_table", scanCmd.Flags().Lookup("permission-table"))
	viper.BindPFlag("device", scanCmd.Flags().Lookup("device"))
	viper.BindPFlag("oracle_timeout", scanCmd.Flags().Lookup("oracle-timeout"))
	viper.BindPFlag("format", scanCmd.Flags().Lookup("format"))
	viper.BindPFlag("output", scanCmd.Flags().Lookup("output"))

	rootCmd.AddCommand(scanCmd)

	// Add models command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "models",
		Short: "List the models served by the chat-completion endpoint",
		RunE:  commands.ListModels,
	})

	// Add permissions command
	permissionsCmd := &cobra.Command{
		Use:   "permissions",
		Short: "Print the permission protection level table",
		RunE:  commands.ListPermissions,
	}
	permissionsCmd.Flags().String("permission-table", "", "YAML file overriding the built-in permission levels")
	rootCmd.AddCommand(permissionsCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
