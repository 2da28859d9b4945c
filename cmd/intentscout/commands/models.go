/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: models.go
Description: Models command. Lists the models served by the configured endpoint, numbered the
way --llm-model accepts them.
*/

package commands

import (
	"fmt"

	"github.com/kleascm/intentscout/pkg/inference"
	"github.com/spf13/cobra"
)

// ListModels prints the served models
func ListModels(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := SetupLogging()
	if err != nil {
		return err
	}
	defer logger.Close()

	cfg := LLMConfig()
	if cfg.Endpoint == "" {
		cfg.Endpoint = inference.DefaultEndpoint
	}

	models, err := inference.NewClient(cfg, inference.WithLogger(logger.GetLogger())).ListModels(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list models at %s: %w", cfg.Endpoint, err)
	}

	out := cmd.OutOrStdout()
	if len(models) == 0 {
		fmt.Fprintf(out, "No models served at %s\n", cfg.Endpoint)
		return nil
	}
	fmt.Fprintf(out, "Models at %s:\n", cfg.Endpoint)
	for i, m := range models {
		fmt.Fprintf(out, "%d. %s\n", i+1, m)
	}
	return nil
}
