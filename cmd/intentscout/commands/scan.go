/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: scan.go
Description: Scan command. Resolves the model choice, runs the pipeline with interrupt handling,
and writes the report to stdout or the --output file.
*/

package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kleascm/intentscout/pkg/inference"
	"github.com/kleascm/intentscout/pkg/pipeline"
	"github.com/kleascm/intentscout/pkg/reporting"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunScan executes one scan
func RunScan(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := SetupLogging()
	if err != nil {
		return err
	}
	defer logger.Close()
	log := logger.GetLogger()

	format, err := reporting.ParseFormat(viper.GetString("format"))
	if err != nil {
		return err
	}

	cfg, err := PipelineConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Interrupts stop enrichment; whatever finished is still reported
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.LLM.Endpoint != "" {
		model, err := resolveModel(ctx, cfg.LLM, cmd.InOrStdin(), cmd.ErrOrStderr(), log)
		if err != nil {
			return fmt.Errorf("failed to select model: %w", err)
		}
		cfg.LLM.Model = model
		log.WithFields(logrus.Fields{"endpoint": cfg.LLM.Endpoint, "model": model}).Info("Using model for extras inference")
	}

	p, err := pipeline.New(cfg, pipeline.WithLogger(log))
	if err != nil {
		return err
	}

	log.WithField("root", cfg.Root).Info("Scanning for AndroidManifest.xml files")
	res, err := p.Run(ctx)
	if err != nil {
		return err
	}

	rep, err := reporting.New(format, !viper.GetBool("no_color") && viper.GetString("output") == "")
	if err != nil {
		return err
	}
	if out := viper.GetString("output"); out != "" {
		if err := reporting.WriteFile(rep, out, res); err != nil {
			return err
		}
		log.WithField("path", out).Info("Report written")
		return nil
	}
	return rep.Write(cmd.OutOrStdout(), res)
}

// resolveModel turns --llm-model into a served model id. A number or substring is
// matched against the endpoint's model list; with no choice the user is prompted.
func resolveModel(ctx context.Context, cfg inference.Config, in io.Reader, out io.Writer, log logrus.FieldLogger) (string, error) {
	choice := strings.TrimSpace(cfg.Model)

	models, err := inference.NewClient(cfg, inference.WithLogger(log)).ListModels(ctx)
	if err != nil {
		if choice != "" {
			log.WithError(err).Warn("Could not list models, using --llm-model as given")
			return choice, nil
		}
		return "", err
	}

	if choice != "" {
		return inference.SelectModel(models, choice)
	}
	if len(models) == 0 {
		return "", fmt.Errorf("endpoint serves no models")
	}

	fmt.Fprintln(out, "Available models:")
	for i, m := range models {
		fmt.Fprintf(out, "%d. %s\n", i+1, m)
	}
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "Select a model (1-%d): ", len(models))
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", fmt.Errorf("no model selected")
		}
		model, err := inference.SelectModel(models, scanner.Text())
		if err == nil {
			return model, nil
		}
		fmt.Fprintln(out, err)
	}
}
