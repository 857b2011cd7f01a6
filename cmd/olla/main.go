package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ollama-go/internal/config"
	"ollama-go/internal/version"
	"ollama-go/pkg/ollama"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "olla",
		Short:         "olla - client for a local Ollama inference server",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("host", config.DefaultHost, "Server address (also OLLAMA_HOST)")
	flags.String("model", config.DefaultModel, "Model name")
	flags.String("timeout", config.DefaultTimeout.String(), "Request timeout (e.g. 60s, 0 disables)")
	flags.Int("max-retries", 0, "Retries for connection errors and 5xx responses")
	flags.Int("max-steps", config.DefaultMaxSteps, "Maximum tool steps for run")
	flags.String("keep-alive", "", "How long the model stays loaded (e.g. 5m)")
	flags.Bool("json", false, "Output JSON only")
	flags.Bool("verbose", false, "Enable verbose logging")
	flags.Bool("quiet", false, "Only print final answers")
	flags.Bool("no-tools", false, "Do not offer tools to the model")

	cmd.AddCommand(
		newGenerateCmd(),
		newChatCmd(),
		newRunCmd(),
		newEmbedCmd(),
		newListCmd(),
		newPsCmd(),
		newShowCmd(),
		newCreateCmd(),
		newCopyCmd(),
		newDeleteCmd(),
		newPullCmd(),
		newPushCmd(),
		newVersionCmd(),
	)
	return cmd
}

// session bundles what every subcommand needs.
type session struct {
	cfg    config.Config
	logger *zap.Logger
	client *ollama.Client
	out    io.Writer
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return nil, err
	}
	logger := buildLogger(cfg.Verbose)

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "olla/" + version.Version
	}
	client, err := ollama.New(ollama.Config{
		Host:       cfg.Host,
		UserAgent:  userAgent,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("client ready", zap.String("host", client.Host()), zap.String("model", cfg.Model))
	return &session{cfg: cfg, logger: logger, client: client, out: cmd.OutOrStdout()}, nil
}

func (s *session) close() {
	_ = s.logger.Sync()
}

func (s *session) printJSON(v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(s.out, string(payload))
	return err
}

func buildLogger(verbose bool) *zap.Logger {
	if verbose {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}
