package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/permitagent/permitagent/config"
	"github.com/permitagent/permitagent/errors"
	"github.com/permitagent/permitagent/server"
	"github.com/permitagent/permitagent/server/completion"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is the release reported by --version.
const Version = "v0.1.0"

type options struct {
	configFile string
	validate   bool
	version    bool
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "permitagent",
		Short: "permitagent answers building permit questions through a completion API",
		Long: "permitagent serves POST /ask, forwarding each question to an OpenAI-compatible\n" +
			"completion API and returning the answer. The credential is read from " + config.APIKeyEnv + ".",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.configFile, "config", "", "path to YAML configuration file (defaults are used when empty)")
	cmd.Flags().BoolVar(&opts.validate, "validate", false, "validate configuration and exit")
	cmd.Flags().BoolVar(&opts.version, "version", false, "print version and exit")
	return cmd
}

func run(ctx context.Context, opts options, out io.Writer) error {
	if opts.version {
		fmt.Fprintf(out, "permitagent %s\n", Version)
		return nil
	}

	cfg, err := config.Resolve(opts.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if opts.validate {
		fmt.Fprintln(out, "Configuration is valid")
		return nil
	}

	logger, err := cfg.Logging.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	errors.SetLogger(logger)

	handle, err := completion.NewHandle(cfg.LLM)
	if err != nil {
		return fmt.Errorf("create completion client: %w", err)
	}
	if !handle.IsConfigured() {
		logger.Error(config.APIKeyEnv + " not set; POST /ask will fail until it is configured")
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received",
				zap.String("signal", sig.String()),
			)
			cancel()
		case <-ctx.Done():
		}
	}()

	logger.Info("Starting permitagent",
		zap.String("version", Version),
		zap.Int("port", cfg.Server.Port),
		zap.String("backend", cfg.LLM.Backend),
		zap.String("model", cfg.LLM.Model),
	)
	return server.NewServer(cfg, handle, logger).Start(ctx)
}
