package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/schmitech/orbit-go/pkg/config"
	"github.com/schmitech/orbit-go/pkg/orbit"
	"github.com/schmitech/orbit-go/pkg/ui"
)

var version = "1.0.0"

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		urlFlag        string
		apiKeyFlag     string
		sessionIDFlag  string
		noStreamFlag   bool
		showTimingFlag bool
		debugFlag      bool
	)

	cmd := &cobra.Command{
		Use:   "orbit-chat",
		Short: "Interactive terminal client for an ORBIT chat server",
		Long: `orbit-chat is an interactive terminal client for an ORBIT chat server.
Responses stream in as the server produces them; defaults come from
~/.config/orbit-chat/config.yaml, created on first run.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, urlFlag, apiKeyFlag, sessionIDFlag,
				noStreamFlag, showTimingFlag, debugFlag)
		},
	}

	cmd.Flags().StringVar(&urlFlag, "url", "", "ORBIT server URL (with or without /v1/chat)")
	cmd.Flags().StringVar(&apiKeyFlag, "api-key", "", "API key (or set ORBIT_API_KEY)")
	cmd.Flags().StringVar(&sessionIDFlag, "session-id", "", "session ID to reuse (default: a fresh one per run)")
	cmd.Flags().BoolVar(&noStreamFlag, "no-stream", false, "wait for complete responses instead of streaming")
	cmd.Flags().BoolVar(&showTimingFlag, "show-timing", false, "show latency after each exchange")
	cmd.Flags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
	return cmd
}

func runChat(cmd *cobra.Command, urlFlag, apiKeyFlag, sessionIDFlag string, noStream, showTiming, debug bool) error {
	cfg, err := config.LoadOrCreateConfig()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	// Flags override the config file.
	if urlFlag != "" {
		cfg.URL = urlFlag
	}
	cfg.APIKey = config.ResolveAPIKey(apiKeyFlag, "ORBIT_API_KEY", cfg.APIKey)
	if sessionIDFlag != "" {
		cfg.SessionID = sessionIDFlag
	}
	if cmd.Flags().Changed("no-stream") {
		cfg.Stream = !noStream
	}
	if cmd.Flags().Changed("show-timing") {
		cfg.ShowTiming = showTiming
	}
	if cmd.Flags().Changed("debug") {
		cfg.Debug = debug
	}

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return err
	}

	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if cfg.SessionID == "" {
		cfg.SessionID = ui.NewSessionID()
	}

	clientCfg := orbit.ClientConfig{
		BaseURL:   cfg.URL,
		APIKey:    cfg.APIKey,
		SessionID: cfg.SessionID,
	}
	client, err := orbit.NewClient(clientCfg)
	if err != nil {
		var initErr *orbit.TransportInitError
		if errors.As(err, &initErr) {
			log.Error().Err(err).Msg("Cannot initialize transport")
		}
		return err
	}

	warmupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	client.Warmup(warmupCtx)
	cancel()

	model := ui.NewModel(client, clientCfg, ui.Options{
		Stream:     cfg.Stream,
		ShowTiming: cfg.ShowTiming,
		Debug:      cfg.Debug,
	})
	if _, err := ui.NewProgram(model).Run(); err != nil {
		log.Error().Err(err).Msg("TUI error")
		return err
	}
	return nil
}
