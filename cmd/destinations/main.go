package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/neexbeast/destinations/internal/config"
	"github.com/neexbeast/destinations/internal/destination"
	"github.com/neexbeast/destinations/internal/store"
)

const (
	FlagAPIURL  = "api-url"
	FlagEnvFile = "env-file"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd returns the base command with every subcommand attached.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "destinations",
		Short:        "Browse, search and edit travel destinations",
		SilenceUsage: true,
	}
	root.PersistentFlags().String(FlagAPIURL, "", "(optional) destination API base URL, overrides DESTINATIONS_API_URL")
	root.PersistentFlags().String(FlagEnvFile, ".env", "(optional) env file to load")

	root.AddCommand(
		newListCmd(),
		newShowCmd(),
		newAddCmd(),
		newEditCmd(),
		newDeleteCmd(),
		newServeCmd(),
	)
	return root
}

// app is the wiring shared by every command: one store, one tracker.
type app struct {
	cfg     config.Config
	log     *slog.Logger
	store   *store.Store
	tracker *store.Tracker
}

// newApp loads configuration and wires the client, store and tracker.
// Logs go to logOut, JSON-encoded when jsonLogs is set.
func newApp(cmd *cobra.Command, logOut io.Writer, jsonLogs bool) (*app, error) {
	envFile, err := cmd.Flags().GetString(FlagEnvFile)
	if err != nil {
		return nil, fmt.Errorf("%s flag: %w", FlagEnvFile, err)
	}
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	apiURL, err := cmd.Flags().GetString(FlagAPIURL)
	if err != nil {
		return nil, fmt.Errorf("%s flag: %w", FlagAPIURL, err)
	}
	if apiURL != "" {
		cfg.APIBaseURL = apiURL
	}

	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var log *slog.Logger
	if jsonLogs {
		log = slog.New(slog.NewJSONHandler(logOut, opts))
	} else {
		log = slog.New(slog.NewTextHandler(logOut, opts))
	}

	s := store.New()
	client := destination.NewClient(cfg.APIBaseURL)

	return &app{
		cfg:     cfg,
		log:     log,
		store:   s,
		tracker: store.NewTracker(client, s, log),
	}, nil
}
