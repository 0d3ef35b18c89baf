package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gitlab.com/greyxor/slogor"

	"github.com/rhettg/noteapi/internal/cmd/add"
	"github.com/rhettg/noteapi/internal/cmd/list"
	"github.com/rhettg/noteapi/internal/cmd/probe"
	"github.com/rhettg/noteapi/internal/cmd/server"
)

func setupLogging(level string) error {
	var l slog.Level
	switch level {
	case "info":
		l = slog.LevelInfo
	case "debug":
		l = slog.LevelDebug
	default:
		return fmt.Errorf("unknown log level %q: want info|debug", level)
	}

	slog.SetDefault(slog.New(slogor.NewHandler(os.Stderr, &slogor.Options{
		Level:      l,
		TimeFormat: time.Stamp,
	})))
	return nil
}

func defaultServerURL() string {
	if u := os.Getenv("NOTEAPI_URL"); u != "" {
		return u
	}
	return "http://localhost:8000"
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "noteapi",
		Short:        "A minimal note-taking HTTP service",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := cmd.Flags().GetString("log-level")
			if err != nil {
				return err
			}
			return setupLogging(level)
		},
	}
	rootCmd.PersistentFlags().String("log-level", "info", "Set the logging level (info or debug)")

	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Start the noteapi server",
		Args:  cobra.NoArgs,
		RunE:  server.DoServer,
	}
	serverCmd.Flags().String("config", "", "Path to a YAML config file")
	rootCmd.AddCommand(serverCmd)

	notesCmd := &cobra.Command{
		Use:   "notes",
		Short: "Read and write notes on a running server",
	}
	notesCmd.PersistentFlags().String("server", defaultServerURL(), "URL of the noteapi server")
	rootCmd.AddCommand(notesCmd)

	notesCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the most recent notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			serverURL, _ := cmd.Flags().GetString("server")
			return list.DoList(cmd.Context(), cmd.OutOrStdout(), serverURL)
		},
	})

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			serverURL, _ := cmd.Flags().GetString("server")
			title, _ := cmd.Flags().GetString("title")
			content, _ := cmd.Flags().GetString("content")
			return add.DoAdd(cmd.Context(), serverURL, title, content)
		},
	}
	addCmd.Flags().String("title", "", "Note title")
	addCmd.Flags().String("content", "", "Note content")
	notesCmd.AddCommand(addCmd)

	probeCmd := &cobra.Command{
		Use:   "probe [path]",
		Short: "GET a probe endpoint (default /) and print the response",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			serverURL, _ := cmd.Flags().GetString("server")
			path := "/"
			if len(args) == 1 {
				path = args[0]
			}
			return probe.DoProbe(cmd.Context(), cmd.OutOrStdout(), serverURL, path)
		},
	}
	probeCmd.Flags().String("server", defaultServerURL(), "URL of the noteapi server")
	rootCmd.AddCommand(probeCmd)

	return rootCmd
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
