package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/deployable-tech/deployable-knowledge-web/app/web"
	"github.com/deployable-tech/deployable-knowledge-web/core/config"
	"github.com/deployable-tech/deployable-knowledge-web/core/logger"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "knowledgeweb",
		Short:         "Deployable Knowledge web backend",
		Long:          "knowledgeweb serves the Deployable Knowledge UI with server-side sessions and file-backed conversations.\nConfiguration is read from the environment and an optional .env file.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	sessions := &cobra.Command{Use: "sessions", Short: "Session maintenance"}
	sessions.AddCommand(newSweepCmd())

	conversations := &cobra.Command{Use: "conversations", Short: "Conversation maintenance"}
	conversations.AddCommand(newPruneCmd(), newListCmd())

	root.AddCommand(newServeCmd(), sessions, conversations)
	return root
}

// loadApp builds the application from the environment. addr overrides SERVER_ADDR when set.
func loadApp(addr string) (*web.App, error) {
	var cfg web.Config
	if err := config.Load(&cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	return web.New(cfg)
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and the session janitor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(addr)
			if err != nil {
				return err
			}
			return app.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides SERVER_ADDR)")
	return cmd
}

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired, idle and unreadable session records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp("")
			if err != nil {
				return err
			}
			start := time.Now()
			n, err := app.Sessions().Sweep(cmd.Context())
			if err != nil {
				return err
			}
			app.Logger().InfoContext(cmd.Context(), "sessions swept",
				logger.Component("cli"), logger.Count("removed", n), logger.Duration(time.Since(start)))
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d session(s)\n", n)
			return nil
		},
	}
}

func newPruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete conversations that have no exchanges",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp("")
			if err != nil {
				return err
			}
			n, err := app.Conversations().PruneEmpty(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d empty conversation(s)\n", n)
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored conversations, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp("")
			if err != nil {
				return err
			}
			list, err := app.Conversations().List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			for _, s := range list {
				fmt.Fprintf(out, "%s\t%s\n", s.ID, s.UpdatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
