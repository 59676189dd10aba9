// Package main provides the CLI entrypoint for studylog.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/studylog/internal/tui"
)

var configPath string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "studylog",
		Short:         "Study tracker with lessons, timed notes and statistics",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runTUICmd,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/studylog/config.toml)")

	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newTimerCmd())

	return rootCmd
}

func runTUICmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context(), configPath, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go a.ctl.Run(ctx, a.cfg.Display.TickInterval.Duration)

	model := tui.NewApp(tui.Deps{
		Controller: a.ctl,
		Statistics: a.statistics,
		Export:     a.store,
		Settings:   a.store,
		Location:   a.loc,
		ExportDir:  a.exportDir(),
		Logger:     a.log,
	})
	defer model.Close()

	a.log.Info("tui started", "db", a.cfg.Storage.DBPath, "timer_backend", a.cfg.Storage.TimerBackend)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	a.log.Info("tui stopped")
	return nil
}
