// Package main is the entry point for the Pacewatch TUI application.
// It initializes configuration, services, and runs the Bubble Tea program.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/pacewatch-tui/internal/app"
	"github.com/j-veylop/pacewatch-tui/internal/config"
	"github.com/j-veylop/pacewatch-tui/internal/logger"
	"github.com/j-veylop/pacewatch-tui/internal/services"
	"github.com/j-veylop/pacewatch-tui/internal/ui/tabs/dashboard"
	"github.com/j-veylop/pacewatch-tui/internal/ui/tabs/history"
	"github.com/j-veylop/pacewatch-tui/internal/ui/tabs/info"
	"github.com/j-veylop/pacewatch-tui/internal/version"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Handle help flag
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		printUsage()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run contains the main application logic, separated for cleaner error handling.
func run() error {
	// 1. Load configuration from .env files and environment variables
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Route logs to a file so they never corrupt the alternate screen
	logger.Init(cfg.LogPath)

	// 3. Initialize the service manager
	// This starts the poller, the pacing engine, and the snapshot store
	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	// Ensure cleanup on exit
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	// 4. Create the root Bubble Tea model
	model := app.NewModel(svcManager)

	// 5. Initialize tabs with shared state and services
	state := model.GetState()
	tabs := []app.Tab{
		dashboard.New(state, svcManager),
		history.New(state, svcManager),
		info.New(state, cfg, svcManager),
	}
	model.SetTabs(tabs)

	// 6. Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// 7. Create and configure the Bubble Tea program
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),       // Use alternate screen buffer (full terminal)
		tea.WithMouseCellMotion(), // Enable mouse support for selection
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	// 8. Run the TUI program
	// This blocks until the user quits or an error occurs
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`Pacewatch - usage pacing advisor for a metered coding-assistant API

Usage:
  pacewatch [flags]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts:
  1-3             Switch between tabs (Dashboard, History, Info)
  Tab/Shift+Tab   Navigate between tabs
  j/k, Up/Down    Scroll
  t               Toggle history time range
  r               Poll the usage API now
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  PACEWATCH_DATABASE_PATH              SQLite snapshot database path
  PACEWATCH_STATE_PATH                 Engine state JSON path
  PACEWATCH_CREDENTIALS_PATH           OAuth credentials file path
  PACEWATCH_LOG_PATH                   Log file path
  PACEWATCH_API_BASE_URL               Usage API base URL
  PACEWATCH_POLL_INTERVAL              Poll interval (default: 300s)
  PACEWATCH_ACTIVE_HOURS               Comma-separated active hours per weekday, Sunday first
  PACEWATCH_ACTIVE_START_HOUR          Local hour the active window starts (default: 10)
  PACEWATCH_DAY_BOUNDARY_HOUR          Local hour a new day begins (default: 4)
  PACEWATCH_FALLBACK_SESSIONS_PER_DAY  Expected sessions per day before history exists

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.config/pacewatch/.env
  - ~/.pacewatch/.env

For more information, visit: https://github.com/j-veylop/pacewatch-tui`)
}
