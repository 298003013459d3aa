// univerify is a command-line client for the UniVerify document anchoring
// service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/univerify/univerify/internal/app"
	"github.com/univerify/univerify/internal/config"
)

var (
	// Global flags
	baseURL  string
	apiToken string
	verbose  bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "univerify",
		Short: "UniVerify CLI - Anchor and verify documents from the command line",
		Long: `UniVerify CLI uploads documents to the UniVerify service, waits for their
blockchain transactions to confirm and verifies anchored documents.

Configuration:
  Settings are read from UNIVERIFY_* environment variables and an optional .env
  file. Use --url and --token to override the backend URL and session token.

Examples:
  univerify login
  univerify upload diploma.pdf
  univerify verify arTx123 0xdeadbeef
  univerify serve`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "", "UniVerify backend URL (default: UNIVERIFY_API_URL env)")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", os.Getenv("UNIVERIFY_TOKEN"), "Session token (or UNIVERIFY_TOKEN env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(signupCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(healthCmd())
	rootCmd.AddCommand(uploadCmd())
	rootCmd.AddCommand(txCmd())
	rootCmd.AddCommand(verifyCmd())
	rootCmd.AddCommand(linkCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(documentsCmd())
	rootCmd.AddCommand(shareCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(receiptsCmd())
	rootCmd.AddCommand(serveCmd())

	return rootCmd
}

// loadConfig reads the configuration and applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if baseURL != "" {
		cfg.APIURL = strings.TrimRight(baseURL, "/")
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// openApp builds the application for a command. The caller must Close it.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := app.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	// Security warning if token is passed via command line
	if apiToken != "" && os.Getenv("UNIVERIFY_TOKEN") == "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "[WARNING] Token passed via command line is visible in process list. Use UNIVERIFY_TOKEN environment variable instead.")
	}

	return app.New(cmd.Context(), cfg, app.Options{Token: apiToken, Logger: logger})
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

func progressBar(percentage int) string {
	width := 30
	filled := percentage * width / 100
	empty := width - filled
	return fmt.Sprintf("[%s%s]", strings.Repeat("█", filled), strings.Repeat("░", empty))
}

func rule(width int) string {
	return strings.Repeat("─", width)
}
