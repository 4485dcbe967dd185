package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/honganh1206/tgterm/repl"
	"github.com/honganh1206/tgterm/search"
	"github.com/honganh1206/tgterm/telegram"
	"github.com/honganh1206/tgterm/termio"
	"github.com/honganh1206/tgterm/tui"
	"github.com/honganh1206/tgterm/utils"
)

const (
	defaultAPIID   = 24144743
	defaultAPIHash = "99905ea6025c351db01950d56a499ce0"

	modeInteractive = "interactive"
	modeLegacy      = "legacy"
)

var (
	apiID       int
	apiHash     string
	sessionName string
	fetchLimit  int
	mode        string
	verbose     bool
	titleFilter string
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func initDataDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".tgterm")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}

// newLogger builds the logger handed to the client library. Verbose logs
// go to a file; stderr would corrupt the full-screen UI.
func newLogger(dataDir string) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{filepath.Join(dataDir, "tgterm.log")}
	cfg.ErrorOutputPaths = cfg.OutputPaths
	return cfg.Build()
}

func newService(io termio.IO, logger *zap.Logger, dataDir string) *telegram.Client {
	return telegram.NewClient(telegram.Config{
		APIID:       apiID,
		APIHash:     apiHash,
		SessionName: sessionName,
		SessionPath: filepath.Join(dataDir, "sessions.db"),
		IO:          io,
		Logger:      logger,
	})
}

func ChatHandler(cmd *cobra.Command, args []string) error {
	if mode != modeInteractive && mode != modeLegacy {
		return fmt.Errorf("unknown mode %q (expected %q or %q)", mode, modeInteractive, modeLegacy)
	}

	dataDir, err := initDataDir()
	if err != nil {
		return err
	}
	logger, err := newLogger(dataDir)
	if err != nil {
		return err
	}
	defer logger.Sync()

	stdio := termio.NewStdIO()
	service := newService(stdio, logger, dataDir)

	ctx := cmd.Context()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		select {
		case <-sigCh:
			stdio.Write("\nInterrupted, shutting down...")
			service.Disconnect(context.Background())
			os.Exit(0)
		case <-quit:
		}
	}()

	if mode == modeLegacy {
		return repl.New(service, stdio, fetchLimit).Start(ctx)
	}
	return tui.New(service, fetchLimit).Run(ctx)
}

// DialogsHandler prints the dialog list once and exits, for scripting and
// quick lookups without entering a chat loop.
func DialogsHandler(cmd *cobra.Command, args []string) error {
	dataDir, err := initDataDir()
	if err != nil {
		return err
	}
	logger, err := newLogger(dataDir)
	if err != nil {
		return err
	}
	defer logger.Sync()

	stdio := termio.NewStdIO()
	service := newService(stdio, logger, dataDir)

	ctx := cmd.Context()
	if err := service.Connect(ctx); err != nil {
		return err
	}
	defer service.Disconnect(ctx)

	dialogs, err := service.FetchDialogs(ctx, fetchLimit)
	if err != nil {
		return err
	}
	if titleFilter != "" {
		titles := make([]string, len(dialogs))
		for i, dialog := range dialogs {
			titles[i] = dialog.Title
		}
		matches := search.New(titles).Search(titleFilter)
		filtered := make([]telegram.Dialog, 0, len(matches))
		for _, index := range matches {
			filtered = append(filtered, dialogs[index])
		}
		dialogs = filtered
	}

	if len(dialogs) == 0 {
		fmt.Println("No dialogs found.")
		return nil
	}

	headers := []string{"#", "ID", "Title"}
	var data [][]string
	for index, dialog := range dialogs {
		data = append(data, []string{
			strconv.Itoa(index),
			strconv.FormatInt(dialog.ID, 10),
			dialog.Title,
		})
	}
	utils.RenderTable(headers, data)
	return nil
}

func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tgterm",
		Short: "A terminal interface for Telegram",
		RunE:  ChatHandler,
	}

	rootCmd.PersistentFlags().IntVar(&apiID, "api-id", envInt("TELEGRAM_API_ID", defaultAPIID), "Telegram application id")
	rootCmd.PersistentFlags().StringVar(&apiHash, "api-hash", envString("TELEGRAM_API_HASH", defaultAPIHash), "Telegram application hash")
	rootCmd.PersistentFlags().StringVar(&sessionName, "session", envString("TELEGRAM_SESSION", "terminal_session"), "Name of the stored session")
	rootCmd.PersistentFlags().IntVar(&fetchLimit, "limit", 25, "Initial number of messages to load")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Write client library logs to ~/.tgterm/tgterm.log")
	rootCmd.Flags().StringVar(&mode, "mode", envString("TERMINAL_TELEGRAM_MODE", modeInteractive),
		"`interactive` launches the full-screen UI, `legacy` keeps the simple prompt")

	dialogsCmd := &cobra.Command{
		Use:   "dialogs",
		Short: "List dialogs and exit",
		Args:  cobra.ExactArgs(0),
		RunE:  DialogsHandler,
	}
	dialogsCmd.Flags().StringVarP(&titleFilter, "filter", "f", "", "Only show dialogs whose title matches the term")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of tgterm",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tgterm version %s (commit: %s, built: %s)\n", Version, GitCommit, BuildTime)
		},
	}

	rootCmd.AddCommand(dialogsCmd, versionCmd)

	return rootCmd
}

func envInt(name string, fallback int) int {
	value := os.Getenv(name)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envString(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}
