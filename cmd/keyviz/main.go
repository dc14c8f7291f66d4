// Package main provides the CLI entrypoint for keyviz.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/keyviz/internal/clock"
	"github.com/verte-zerg/keyviz/internal/config"
	"github.com/verte-zerg/keyviz/internal/logging"
	"github.com/verte-zerg/keyviz/internal/model"
	"github.com/verte-zerg/keyviz/internal/replay"
	"github.com/verte-zerg/keyviz/internal/report"
	"github.com/verte-zerg/keyviz/internal/session"
	"github.com/verte-zerg/keyviz/internal/store"
	"github.com/verte-zerg/keyviz/internal/tui"
	"github.com/verte-zerg/keyviz/internal/web"
)

const (
	defaultAddr        = "127.0.0.1:8765"
	defaultReplayLimit = 20
)

var (
	sessionLogRows       int
	sessionPatternLength int
	terminalReleaseAfter time.Duration
	terminalNoAltScreen  bool
	recordName           string

	serveAddr string

	replayLimit int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "keyviz",
		Short:         "Keyboard activity visualizer",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runTerminalCmd,
	}

	addSessionFlags(rootCmd)
	rootCmd.Flags().DurationVar(&terminalReleaseAfter, "release-after", tui.DefaultReleaseAfter, "synthesize a key release after this long without a press")
	rootCmd.Flags().BoolVar(&terminalNoAltScreen, "no-alt-screen", false, "draw inline instead of the alternate screen")
	rootCmd.Flags().StringVar(&recordName, "record", "", "record raw input under this trace name")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newTracesCmd())
	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&sessionLogRows, "log-rows", session.DefaultLogRows, "event log rows to retain")
	cmd.Flags().IntVar(&sessionPatternLength, "pattern-length", session.DefaultPatternLength, "repeat pattern labels to retain")
}

// loadSettings merges the config file under the command's flags.
func loadSettings(cmd *cobra.Command) (model.Config, config.LogConfig, error) {
	fileCfg, err := config.LoadConfig(config.ResolveConfigPath())
	if err != nil {
		return model.Config{}, config.LogConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "log-rows", &sessionLogRows, fileCfg.Session.LogRows)
	applyIntConfig(cmd, "pattern-length", &sessionPatternLength, fileCfg.Session.PatternLength)
	applyMillisConfig(cmd, "release-after", &terminalReleaseAfter, fileCfg.Terminal.ReleaseAfterMs)
	applyBoolConfig(cmd, "no-alt-screen", &terminalNoAltScreen, fileCfg.Terminal.NoAltScreen)
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Web.Addr)

	cfg := model.Config{
		LogRows:       sessionLogRows,
		PatternLength: sessionPatternLength,
		ReleaseAfter:  terminalReleaseAfter,
		AltScreen:     !terminalNoAltScreen,
		Addr:          serveAddr,
		Record:        strings.TrimSpace(recordName),
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, config.LogConfig{}, err
	}
	return cfg, fileCfg.Log, nil
}

func newSession(c clock.Clock, cfg model.Config) *session.Session {
	return session.New(c,
		session.WithLogRows(cfg.LogRows),
		session.WithPatternLength(cfg.PatternLength),
	)
}

func newLogger(logCfg config.LogConfig, out io.Writer) (*slog.Logger, error) {
	opts := logging.Options{Output: out}
	if logCfg.Level != nil {
		opts.Level = *logCfg.Level
	}
	if logCfg.Format != nil {
		opts.Format = *logCfg.Format
	}
	logger, err := logging.New(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}
	return logger, nil
}

func runTerminalCmd(cmd *cobra.Command, _ []string) error {
	cfg, logCfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if err := validateTerminalConfig(cfg); err != nil {
		return err
	}

	// The TUI owns the terminal, so logs go to a file.
	logFile, err := logging.OpenFile(config.DefaultLogPath())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := logFile.Close(); cerr != nil {
			logErrf("failed to close log file: %v\n", cerr)
		}
	}()
	logger, err := newLogger(logCfg, logFile)
	if err != nil {
		return err
	}

	c := clock.NewMonotonic()
	s := newSession(c, cfg)
	opts := tui.Options{ReleaseAfter: cfg.ReleaseAfter, Logger: logger}

	if cfg.Record != "" {
		st, rec, err := openRecorder(cmd.Context(), cfg.Record, "terminal", s.Origin())
		if err != nil {
			return err
		}
		defer closeRecorder(st, rec, logger)
		opts.Recorder = rec
		logger.Info("recording trace", "trace_id", rec.TraceID(), "name", cfg.Record)
	}

	var programOpts []tea.ProgramOption
	if cfg.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	program := tea.NewProgram(tui.NewModel(s, c, opts), programOpts...)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser visualizer",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	addSessionFlags(cmd)
	cmd.Flags().StringVar(&serveAddr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&recordName, "record", "", "record raw input under this trace name")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, logCfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if cfg.Addr == "" {
		return fmt.Errorf("--addr must not be empty")
	}
	logger, err := newLogger(logCfg, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &clock.Observed{}
	s := newSession(c, cfg)
	opts := web.Options{Logger: logger}

	if cfg.Record != "" {
		st, rec, err := openRecorder(ctx, cfg.Record, "web", s.Origin())
		if err != nil {
			return err
		}
		defer closeRecorder(st, rec, logger)
		opts.Recorder = rec
		logger.Info("recording trace", "trace_id", rec.TraceID(), "name", cfg.Record)
	}

	srv := web.New(s, c, opts)
	if _, err := fmt.Fprintf(cmd.ErrOrStderr(), "Open http://%s/ and start typing.\n", cfg.Addr); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return srv.ListenAndServe(ctx, cfg.Addr)
}

func openRecorder(ctx context.Context, name, source string, originMs float64) (*store.Store, *store.Recorder, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(config.DefaultTraceDBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	rec, err := store.NewRecorder(ctx, st, name, source, originMs)
	if err != nil {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
		return nil, nil, fmt.Errorf("failed to start trace: %w", err)
	}
	return st, rec, nil
}

func closeRecorder(st *store.Store, rec *store.Recorder, logger *slog.Logger) {
	if err := rec.Flush(context.Background()); err != nil {
		logger.Error("failed to flush trace", "trace_id", rec.TraceID(), "err", err)
		logErrf("failed to flush trace: %v\n", err)
	}
	if err := st.Close(); err != nil {
		logErrf("failed to close db: %v\n", err)
	}
}

func newTracesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "traces",
		Short: "List recorded traces",
		Args:  cobra.NoArgs,
		RunE:  runTracesCmd,
	}
}

func runTracesCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultTraceDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	traces, err := st.ListTraces(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list traces: %w", err)
	}
	if err := report.RenderTraces(cmd.OutOrStdout(), traces); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <trace-id|uid>",
		Short: "Replay a recorded trace and print the final views",
		Args:  cobra.ExactArgs(1),
		RunE:  runReplayCmd,
	}
	addSessionFlags(cmd)
	cmd.Flags().IntVar(&replayLimit, "limit", defaultReplayLimit, "log rows to print (0 prints all retained rows)")
	return cmd
}

func runReplayCmd(cmd *cobra.Command, args []string) error {
	if replayLimit < 0 {
		return fmt.Errorf("--limit must be >= 0")
	}
	cfg, _, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultTraceDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ref := strings.TrimSpace(args[0])
	id, err := resolveTraceRef(cmd.Context(), st, ref)
	if err != nil {
		return err
	}
	info, actions, err := st.LoadTrace(cmd.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrTraceNotFound) {
			return fmt.Errorf("trace %s not found (run: keyviz traces)", ref)
		}
		return fmt.Errorf("failed to load trace: %w", err)
	}

	res := replay.Run(info, actions,
		session.WithLogRows(cfg.LogRows),
		session.WithPatternLength(cfg.PatternLength),
	)
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "Trace %d %q (%s): %d actions applied, %d ignored\n\n",
		info.ID, info.Name, info.Source, res.Applied, res.Ignored); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	opts := report.Options{Width: report.TerminalWidth(), MaxLogRows: replayLimit}
	if err := report.Render(out, res.Session, opts); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// resolveTraceRef accepts a numeric trace id or a trace UID.
func resolveTraceRef(ctx context.Context, st *store.Store, ref string) (int64, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return id, nil
	}
	if _, err := uuid.Parse(ref); err != nil {
		return 0, fmt.Errorf("invalid trace id %q", ref)
	}
	id, err := st.FindTrace(ctx, ref)
	if err != nil {
		if errors.Is(err, store.ErrTraceNotFound) {
			return 0, fmt.Errorf("trace %s not found (run: keyviz traces)", ref)
		}
		return 0, fmt.Errorf("failed to find trace: %w", err)
	}
	return id, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.ResolveConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyMillisConfig(cmd *cobra.Command, name string, target *time.Duration, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = time.Duration(*value) * time.Millisecond
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# keyviz configuration
# Uncomment a value to enable it. CLI flags override config values.

[session]
# log-rows = %d           # Event log rows to retain
# pattern-length = %d      # Repeat pattern labels to retain

[terminal]
# release-after-ms = %d   # Synthesize a key release after this many ms without a press
# no-alt-screen = false    # Draw inline instead of the alternate screen

[web]
# addr = %q

[log]
# level = "info"           # debug, info, warn, error
# format = "text"          # text or json
`,
		session.DefaultLogRows,
		session.DefaultPatternLength,
		tui.DefaultReleaseAfter.Milliseconds(),
		defaultAddr,
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.LogRows <= 0 {
		return fmt.Errorf("--log-rows must be > 0")
	}
	if cfg.PatternLength <= 0 {
		return fmt.Errorf("--pattern-length must be > 0")
	}
	return nil
}

// validateTerminalConfig checks settings only the terminal front end reads.
func validateTerminalConfig(cfg model.Config) error {
	if cfg.ReleaseAfter <= 0 {
		return fmt.Errorf("--release-after must be > 0")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
