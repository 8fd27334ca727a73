// Package main provides the CLI entrypoint for attentive.
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
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/attentive/internal/clock"
	"github.com/verte-zerg/attentive/internal/config"
	"github.com/verte-zerg/attentive/internal/csvsink"
	"github.com/verte-zerg/attentive/internal/engine"
	"github.com/verte-zerg/attentive/internal/model"
	"github.com/verte-zerg/attentive/internal/monitor"
	"github.com/verte-zerg/attentive/internal/record"
	"github.com/verte-zerg/attentive/internal/source"
	"github.com/verte-zerg/attentive/internal/stats"
	"github.com/verte-zerg/attentive/internal/statsui"
	"github.com/verte-zerg/attentive/internal/store"
)

const (
	defaultCurveWindow = 5
	defaultRankN       = 3
	defaultPlotHeight  = 10
	defaultLogLevel    = "info"
	envFile            = ".env"
)

var (
	configPath string
	dbPath     string

	runFaceThreshold float64
	runEyeThreshold  float64
	runHysteresis    float64
	runLogInterval   float64
	runAlertDelay    float64
	runSeedFirst     bool
	runHeadless      bool
	runReplay        bool
	runInput         string
	runLogDir        string
	runNoCSV         bool
	runNoSQLite      bool
	runLogLevel      string

	statsSince  string
	statsLast   int
	statsWindow int
	statsTUI    bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "attentive",
		Short:         "Track screen attention from a face landmark stream",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runMonitorCmd,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "SQLite database path")

	rootCmd.Flags().Float64Var(&runFaceThreshold, "face-threshold", model.DefaultFaceThreshold, "max nose offset counted as facing the screen")
	rootCmd.Flags().Float64Var(&runEyeThreshold, "eye-threshold", model.DefaultEyeThreshold, "max iris offset counted as looking at the screen")
	rootCmd.Flags().Float64Var(&runHysteresis, "hysteresis", model.DefaultHysteresisDelay.Seconds(), "seconds a new state must hold before it commits")
	rootCmd.Flags().Float64Var(&runLogInterval, "log-interval", model.DefaultLogInterval.Seconds(), "seconds between persisted samples")
	rootCmd.Flags().Float64Var(&runAlertDelay, "alert-delay", model.DefaultAlertDelay.Seconds(), "seconds of distraction before an alert")
	rootCmd.Flags().BoolVar(&runSeedFirst, "seed-first", false, "commit the first observation without debounce")
	rootCmd.Flags().BoolVar(&runHeadless, "headless", false, "run without the terminal UI")
	rootCmd.Flags().BoolVar(&runReplay, "replay", false, "drive time from event timestamps (implies --headless)")
	rootCmd.Flags().StringVar(&runInput, "input", "-", "landmark stream file, - for stdin")
	rootCmd.Flags().StringVar(&runLogDir, "log-dir", config.DefaultLogDir(), "directory for CSV logs")
	rootCmd.Flags().BoolVar(&runNoCSV, "no-csv", false, "do not write CSV logs")
	rootCmd.Flags().BoolVar(&runNoSQLite, "no-sqlite", false, "do not write to the database")
	rootCmd.Flags().StringVar(&runLogLevel, "log-level", defaultLogLevel, "debug, info, warn or error")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

// outputPaths records where a session was written.
type outputPaths struct {
	csvLog     string
	csvSummary string
	db         string
	debugLog   string
}

func runMonitorCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, out, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyFloatConfig(cmd, "face-threshold", &runFaceThreshold, fileCfg.Engine.FaceThreshold)
	applyFloatConfig(cmd, "eye-threshold", &runEyeThreshold, fileCfg.Engine.EyeThreshold)
	applyFloatConfig(cmd, "hysteresis", &runHysteresis, fileCfg.Engine.HysteresisDelay)
	applyFloatConfig(cmd, "log-interval", &runLogInterval, fileCfg.Engine.LogInterval)
	applyFloatConfig(cmd, "alert-delay", &runAlertDelay, fileCfg.Engine.AlertDelay)
	applyBoolConfig(cmd, "seed-first", &runSeedFirst, fileCfg.Engine.SeedFirst)
	applyStringConfig(cmd, "log-dir", &runLogDir, out.Dir)
	applyStringConfig(cmd, "log-level", &runLogLevel, out.LogLevel)
	applyNegatedBoolConfig(cmd, "no-csv", &runNoCSV, out.CSV)
	applyNegatedBoolConfig(cmd, "no-sqlite", &runNoSQLite, out.SQLite)

	headless := runHeadless || runReplay || !term.IsTerminal(int(os.Stdout.Fd()))
	var paths outputPaths

	var logger *slog.Logger
	if headless {
		logger = config.NewLogger(os.Stderr, runLogLevel)
	} else {
		paths.debugLog = config.DefaultDebugLogPath()
		logFile, err := openDebugLog(paths.debugLog)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := logFile.Close(); cerr != nil {
				// Best-effort close of the diagnostics file.
				_ = cerr
			}
		}()
		logger = config.NewLogger(logFile, runLogLevel)
	}

	input, fromStdin, err := openInput(runInput)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := input.Close(); cerr != nil {
			logger.Warn("failed to close input", "err", cerr)
		}
	}()

	var sinks record.MultiSink
	if !runNoCSV {
		csvSink, err := csvsink.Open(runLogDir, time.Now())
		if err != nil {
			return err
		}
		defer func() {
			if cerr := csvSink.Close(); cerr != nil {
				logger.Warn("failed to close csv log", "err", cerr)
			}
		}()
		paths.csvLog, paths.csvSummary = csvSink.LogPath(), csvSink.SummaryPath()
		sinks = append(sinks, csvSink)
	}
	if !runNoSQLite {
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logger.Warn("failed to close db", "err", cerr)
			}
		}()
		paths.db = dbPath
		sinks = append(sinks, st)
	}

	var clk clock.Clock = clock.Wall
	if runReplay {
		clk = clock.NewManual(time.Time{})
	}
	eng, err := engine.New(engine.Options{
		Settings: engineSettings(),
		Clock:    clk,
		Sink:     sinks,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	src := source.NewJSONLines(input)

	var rec model.SummaryRecord
	if headless {
		rec, err = eng.Run(ctx, src)
	} else {
		rec, err = runMonitor(ctx, eng, src, fromStdin)
	}
	if perr := printSummary(cmd.OutOrStdout(), rec, paths); perr != nil {
		return errors.Join(err, perr)
	}
	return err
}

func runMonitor(ctx context.Context, eng *engine.Engine, src source.Source, fromStdin bool) (model.SummaryRecord, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := monitor.New(ctx, eng, src)
	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if fromStdin {
		opts = append(opts, tea.WithInputTTY())
	}
	program := tea.NewProgram(m, opts...)
	_, runErr := program.Run()
	if errors.Is(runErr, tea.ErrProgramKilled) && ctx.Err() != nil {
		runErr = nil
	}
	if runErr != nil {
		runErr = fmt.Errorf("failed to run monitor: %w", runErr)
	}
	cancel()
	rec, err := eng.Close(context.Background())
	return rec, errors.Join(runErr, m.Err(), err)
}

func loadConfig(cmd *cobra.Command) (config.FileConfig, config.OutputConfig, error) {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.FileConfig{}, config.OutputConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	env, err := config.LoadEnv(envFile)
	if err != nil {
		return config.FileConfig{}, config.OutputConfig{}, fmt.Errorf("failed to load %s: %w", envFile, err)
	}
	out := env.Apply(fileCfg.Output)
	applyStringConfig(cmd, "db", &dbPath, out.DB)
	return fileCfg, out, nil
}

func engineSettings() model.Settings {
	return model.Settings{
		FaceThreshold:   runFaceThreshold,
		EyeThreshold:    runEyeThreshold,
		HysteresisDelay: config.Seconds(runHysteresis),
		LogInterval:     config.Seconds(runLogInterval),
		AlertDelay:      config.Seconds(runAlertDelay),
		SeedFromFirst:   runSeedFirst,
	}.Clamp()
}

func openInput(path string) (io.ReadCloser, bool, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), true, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open input: %w", err)
	}
	return f, false, nil
}

func openDebugLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open debug log: %w", err)
	}
	return f, nil
}

func printSummary(w io.Writer, rec model.SummaryRecord, paths outputPaths) error {
	lines := []string{
		fmt.Sprintf("Session %s", rec.SessionID),
		fmt.Sprintf("Total time:     %s", stats.FormatClockSeconds(rec.TotalSeconds)),
		fmt.Sprintf("Attentive time: %s", stats.FormatClockSeconds(rec.AttentionSeconds)),
		fmt.Sprintf("Attention rate: %.1f%%", rec.AttentionPct),
	}
	if paths.csvLog != "" {
		lines = append(lines,
			fmt.Sprintf("Sample log:     %s", paths.csvLog),
			fmt.Sprintf("Summary log:    %s", paths.csvSummary))
	}
	if paths.db != "" {
		lines = append(lines, fmt.Sprintf("Database:       %s", paths.db))
	}
	if paths.debugLog != "" {
		lines = append(lines, fmt.Sprintf("Diagnostics:    %s", paths.debugLog))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
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
	path := configPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.DefaultTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stored session stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsWindow, "window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&statsTUI, "tui", false, "browse stats interactively")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	if _, _, err := loadConfig(cmd); err != nil {
		return err
	}
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	cfg := model.StatsConfig{Since: sinceTime, Last: statsLast}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if statsTUI {
		program := tea.NewProgram(statsui.NewModel(st, cfg, statsWindow), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run stats TUI: %w", err)
		}
		return nil
	}

	report, err := stats.BuildReport(cmd.Context(), st, cfg, defaultRankN)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}
	return renderReport(cmd.OutOrStdout(), report, statsWindow)
}

func renderReport(w io.Writer, report stats.Report, window int) error {
	if err := stats.RenderSummary(w, report.Sessions); err != nil {
		return err
	}
	if len(report.Sessions) == 0 {
		return nil
	}
	if err := stats.RenderRateCurve(w, report.Sessions, window, 0, defaultPlotHeight, false); err != nil {
		return err
	}
	if err := stats.RenderRanked(w, "Best sessions", report.Best); err != nil {
		return err
	}
	if err := stats.RenderRanked(w, "Weakest sessions", report.Weakest); err != nil {
		return err
	}
	return stats.RenderSessionTable(w, report.Sessions)
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

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
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

// applyNegatedBoolConfig maps an "enabled" config value onto a --no-* flag.
func applyNegatedBoolConfig(cmd *cobra.Command, name string, target, enabled *bool) {
	if enabled == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = !*enabled
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
