// Package main provides the CLI entrypoint for cwkeyer.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
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

	"github.com/verte-zerg/cwkeyer/internal/config"
	"github.com/verte-zerg/cwkeyer/internal/model"
	"github.com/verte-zerg/cwkeyer/internal/practice"
	"github.com/verte-zerg/cwkeyer/internal/settings"
	"github.com/verte-zerg/cwkeyer/internal/stats"
	"github.com/verte-zerg/cwkeyer/internal/store"
	"github.com/verte-zerg/cwkeyer/internal/tui"
	"github.com/verte-zerg/cwkeyer/internal/webui"
)

const (
	defaultGroups      = 10
	defaultGroupSize   = 5
	defaultCharset     = "letters"
	defaultFocusFactor = 2.0
	defaultSidetone    = "log"
	defaultSidetonePin = 18
	defaultHTTPAddr    = ":8080"
	defaultTrendWindow = 10
	defaultTopChars    = 10
	defaultCommits     = 5
)

var (
	settingsPath    string
	dbPath          string
	noJournal       bool
	sidetoneBackend string
	sidetonePin     int
	logPath         string

	practiceGroups    int
	practiceGroupSize int
	practiceCharset   string
	practiceWords     bool
	wordListPath      string
	focusChars        string
	focusFactor       float64

	runHTTP   string
	feedTrace bool
	serveAddr string

	journalSince   string
	journalLast    int
	journalWindow  int
	journalTop     int
	journalCommits int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cwkeyer",
		Short:         "CW keyer display, speed knob and settings emulator",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runKeyerCmd,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&settingsPath, "settings", config.DefaultSettingsPath(), "device settings document")
	pf.StringVar(&dbPath, "db", config.DefaultDBPath(), "journal database")
	pf.BoolVar(&noJournal, "no-journal", false, "do not record sessions")
	pf.StringVar(&sidetoneBackend, "sidetone", defaultSidetone, "sidetone output: log or rpi")
	pf.IntVar(&sidetonePin, "sidetone-pin", defaultSidetonePin, "BCM pin for the rpi sidetone")
	pf.StringVar(&logPath, "log", "", "write device log lines to this file")

	addPracticeFlags(rootCmd)
	rootCmd.Flags().StringVar(&runHTTP, "http", "", "also serve the settings page on this address")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newFeedCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSettingsCmd())
	rootCmd.AddCommand(newJournalCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func addPracticeFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&practiceGroups, "groups", defaultGroups, "practice items per text")
	cmd.Flags().IntVar(&practiceGroupSize, "group-size", defaultGroupSize, "characters per code group")
	cmd.Flags().StringVar(&practiceCharset, "charset", defaultCharset, "letters, digits, mixed, all or a literal set")
	cmd.Flags().BoolVar(&practiceWords, "words", false, "practice words instead of code groups")
	cmd.Flags().StringVar(&wordListPath, "wordlist", config.DefaultWordListPath(), "word list for --words")
	cmd.Flags().StringVar(&focusChars, "focus", "", "bias words toward these characters")
	cmd.Flags().Float64Var(&focusFactor, "focus-factor", defaultFocusFactor, "weight per focus character")
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the terminal keyer emulator",
		Args:  cobra.NoArgs,
		RunE:  runKeyerCmd,
	}
	addPracticeFlags(cmd)
	cmd.Flags().StringVar(&runHTTP, "http", "", "also serve the settings page on this address")
	return cmd
}

func runKeyerCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	source, err := newPracticeSource(cmd, fileCfg)
	if err != nil {
		return err
	}

	logf := func(string, ...any) {}
	if logPath != "" {
		f, err := tea.LogToFile(logPath, "cwkeyer")
		if err != nil {
			return fmt.Errorf("failed to open log: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				// Best-effort close for the log file.
				_ = cerr
			}
		}()
		logf = log.Printf
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := openRig(ctx, cmd, fileCfg, rigOptions{pixels: runHTTP != "", logf: logf})
	if err != nil {
		return err
	}
	defer r.close()

	serveErr := make(chan error, 1)
	if runHTTP != "" {
		srv := webui.New(r.dev, r.pixels, logf)
		go func() { serveErr <- srv.ListenAndServe(ctx, runHTTP) }()
	} else {
		close(serveErr)
	}

	m := tui.NewModel(tui.Options{
		Device:   r.dev,
		Cells:    r.cells,
		Knob:     r.knob,
		KnobStep: knobStep(r.tunables.Pot),
		Practice: source,
	})
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := program.Run()
	stop()
	if err := <-serveErr; err != nil {
		logErrf("settings page stopped: %v\n", err)
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run TUI: %w", runErr)
	}
	return nil
}

func newFeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feed [text...]",
		Short: "Key text through the display without a terminal UI",
		Long: "Keys the arguments, or standard input when it is not a terminal, or\n" +
			"generated practice text, and prints the final screen.",
		RunE: runFeedCmd,
	}
	addPracticeFlags(cmd)
	cmd.Flags().BoolVar(&feedTrace, "trace", false, "print the screen after every line")
	return cmd
}

func runFeedCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	r, err := openRig(ctx, cmd, fileCfg, rigOptions{logf: stderrLogf})
	if err != nil {
		return err
	}
	defer r.close()

	out := cmd.OutOrStdout()
	switch {
	case len(args) > 0:
		r.dev.Text(strings.Join(args, " "))
	case !term.IsTerminal(int(os.Stdin.Fd())):
		if err := feedLines(r, cmd.InOrStdin(), out); err != nil {
			return err
		}
	default:
		source, err := newPracticeSource(cmd, fileCfg)
		if err != nil {
			return err
		}
		r.dev.Text(source())
	}
	return printScreen(out, r)
}

func feedLines(r *rig, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	first := true
	for scanner.Scan() {
		if !first {
			r.dev.Character(' ')
		}
		first = false
		r.dev.Text(scanner.Text())
		if feedTrace {
			if err := printScreen(out, r); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

func printScreen(w io.Writer, r *rig) error {
	for _, row := range r.cells.Rows() {
		if _, err := fmt.Fprintf(w, "|%s|\n", row); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if _, err := fmt.Fprintf(w, "%d chars, %d scrolls, %d wpm\n", r.dev.Chars(), r.dev.Display().Evictions(), r.dev.WPM()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the settings page and framebuffer over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultHTTPAddr, "listen address")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := openRig(ctx, cmd, fileCfg, rigOptions{pixels: true, logf: stderrLogf})
	if err != nil {
		return err
	}
	defer r.close()

	go func() {
		ticker := time.NewTicker(time.Duration(r.tunables.Pot.IntervalMs) * time.Millisecond)
		defer ticker.Stop()
		start := time.Now()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				r.dev.Tick(now.Sub(start).Milliseconds())
			}
		}
	}()

	srv := webui.New(r.dev, r.pixels, stderrLogf)
	if err := srv.ListenAndServe(ctx, serveAddr); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the device settings document",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the settings as JSON",
		Args:  cobra.NoArgs,
		RunE:  runSettingsShowCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value> [<key> <value>...]",
		Short: "Change settings and save them",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return fmt.Errorf("expected key/value pairs (keys: %s)", strings.Join(settings.Keys(), ", "))
			}
			return nil
		},
		RunE: runSettingsSetCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the settings document path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fileCfg, err := loadFileConfig(cmd)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), resolveSettingsPath(cmd, fileCfg))
			return err
		},
	})
	return cmd
}

func runSettingsShowCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	sctx := openSettings(resolveSettingsPath(cmd, fileCfg), logErrln)
	data, err := settings.Marshal(sctx.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(data)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runSettingsSetCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	sctx := openSettings(resolveSettingsPath(cmd, fileCfg), logErrln)
	for i := 0; i < len(args); i += 2 {
		key, raw := args[i], args[i+1]
		value, err := parseSettingValue(raw)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		if err := sctx.Apply(key, value); err != nil {
			return err
		}
	}
	doc, err := sctx.Commit()
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	if !noJournal && doc != nil {
		if err := journalCommit(cmd, fileCfg, doc); err != nil {
			logErrf("commit not journaled: %v\n", err)
		}
	}
	logErrf("Saved %s\n", sctx.Path())
	return nil
}

func journalCommit(cmd *cobra.Command, fileCfg config.FileConfig, doc []byte) error {
	st, err := store.Open(resolveDBPath(cmd, fileCfg))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	return st.RecordCommit(context.Background(), time.Now(), doc)
}

func newJournalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show keying sessions and settings commits",
		Args:  cobra.NoArgs,
		RunE:  runJournalCmd,
	}
	cmd.Flags().StringVar(&journalSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&journalLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&journalWindow, "window", defaultTrendWindow, "moving average window")
	cmd.Flags().IntVar(&journalTop, "top", defaultTopChars, "most keyed characters to list")
	cmd.Flags().IntVar(&journalCommits, "commits", defaultCommits, "settings commits to list")
	return cmd
}

func runJournalCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	since, err := parseSince(journalSince)
	if err != nil {
		return err
	}
	if journalLast < 0 || journalWindow < 0 || journalTop < 0 || journalCommits < 0 {
		return fmt.Errorf("--last, --window, --top and --commits must be >= 0")
	}

	st, err := store.Open(resolveDBPath(cmd, fileCfg))
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	filter := model.JournalFilter{Since: since, Last: journalLast}
	report, err := stats.BuildReport(cmd.Context(), st, filter, journalCommits)
	if err != nil {
		return fmt.Errorf("failed to load journal: %w", err)
	}
	return report.Render(cmd.OutOrStdout(), journalWindow, journalTop)
}

func parseSince(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid --since value: %w", err)
	}
	return &parsed, nil
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
	path := config.DefaultConfigPath()
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

func loadFileConfig(cmd *cobra.Command) (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "sidetone", &sidetoneBackend, fileCfg.Sidetone.Backend)
	applyIntConfig(cmd, "sidetone-pin", &sidetonePin, fileCfg.Sidetone.Pin)
	return fileCfg, nil
}

func resolveSettingsPath(cmd *cobra.Command, fileCfg config.FileConfig) string {
	path := settingsPath
	applyStringConfig(cmd, "settings", &path, fileCfg.Paths.Settings)
	return path
}

func resolveDBPath(cmd *cobra.Command, fileCfg config.FileConfig) string {
	path := dbPath
	applyStringConfig(cmd, "db", &path, fileCfg.Paths.DB)
	return path
}

// newPracticeSource returns a function producing one practice text per
// call, following flags and the [practice] config section.
func newPracticeSource(cmd *cobra.Command, fileCfg config.FileConfig) (func() string, error) {
	applyIntConfig(cmd, "groups", &practiceGroups, fileCfg.Practice.Groups)
	applyIntConfig(cmd, "group-size", &practiceGroupSize, fileCfg.Practice.GroupSize)
	applyStringConfig(cmd, "charset", &practiceCharset, fileCfg.Practice.Charset)
	applyStringConfig(cmd, "wordlist", &wordListPath, fileCfg.Paths.WordList)

	if practiceGroups <= 0 {
		return nil, fmt.Errorf("--groups must be > 0")
	}
	if practiceGroupSize <= 0 {
		return nil, fmt.Errorf("--group-size must be > 0")
	}
	if focusFactor < 0 {
		return nil, fmt.Errorf("--focus-factor must be >= 0")
	}

	gen := practice.New()
	if !practiceWords {
		charset := practice.Charset(practiceCharset)
		if charset == "" {
			return nil, fmt.Errorf("--charset must not be empty")
		}
		return func() string {
			return practice.Text(gen.Groups(practiceGroups, practiceGroupSize, charset))
		}, nil
	}

	words, err := practice.LoadWords(wordListPath)
	switch {
	case err == nil && len(words) > 0:
	case err == nil || os.IsNotExist(err):
		if cmd.Flags().Changed("wordlist") {
			return nil, fmt.Errorf("no usable words in %s", wordListPath)
		}
		words = practice.DefaultWords
	default:
		return nil, fmt.Errorf("failed to load word list: %w", err)
	}
	focus := strings.ToUpper(focusChars)
	return func() string {
		if focus == "" {
			return practice.Text(gen.Words(words, practiceGroups))
		}
		return practice.Text(gen.WordsWeighted(words, practiceGroups, focus, focusFactor))
	}, nil
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

func defaultConfigTemplate() string {
	tun := config.DefaultTunables()
	offsets := make([]string, len(tun.Geometry.RowOffsets))
	for i, off := range tun.Geometry.RowOffsets {
		offsets[i] = fmt.Sprint(off)
	}
	return fmt.Sprintf(`# cwkeyer configuration
# Uncomment a value to enable it. CLI flags override config values.
# Device settings (wpm, sidetone, paddle mode...) live in the JSON
# document instead; see: cwkeyer settings path

[display]
# rows = %d                # Text rows on the screen
# cols = %d               # Characters per row
# row-offsets = [%s]   # Pixel y of each row
# column = %d              # Pixel x of every row
# width = %d             # Panel width in pixels
# height = %d            # Panel height in pixels
# scale = %d               # Glyph magnification of the framebuffer

[potentiometer]
# full-scale = %d       # Highest raw ADC reading
# noise-threshold = %d   # Raw change ignored as noise
# change-threshold-tenths = %d  # WPM change needed, in tenths
# interval-ms = %d       # Poll interval
# low-wpm = %d            # Speed at the low end of the knob
# high-wpm = %d           # Speed at the high end of the knob
# always-on = false       # Poll even when the knob was never activated

[sidetone]
# backend = %q          # log or rpi
# pin = %d                # BCM pin with hardware PWM (12, 13, 18, 19)

[paths]
# settings = %q
# db = %q
# wordlist = %q

[practice]
# groups = %d             # Items per practice text
# group-size = %d          # Characters per code group
# charset = %q     # letters, digits, mixed, all or a literal set
`,
		tun.Geometry.Rows,
		tun.Geometry.Cols,
		strings.Join(offsets, ", "),
		tun.Geometry.Column,
		tun.WidthPx,
		tun.HeightPx,
		tun.Scale,
		tun.Pot.FullScale,
		tun.Pot.NoiseThreshold,
		tun.Pot.ChangeThresholdTenths,
		tun.Pot.IntervalMs,
		tun.Pot.LowWPM,
		tun.Pot.HighWPM,
		defaultSidetone,
		defaultSidetonePin,
		config.DefaultSettingsPath(),
		config.DefaultDBPath(),
		config.DefaultWordListPath(),
		defaultGroups,
		defaultGroupSize,
		defaultCharset,
	)
}

func stderrLogf(format string, args ...any) {
	logErrf(format+"\n", args...)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
