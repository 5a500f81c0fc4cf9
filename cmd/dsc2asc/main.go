// Package main provides the CLI entrypoint for dsc2asc.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/dsc2asc/internal/chart"
	"github.com/verte-zerg/dsc2asc/internal/config"
	"github.com/verte-zerg/dsc2asc/internal/convert"
	"github.com/verte-zerg/dsc2asc/internal/descriptor"
	"github.com/verte-zerg/dsc2asc/internal/format"
	"github.com/verte-zerg/dsc2asc/internal/model"
	"github.com/verte-zerg/dsc2asc/internal/preview"
	"github.com/verte-zerg/dsc2asc/internal/report"
	"github.com/verte-zerg/dsc2asc/internal/store"
)

const (
	defaultPlotHeight = 12
	defaultHistoryN   = 20
)

var (
	convertFormat   string
	convertEncoding string
	convertOut      string
	convertZip      bool
	convertNoZip    bool

	readEncoding string

	plotInterval int
	plotWidth    int
	plotHeight   int
	plotColor    bool

	previewInterval int
	previewHeight   int
	previewColor    bool

	historyLast int
)

var (
	infoPrinter    = pterm.Info.WithWriter(os.Stderr)
	successPrinter = pterm.Success.WithWriter(os.Stderr)
	warningPrinter = pterm.Warning.WithWriter(os.Stderr)
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dsc2asc",
		Short:         "Convert diffractometer scans to text spectra",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(newConvertCmd())
	rootCmd.AddCommand(newInfoCmd())
	rootCmd.AddCommand(newPlotCmd())
	rootCmd.AddCommand(newPreviewCmd())
	rootCmd.AddCommand(newFormatsCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <file.dsc>",
		Short: "Convert every interval of a descriptor",
		Args:  cobra.ExactArgs(1),
		RunE:  runConvertCmd,
	}
	cmd.Flags().StringVar(&convertFormat, "format", format.DefaultProfile, "output format profile")
	cmd.Flags().StringVar(&convertEncoding, "encoding", descriptor.DefaultEncoding, "descriptor text encoding")
	cmd.Flags().StringVar(&convertOut, "out", "", "output directory (default: descriptor directory)")
	cmd.Flags().BoolVar(&convertZip, "zip", false, "bundle outputs into a zip even for a single interval")
	cmd.Flags().BoolVar(&convertNoZip, "no-zip", false, "write every output as a separate file")
	cmd.MarkFlagsMutuallyExclusive("zip", "no-zip")
	return cmd
}

func runConvertCmd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	registry, err := format.NewRegistry(fileCfg.FormatProfiles()...)
	if err != nil {
		return fmt.Errorf("failed to load format profiles: %w", err)
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	applyPreference(ctx, cmd, st, "format", store.PrefFormat, registry.Has, &convertFormat)
	applyPreference(ctx, cmd, st, "encoding", store.PrefEncoding, descriptor.KnownEncoding, &convertEncoding)
	applyStringConfig(cmd, "format", &convertFormat, fileCfg.Convert.Format)
	applyStringConfig(cmd, "encoding", &convertEncoding, fileCfg.Convert.Encoding)
	applyStringConfig(cmd, "out", &convertOut, fileCfg.Convert.OutDir)
	applyBoolConfig(cmd, "zip", &convertZip, fileCfg.Convert.Zip)

	path := args[0]
	cfg := model.Config{
		Format:   convertFormat,
		Encoding: convertEncoding,
		OutDir:   convertOut,
		Zip:      convertZip && !convertNoZip,
		NoZip:    convertNoZip,
	}
	if cfg.OutDir == "" {
		cfg.OutDir = filepath.Dir(path)
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}
	profile, err := registry.Lookup(cfg.Format)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read descriptor: %w", err)
	}
	desc, err := descriptor.Read(bytes.NewReader(raw), cfg.Encoding)
	if err != nil {
		return err
	}
	if !desc.IsValid() {
		return fmt.Errorf("%s: %w", path, descriptor.ErrNoIntervals)
	}
	saveExplicitPreferences(ctx, cmd, st, cfg)

	resolver, err := convert.ForDescriptor(path)
	if err != nil {
		return err
	}

	spinner, _ := pterm.DefaultSpinner.
		WithWriter(os.Stderr).
		WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithRemoveWhenDone(true).
		Start(fmt.Sprintf("Converting %s to %s...", filepath.Base(path), profile.Name))
	result, convErr := convert.Convert(ctx, desc, resolver.Base(), resolver, profile)
	if spinner != nil {
		_ = spinner.Stop()
	}
	for _, f := range result.Failures {
		logErrf("skipping interval %d (%s): %v\n", f.Interval+1, f.Extension, f.Err)
	}
	if convErr != nil {
		return fmt.Errorf("conversion interrupted: %w", convErr)
	}

	entry := model.HistoryEntry{
		ConvertedAt:    time.Now(),
		DescriptorPath: absPath(path),
		Fingerprint:    store.Fingerprint(raw),
		Format:         profile.Name,
		Eligible:       result.Eligible,
		Convertible:    result.Convertible,
		Converted:      result.Converted(),
	}
	if _, err := st.InsertConversion(ctx, entry); err != nil {
		logErrf("failed to record conversion: %v\n", err)
	}

	if result.Converted() == 0 {
		warningPrinter.Println(nothingConvertedMessage(result, path))
		return nil
	}
	written, err := convert.WriteOutputs(result, convert.WriteOptions{
		Dir:      cfg.OutDir,
		Base:     resolver.Base(),
		ForceZip: cfg.Zip,
		NoZip:    cfg.NoZip,
	})
	for _, p := range written {
		infoPrinter.Printfln("Wrote %s", p)
	}
	if err != nil {
		return err
	}
	successPrinter.Printfln("Converted %d of %d intervals (%d with data files)", result.Converted(), result.Eligible, result.Convertible)
	return nil
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <file.dsc>",
		Short: "Show descriptor metadata and intervals",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfoCmd,
	}
	cmd.Flags().StringVar(&readEncoding, "encoding", descriptor.DefaultEncoding, "descriptor text encoding")
	return cmd
}

func runInfoCmd(cmd *cobra.Command, args []string) error {
	desc, resolver, err := loadDescriptor(cmd, args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := report.RenderMetadata(out, desc); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	items, present := convert.Survey(desc, resolver)
	if err := report.RenderIntervals(out, items, present); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot <file.dsc>",
		Short: "Plot one interval as a terminal chart",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlotCmd,
	}
	cmd.Flags().StringVar(&readEncoding, "encoding", descriptor.DefaultEncoding, "descriptor text encoding")
	cmd.Flags().IntVar(&plotInterval, "interval", 0, "interval number as listed by info (default: first with data)")
	cmd.Flags().IntVar(&plotWidth, "width", 0, "chart width in columns (default: terminal width)")
	cmd.Flags().IntVar(&plotHeight, "height", defaultPlotHeight, "chart height in rows")
	cmd.Flags().BoolVar(&plotColor, "color", false, "force colored output")
	return cmd
}

func runPlotCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "height", &plotHeight, fileCfg.Preview.Height)
	applyBoolConfig(cmd, "color", &plotColor, fileCfg.Preview.Color)
	if plotHeight <= 0 {
		return fmt.Errorf("--height must be > 0")
	}
	if plotWidth < 0 {
		return fmt.Errorf("--width must be >= 0")
	}

	desc, resolver, err := loadDescriptor(cmd, args[0])
	if err != nil {
		return err
	}
	items, _ := convert.Survey(desc, resolver)
	item, err := selectInterval(items, plotInterval)
	if err != nil {
		return err
	}
	xs, ys, err := convert.Samples(cmd.Context(), resolver, item.Interval)
	if err != nil {
		return fmt.Errorf("failed to load interval %d: %w", item.Index+1, err)
	}
	spec := chart.ForInterval(item.Label(), xs, ys)
	if err := chart.PlotWithColor(cmd.OutOrStdout(), spec, plotWidth, plotHeight, plotColor); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <file.dsc>",
		Short: "Browse intervals and their spectra",
		Args:  cobra.ExactArgs(1),
		RunE:  runPreviewCmd,
	}
	cmd.Flags().StringVar(&readEncoding, "encoding", descriptor.DefaultEncoding, "descriptor text encoding")
	cmd.Flags().IntVar(&previewInterval, "interval", 0, "interval number to open first")
	cmd.Flags().IntVar(&previewHeight, "height", 0, "chart height in rows (default: fit window)")
	cmd.Flags().BoolVar(&previewColor, "color", false, "force colored output")
	return cmd
}

func runPreviewCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "height", &previewHeight, fileCfg.Preview.Height)
	applyBoolConfig(cmd, "color", &previewColor, fileCfg.Preview.Color)
	if previewHeight < 0 {
		return fmt.Errorf("--height must be >= 0")
	}

	desc, resolver, err := loadDescriptor(cmd, args[0])
	if err != nil {
		return err
	}
	cfg := model.PreviewConfig{
		Interval: previewInterval - 1,
		Height:   previewHeight,
		Color:    previewColor,
	}
	m := preview.NewModel(desc, resolver.Base(), resolver, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run preview TUI: %w", err)
	}
	return nil
}

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List output format profiles",
		Args:  cobra.NoArgs,
		RunE:  runFormatsCmd,
	}
}

func runFormatsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	registry, err := format.NewRegistry(fileCfg.FormatProfiles()...)
	if err != nil {
		return fmt.Errorf("failed to load format profiles: %w", err)
	}
	active := format.DefaultProfile
	if st, err := store.Open(config.DefaultDBPath()); err == nil {
		if value, ok, perr := st.Preference(cmd.Context(), store.PrefFormat); perr == nil && ok {
			active = value
		}
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}
	if fileCfg.Convert.Format != nil {
		active = *fileCfg.Convert.Format
	}
	if err := report.RenderFormats(cmd.OutOrStdout(), registry.List(), active); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded conversions",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyLast, "last", defaultHistoryN, "limit to last N conversions (0 for all)")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	entries, err := st.ListConversions(cmd.Context(), historyLast)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if err := report.RenderHistory(cmd.OutOrStdout(), entries); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
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

// loadDescriptor reads a descriptor for the read-only commands, applying the configured encoding.
func loadDescriptor(cmd *cobra.Command, path string) (model.ScanDescriptor, *convert.DirResolver, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.ScanDescriptor{}, nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "encoding", &readEncoding, fileCfg.Convert.Encoding)
	desc, err := descriptor.Load(path, readEncoding)
	if err != nil {
		return model.ScanDescriptor{}, nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	resolver, err := convert.ForDescriptor(path)
	if err != nil {
		return model.ScanDescriptor{}, nil, err
	}
	return desc, resolver, nil
}

// selectInterval picks the interval numbered n (1-based descriptor position), or the first one
// with data when n is 0.
func selectInterval(items []convert.Availability, n int) (convert.Availability, error) {
	if n == 0 {
		first := convert.FirstPresent(items)
		for _, item := range items {
			if item.Index == first {
				return item, nil
			}
		}
		return convert.Availability{}, fmt.Errorf("no interval has a data file")
	}
	for _, item := range items {
		if item.Index+1 != n {
			continue
		}
		if !item.Present {
			return convert.Availability{}, fmt.Errorf("interval %d: %w", n, convert.ErrFileNotFound)
		}
		return item, nil
	}
	return convert.Availability{}, fmt.Errorf("interval %d is not an eligible interval", n)
}

// preferenceStore is the slice of store.Store the flag resolution needs.
type preferenceStore interface {
	Preference(ctx context.Context, key string) (string, bool, error)
	SetPreference(ctx context.Context, key, value string) error
}

// applyPreference fills an unset flag from the stored preference. Stored values that valid
// rejects (a removed profile, an unknown encoding) are ignored.
func applyPreference(ctx context.Context, cmd *cobra.Command, st preferenceStore, name, key string, valid func(string) bool, target *string) {
	if cmd.Flags().Changed(name) {
		return
	}
	value, ok, err := st.Preference(ctx, key)
	if err != nil {
		logErrf("failed to load %s preference: %v\n", name, err)
		return
	}
	if !ok || value == "" {
		return
	}
	if !valid(value) {
		logErrf("ignoring stored %s preference %q: no longer available\n", name, value)
		return
	}
	*target = value
}

func saveExplicitPreferences(ctx context.Context, cmd *cobra.Command, st preferenceStore, cfg model.Config) {
	if cmd.Flags().Changed("format") {
		if err := st.SetPreference(ctx, store.PrefFormat, cfg.Format); err != nil {
			logErrf("failed to save format preference: %v\n", err)
		}
	}
	if cmd.Flags().Changed("encoding") {
		if err := st.SetPreference(ctx, store.PrefEncoding, cfg.Encoding); err != nil {
			logErrf("failed to save encoding preference: %v\n", err)
		}
	}
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

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# dsc2asc configuration
# Uncomment a value to enable it. CLI flags override config values.

[convert]
# format = %q             # Output profile (see: dsc2asc formats)
# encoding = %q       # Descriptor text encoding (utf-8, windows-1251, koi8-r, ...)
# out-dir = "."             # Output directory (default: next to the descriptor)
# zip = false               # Bundle outputs into a zip even for a single interval

[preview]
# height = %d               # Chart height in rows
# color = false             # Force colored chart output

# Extra output formats, listed next to the built-in ones.
# [[profiles]]
# name = "tsv"
# extension = "tsv"
# delimiter = "\t"
# decimal = "."
# mime = "text/tab-separated-values"
# x-precision = %d
# y-precision = %d
`,
		format.DefaultProfile,
		descriptor.DefaultEncoding,
		defaultPlotHeight,
		format.DefaultXPrecision,
		format.DefaultYPrecision,
	)
}

func validateConfig(cfg model.Config) error {
	if strings.TrimSpace(cfg.Format) == "" {
		return fmt.Errorf("--format must not be empty")
	}
	if strings.TrimSpace(cfg.Encoding) == "" {
		return fmt.Errorf("--encoding must not be empty")
	}
	return nil
}

func nothingConvertedMessage(result model.ConversionResult, path string) string {
	if len(result.Failures) > 0 {
		return fmt.Sprintf("Converted 0 of %d intervals: %d failed (see messages above)", result.Eligible, len(result.Failures))
	}
	return fmt.Sprintf("Converted 0 of %d intervals: no data files found next to %s", result.Eligible, path)
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
