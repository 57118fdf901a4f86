package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/gubarz/cmtscan/internal/config"
	"github.com/gubarz/cmtscan/internal/discovery"
	"github.com/gubarz/cmtscan/internal/executor"
	"github.com/gubarz/cmtscan/internal/export"
	"github.com/gubarz/cmtscan/internal/logging"
	"github.com/gubarz/cmtscan/internal/marker"
	"github.com/gubarz/cmtscan/internal/scan"
	"github.com/gubarz/cmtscan/internal/ui"
)

var version = "0.1.0"

// ErrFilenameRequired is returned when a filename modifier is used without -f
var ErrFilenameRequired = errors.New("requires --filename")

var (
	configFile string
	initErr    error
)

var markersCmd = &cobra.Command{
	Use:   "markers",
	Short: "List the marker registry and the active skip-set",
	Args:  cobra.NoArgs,
	RunE:  runMarkers,
}

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the comment grammar of each supported extension",
	Args:  cobra.NoArgs,
	RunE:  runLanguages,
}

var rootCmd = &cobra.Command{
	Use:   "cmtscan",
	Short: "Scan source comments for TODO-style markers",
	Long: `Scans a source tree for marker comments such as TODO, FIXME and NOTE,
and shows them with the surrounding lines as a table, in an interactive
browser, or exported to PDF or XLSX.`,
	Example: `  cmtscan                          # Scan the current directory
  cmtscan -w /path/to/project      # Scan a specific workspace
  cmtscan -f test.py               # Only files whose name contains 'test.py'
  cmtscan -f test.py -c -C         # Only files named exactly 'test.py'
  cmtscan --skip TODO,FIXME        # Skip TODO and FIXME comments
  cmtscan -a                       # Include all marker types
  cmtscan -e pdf -o comments.pdf   # Export comments to PDF`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initErr
	},
	RunE: runScan,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(markersCmd, languagesCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Config file (default: cmtscan.yaml in ~/.config/cmtscan, ~ or .)")
	pf.StringP("workspace", "w", ".", "Path to the workspace directory")
	pf.StringSliceP("skip", "s", []string{"NOTE"}, "Markers to skip (e.g. --skip NOTE,TODO)")
	pf.BoolP("include-all", "a", false, "Include all markers (override the skip list)")
	pf.BoolP("verbose", "v", false, "Enable debug logging")

	f := rootCmd.Flags()
	f.Bool("no-context", false, "Don't show context lines around comments")
	f.IntP("context-lines", "n", 2, "Lines of context above and below each comment")
	f.StringP("export", "e", "", "Export format (pdf or xlsx)")
	f.StringP("output", "o", "", "Output file path for export")
	f.StringP("filename", "f", "", "Filter files by filename (case insensitive by default)")
	f.BoolP("complete-match", "c", false, "Match the complete filename instead of a substring (only with -f)")
	f.BoolP("case-sensitive", "C", false, "Make the filename filter case sensitive (only with -f)")
	f.BoolP("interactive", "i", false, "Browse comments interactively instead of printing a table")
	f.IntP("workers", "j", runtime.NumCPU(), "Number of files scanned in parallel")
	f.BoolP("quiet", "q", false, "Don't show the progress bar")
	f.BoolP("benchmark", "b", false, "Report scan time and memory, then exit")

	for key, flag := range map[string]string{
		"workspace":      "workspace",
		"skip":           "skip",
		"include_all":    "include-all",
		"context_lines":  "context-lines",
		"workers":        "workers",
		"filename":       "filename",
		"complete_match": "complete-match",
		"case_sensitive": "case-sensitive",
	} {
		pflag := pf.Lookup(flag)
		if pflag == nil {
			pflag = f.Lookup(flag)
		}
		_ = viper.BindPFlag(key, pflag)
	}
}

func initConfig() {
	if err := config.Init(configFile); err != nil {
		initErr = err
	}
}

// validateFlags checks flag combinations before any work is done
func validateFlags(cmd *cobra.Command) (export.Format, string, error) {
	filename, _ := cmd.Flags().GetString("filename")
	if filename == "" {
		for _, name := range []string{"complete-match", "case-sensitive"} {
			if cmd.Flags().Changed(name) {
				return "", "", fmt.Errorf("--%s %w", name, ErrFilenameRequired)
			}
		}
	}

	exportName, _ := cmd.Flags().GetString("export")
	output, _ := cmd.Flags().GetString("output")
	if exportName == "" {
		return "", "", nil
	}
	format, err := export.ParseFormat(exportName)
	if err != nil {
		return "", "", err
	}
	if output == "" {
		return "", "", fmt.Errorf("%w (-o)", export.ErrOutputRequired)
	}
	return format, output, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	format, output, err := validateFlags(cmd)
	if err != nil {
		return err
	}

	if noContext, _ := cmd.Flags().GetBool("no-context"); noContext {
		config.Set("show_context", false)
	}
	if err := config.Load(); err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	closeLog, err := logging.Init(logging.Options{
		Level:   config.GetLogLevel(),
		Verbose: verbose,
		File:    config.GetLogFile(),
	})
	if err != nil {
		return err
	}
	defer closeLog()

	if used := config.ConfigFileUsed(); used != "" {
		logging.Debug("config loaded", zap.String("file", used))
	}

	// Resolve workspace
	root, err := filepath.Abs(config.GetWorkspace())
	if err != nil {
		return fmt.Errorf("error resolving workspace: %w", err)
	}

	benchmark, _ := cmd.Flags().GetBool("benchmark")
	quiet, _ := cmd.Flags().GetBool("quiet")
	start := time.Now()

	d, err := discovery.New(root, config.DiscoveryOptions())
	if err != nil {
		return err
	}
	files, err := d.Files()
	if err != nil {
		return err
	}
	logging.Debug("discovered files", zap.String("root", d.Root()), zap.Int("count", len(files)))

	opts, err := config.ScanOptions(root)
	if err != nil {
		return err
	}
	scanner := scan.NewScanner(opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := scanner.ScanFiles(ctx, files, ui.NewProgressReporter(quiet || benchmark))
	if err != nil {
		return fmt.Errorf("scan interrupted: %w", err)
	}

	for _, failure := range result.Failures {
		fmt.Fprintln(os.Stderr, color.RedString("Error scanning %s: %v", failure.Path, failure.Err))
	}

	if benchmark {
		printBenchmark(os.Stdout, result.Stats, time.Since(start))
		return nil
	}

	if len(result.Annotations) == 0 {
		color.Yellow("No comments found!")
		return nil
	}

	interactive, _ := cmd.Flags().GetBool("interactive")
	if interactive {
		exec := executor.NewExecutor(config.GetEditor())
		if err := ui.RunBrowser(result.Annotations, root, exec); err != nil {
			return err
		}
	} else {
		ui.RenderTable(os.Stdout, result.Annotations, ui.TableOptions{
			ShowContext: opts.ShowContext,
			Color:       !color.NoColor,
		})
	}

	if format != "" {
		if err := export.Write(format, output, result.Annotations, export.Options{ShowContext: opts.ShowContext}); err != nil {
			return err
		}
		fmt.Println()
		color.Green("Exported to %s", output)
	}
	return nil
}

func printBenchmark(w io.Writer, stats scan.Stats, elapsed time.Duration) {
	// Force GC and get memory stats
	runtime.GC()
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	skipped := 0
	for _, n := range stats.Skipped {
		skipped += n
	}
	fmt.Fprintf(w, "Scanned %d files (%d skipped, %d failed) in %v, found %d comments\n",
		stats.Scanned, skipped, stats.Failed, elapsed, stats.Annotations)
	fmt.Fprintf(w, "Memory: Alloc=%dMB, TotalAlloc=%dMB, Sys=%dMB, HeapObjects=%d\n",
		m.Alloc/1024/1024, m.TotalAlloc/1024/1024, m.Sys/1024/1024, m.HeapObjects)
}

func runMarkers(cmd *cobra.Command, args []string) error {
	skip := marker.NewSkipSet(config.GetSkip()...)

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"#", "Token", "Label", "Color", "Skipped"})
	for i, def := range config.Registry().Definitions() {
		mark := ""
		if skip.Has(def.Token) {
			mark = "yes"
		}
		table.Append([]string{strconv.Itoa(i + 1), def.Token, def.Label, def.Color, mark})
	}
	table.Render()

	if len(skip) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Skip-set: (empty)")
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Skip-set: %s\n", strings.Join(skip.Sorted(), ", "))
	}
	return nil
}

func runLanguages(cmd *cobra.Command, args []string) error {
	grammars, err := config.Grammars()
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Extension", "Single-line", "Block"})
	for _, ext := range grammars.Extensions() {
		g, _ := grammars.Lookup(ext)
		block := ""
		if g.HasBlock() {
			block = g.Block.Start + " … " + g.Block.End
		}
		table.Append([]string{"." + ext, strings.Join(g.Single, " "), block})
	}
	table.Render()

	if viper.GetBool("scan_unknown_extensions") {
		fallback := grammars.Fallback()
		fmt.Fprintf(cmd.OutOrStdout(), "Other extensions use %s\n", strings.Join(fallback.Single, " "))
	}
	return nil
}

func main() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}
