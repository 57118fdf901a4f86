package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/gubarz/cmtscan/internal/discovery"
	"github.com/gubarz/cmtscan/internal/grammar"
	"github.com/gubarz/cmtscan/internal/marker"
	"github.com/gubarz/cmtscan/internal/scan"
)

// GrammarConfig is the config file form of a comment grammar
type GrammarConfig struct {
	Single []string `mapstructure:"single"`
	Block  []string `mapstructure:"block"` // [start, end]
}

// Config holds the application configuration
type Config struct {
	Workspace     string                   `mapstructure:"workspace"`
	Skip          []string                 `mapstructure:"skip"`
	IncludeAll    bool                     `mapstructure:"include_all"`
	ContextLines  int                      `mapstructure:"context_lines"`
	ShowContext   bool                     `mapstructure:"show_context"`
	Excludes      []string                 `mapstructure:"excludes"`
	FilePatterns  []string                 `mapstructure:"file_patterns"`
	UseGitignore  bool                     `mapstructure:"use_gitignore"`
	Workers       int                      `mapstructure:"workers"`
	ScanUnknown   bool                     `mapstructure:"scan_unknown_extensions"`
	Editor        string                   `mapstructure:"editor"`
	LogLevel      string                   `mapstructure:"log_level"`
	LogFile       string                   `mapstructure:"log_file"`
	Markers       []marker.Definition      `mapstructure:"markers"`
	Grammars      map[string]GrammarConfig `mapstructure:"grammars"`
	Filename      string                   `mapstructure:"filename"`
	CaseSensitive bool                     `mapstructure:"case_sensitive"`
	CompleteMatch bool                     `mapstructure:"complete_match"`
}

// C is the global config instance
var C Config

// SetDefaults registers every default value with viper
func SetDefaults() {
	viper.SetDefault("workspace", ".")
	viper.SetDefault("skip", []string{"NOTE"}) // Skip NOTE comments by default
	viper.SetDefault("include_all", false)
	viper.SetDefault("context_lines", 2)
	viper.SetDefault("show_context", true)
	viper.SetDefault("excludes", discovery.DefaultExcludes)
	viper.SetDefault("file_patterns", discovery.DefaultFilePatterns)
	viper.SetDefault("use_gitignore", true)
	viper.SetDefault("workers", runtime.NumCPU())
	viper.SetDefault("scan_unknown_extensions", false)
	viper.SetDefault("editor", "")
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("log_file", "")
}

// Init initializes configuration with viper. An explicit file must be
// readable; the default search locations are optional.
func Init(file string) error {
	SetDefaults()

	if file != "" {
		viper.SetConfigFile(expandTilde(file))
	} else {
		viper.SetConfigName("cmtscan")
		viper.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "cmtscan"))
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("CMTSCAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("error loading config: %w", err)
		}
	}

	return Load()
}

// Load refreshes C from the current viper state
func Load() error {
	var c Config
	if err := viper.Unmarshal(&c); err != nil {
		return fmt.Errorf("error decoding config: %w", err)
	}
	C = c
	return nil
}

// ConfigFileUsed returns the path of the loaded config file, if any
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}

// GetWorkspace returns the scan root with tilde expansion
func GetWorkspace() string {
	return expandTilde(viper.GetString("workspace"))
}

// expandTilde expands ~ to the user's home directory
func expandTilde(path string) string {
	if len(path) == 0 {
		return path
	}
	if path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetSkip returns the active skip-set tokens; include_all empties it
func GetSkip() []string {
	if viper.GetBool("include_all") {
		return nil
	}
	return viper.GetStringSlice("skip")
}

// GetContextLines returns the number of context lines around an annotation
func GetContextLines() int {
	if n := viper.GetInt("context_lines"); n > 0 {
		return n
	}
	return 0
}

// GetShowContext returns whether context text is built and displayed
func GetShowContext() bool {
	return viper.GetBool("show_context")
}

// GetWorkers returns the number of parallel file scans
func GetWorkers() int {
	if n := viper.GetInt("workers"); n > 0 {
		return n
	}
	return 1
}

// GetEditor returns the configured editor, falling back to $VISUAL and $EDITOR
func GetEditor() string {
	if editor := viper.GetString("editor"); editor != "" {
		return editor
	}
	if editor := os.Getenv("VISUAL"); editor != "" {
		return editor
	}
	return os.Getenv("EDITOR")
}

// GetLogLevel returns the configured log level
func GetLogLevel() string {
	return viper.GetString("log_level")
}

// GetLogFile returns the optional log file path with tilde expansion
func GetLogFile() string {
	return expandTilde(viper.GetString("log_file"))
}

// Set overrides a key at runtime
func Set(key string, value interface{}) {
	viper.Set(key, value)
}

// Registry builds the marker registry from config, or the built-in one
func Registry() *marker.Registry {
	if len(C.Markers) == 0 {
		return marker.DefaultRegistry()
	}
	return marker.NewRegistry(C.Markers)
}

// Grammars builds the grammar table: built-ins with config overrides applied
func Grammars() (*grammar.Table, error) {
	table := grammar.Default()
	if len(C.Grammars) == 0 {
		return table, nil
	}

	overrides := make(map[string]grammar.Grammar, len(C.Grammars))
	for ext, gc := range C.Grammars {
		g := grammar.Grammar{Single: gc.Single}
		switch len(gc.Block) {
		case 0:
		case 2:
			g.Block = &grammar.Delimiters{Start: gc.Block[0], End: gc.Block[1]}
		default:
			return nil, fmt.Errorf("grammar %q: block needs exactly a start and an end delimiter, got %d", ext, len(gc.Block))
		}
		if len(g.Single) == 0 && g.Block == nil {
			return nil, fmt.Errorf("grammar %q: no comment syntax defined", ext)
		}
		overrides[ext] = g
	}
	return table.With(overrides), nil
}

// ScanOptions builds the immutable scan configuration for root
func ScanOptions(root string) (scan.Options, error) {
	grammars, err := Grammars()
	if err != nil {
		return scan.Options{}, err
	}
	return scan.Options{
		Root:         root,
		Grammars:     grammars,
		Markers:      Registry(),
		Skip:         marker.NewSkipSet(GetSkip()...),
		ContextLines: GetContextLines(),
		ShowContext:  GetShowContext(),
		ScanUnknown:  viper.GetBool("scan_unknown_extensions"),
		Workers:      GetWorkers(),
	}, nil
}

// DiscoveryOptions builds the file discovery configuration
func DiscoveryOptions() discovery.Options {
	return discovery.Options{
		FilePatterns: viper.GetStringSlice("file_patterns"),
		Excludes:     viper.GetStringSlice("excludes"),
		UseGitignore: viper.GetBool("use_gitignore"),
		Filter: discovery.FilenameFilter{
			Value:         viper.GetString("filename"),
			CaseSensitive: viper.GetBool("case_sensitive"),
			CompleteMatch: viper.GetBool("complete_match"),
		},
	}
}
