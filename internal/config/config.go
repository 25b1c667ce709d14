// Package config handles loading compiler configuration from files.
//
// Configuration can be specified in a JSON file named shaderxc.json,
// .shaderxcrc, or .shaderxcrc.json. The config file is searched for in the
// current directory and parent directories, walking up to the filesystem
// root until one of those names is found or the search is exhausted.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"codeberg.org/saruga/shaderxc/internal/compiler"
	"codeberg.org/saruga/shaderxc/internal/rewriter"
)

// Config represents the configuration file structure.
// All fields are optional and fall back to compiler.Options' zero-value
// defaults when unset.
type Config struct {
	// StrictMode escalates every warning to an error.
	StrictMode *bool `json:"strictMode,omitempty"`

	// TargetVersion selects the emitted `#version` directive (e.g. 330, 450).
	TargetVersion *int `json:"targetVersion,omitempty"`

	// AllowExtensions permits the emitter to request GL extensions for
	// constructs the target version doesn't natively support.
	AllowExtensions *bool `json:"allowExtensions,omitempty"`

	// PreserveComments keeps source comments in the emitted output.
	PreserveComments *bool `json:"preserveComments,omitempty"`

	// Prefix is prepended (with an underscore) to the synthetic names the
	// emitter introduces (flattened struct-I/O globals, return temps);
	// user-declared names are emitted unchanged.
	Prefix *string `json:"prefix,omitempty"`

	// LineMarks emits `#line` directives mapping output back to source.
	LineMarks *bool `json:"lineMarks,omitempty"`

	// RewriteFlags names which rewriter lowering rules to apply; omitted or
	// empty means every rule (rewriter.All), the dialect pair's default.
	// Recognized names match the rewriter.Flags constants with the
	// "Convert" prefix dropped and the first letter lowercased
	// (e.g. "log10", "vectorCompare").
	RewriteFlags []string `json:"rewriteFlags,omitempty"`
}

// ConfigFileNames are the names searched for config files, in order of
// preference.
var ConfigFileNames = []string{
	"shaderxc.json",
	".shaderxcrc",
	".shaderxcrc.json",
}

// Load searches for a config file starting from the given directory and
// walking up to parent directories. Returns nil if no config file is found.
func Load(startDir string) (*Config, string, error) {
	dir := startDir
	for {
		for _, name := range ConfigFileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := LoadFile(path)
				return cfg, path, err
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root, no config found.
			return nil, "", nil
		}
		dir = parent
	}
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// rewriteFlagNames maps a config file's rule name to its rewriter.Flags bit.
var rewriteFlagNames = map[string]rewriter.Flags{
	"log10":                 rewriter.ConvertLog10,
	"vectorCompare":         rewriter.ConvertVectorCompare,
	"imageAccess":           rewriter.ConvertImageAccess,
	"samplerBufferAccess":   rewriter.ConvertSamplerBufferAccess,
	"vectorSubscripts":      rewriter.ConvertVectorSubscripts,
	"unaryExpr":             rewriter.ConvertUnaryExpr,
	"implicitCasts":         rewriter.ConvertImplicitCasts,
	"initializer":           rewriter.ConvertInitializer,
	"matrixLayout":          rewriter.ConvertMatrixLayout,
}

// rewriteFlags resolves RewriteFlags into a rewriter.Flags bitmask,
// defaulting to rewriter.All when the list is empty.
func (c *Config) rewriteFlags() (rewriter.Flags, error) {
	if len(c.RewriteFlags) == 0 {
		return rewriter.All, nil
	}
	var flags rewriter.Flags
	for _, name := range c.RewriteFlags {
		bit, ok := rewriteFlagNames[name]
		if !ok {
			return 0, fmt.Errorf("config: unknown rewriteFlags entry %q", name)
		}
		flags |= bit
	}
	return flags, nil
}

// ToOptions converts a Config to compiler.Options, using compiler.Options'
// zero-value defaults for unset fields.
func (c *Config) ToOptions() (compiler.Options, error) {
	var opts compiler.Options

	if c.StrictMode != nil {
		opts.StrictMode = *c.StrictMode
	}
	if c.TargetVersion != nil {
		opts.TargetVersion = *c.TargetVersion
	}
	if c.AllowExtensions != nil {
		opts.AllowExtensions = *c.AllowExtensions
	}
	if c.PreserveComments != nil {
		opts.PreserveComments = *c.PreserveComments
	}
	if c.Prefix != nil {
		opts.Prefix = *c.Prefix
	}
	if c.LineMarks != nil {
		opts.LineMarks = *c.LineMarks
	}
	flags, err := c.rewriteFlags()
	if err != nil {
		return compiler.Options{}, err
	}
	opts.RewriteFlags = flags

	return opts, nil
}

// MergeOptions carries CLI flag overrides (nil/zero means "not specified on
// the command line", so the config file's value survives).
type MergeOptions struct {
	StrictMode       *bool
	TargetVersion    *int
	AllowExtensions  *bool
	PreserveComments *bool
	Prefix           *string
	LineMarks        *bool
	RewriteFlags     []string
}

// Merge merges CLI options with config file options. CLI options override
// config file options when specified.
func (c *Config) Merge(cli MergeOptions) (compiler.Options, error) {
	merged := *c
	if cli.StrictMode != nil {
		merged.StrictMode = cli.StrictMode
	}
	if cli.TargetVersion != nil {
		merged.TargetVersion = cli.TargetVersion
	}
	if cli.AllowExtensions != nil {
		merged.AllowExtensions = cli.AllowExtensions
	}
	if cli.PreserveComments != nil {
		merged.PreserveComments = cli.PreserveComments
	}
	if cli.Prefix != nil {
		merged.Prefix = cli.Prefix
	}
	if cli.LineMarks != nil {
		merged.LineMarks = cli.LineMarks
	}
	if len(cli.RewriteFlags) > 0 {
		merged.RewriteFlags = cli.RewriteFlags
	}
	return merged.ToOptions()
}
