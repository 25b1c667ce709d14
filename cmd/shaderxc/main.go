// Command shaderxc cross-compiles an HLSL-dialect shader (given as a
// parsed AST in JSON form, since this binary owns no HLSL lexer/parser
// and treats parsing as an external collaborator) to GLSL source.
//
// Usage:
//
//	shaderxc [options] <input.ast.json>
//	cat input.ast.json | shaderxc [options]
//
// Options:
//
//	-o <file>              Write output to file (default: stdout)
//	--config <file>        Use specific config file
//	--no-config            Ignore config files
//	--entry-point <name>   Override the entry point function name
//	--stage <name>         Shader stage: vertex, tess_control, tess_eval, geometry, fragment, compute
//	--strict               Escalate warnings to errors
//	--target-version <n>   Target GLSL version (e.g. 330, 450)
//	--allow-extensions     Permit #extension directives
//	--preserve-comments    Pass source comments through to the output
//	--prefix <name>        Identifier prefix for renamed globals
//	--line-marks           Emit #line directives
//	--reflect              Print reflection (binding/layout) JSON instead of compiling
//	--stats                Print a statistics JSON document to stderr after compiling
//	--version              Print version and exit
//	--help                 Print help and exit
//
// Config file:
//
//	shaderxc looks for shaderxc.json, .shaderxcrc, or .shaderxcrc.json in the
//	current directory and parent directories. Config file options are
//	overridden by CLI flags.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"codeberg.org/saruga/shaderxc/internal/ast"
	"codeberg.org/saruga/shaderxc/internal/astjson"
	"codeberg.org/saruga/shaderxc/internal/compiler"
	"codeberg.org/saruga/shaderxc/internal/config"
	"codeberg.org/saruga/shaderxc/internal/reflect"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var stageNames = map[string]ast.ShaderStage{
	"vertex":       ast.StageVertex,
	"tess_control": ast.StageTessControl,
	"tess_eval":    ast.StageTessEval,
	"geometry":     ast.StageGeometry,
	"fragment":     ast.StageFragment,
	"compute":      ast.StageCompute,
}

func run() error {
	var (
		outputFile     string
		configFile     string
		noConfig       bool
		entryPoint     string
		stageFlag      string
		strictMode     bool
		targetVersion  int
		allowExtFlag   bool
		preserveCFlag  bool
		prefixFlag     string
		lineMarksFlag  bool
		doReflect      bool
		printStats     bool
		showVersion    bool
		showHelp       bool
	)

	flag.StringVar(&outputFile, "o", "", "Write output to `file`")
	flag.StringVar(&configFile, "config", "", "Use specific config `file`")
	flag.BoolVar(&noConfig, "no-config", false, "Ignore config files")
	flag.StringVar(&entryPoint, "entry-point", "", "Override the entry point function `name`")
	flag.StringVar(&stageFlag, "stage", "", "Shader `stage` (vertex, tess_control, tess_eval, geometry, fragment, compute)")
	flag.BoolVar(&strictMode, "strict", false, "Escalate warnings to errors")
	flag.IntVar(&targetVersion, "target-version", 0, "Target GLSL version (e.g. 330, 450)")
	flag.BoolVar(&allowExtFlag, "allow-extensions", false, "Permit #extension directives")
	flag.BoolVar(&preserveCFlag, "preserve-comments", false, "Pass source comments through to the output")
	flag.StringVar(&prefixFlag, "prefix", "", "Identifier `prefix` for renamed globals")
	flag.BoolVar(&lineMarksFlag, "line-marks", false, "Emit #line directives")
	flag.BoolVar(&doReflect, "reflect", false, "Print reflection JSON instead of compiling")
	flag.BoolVar(&printStats, "stats", false, "Print a statistics JSON document to stderr")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.BoolVar(&showHelp, "help", false, "Print help and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "shaderxc - HLSL to GLSL shader cross-compiler v%s\n\n", version)
		fmt.Fprintf(os.Stderr, "Usage: shaderxc [options] <input.ast.json>\n")
		fmt.Fprintf(os.Stderr, "       cat input.ast.json | shaderxc [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nConfig file:\n")
		fmt.Fprintf(os.Stderr, "  Searches for shaderxc.json or .shaderxcrc in current and parent directories.\n")
		fmt.Fprintf(os.Stderr, "  CLI flags override config file settings.\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		return nil
	}
	if showVersion {
		fmt.Printf("shaderxc v%s (%s)\n", version, commit)
		return nil
	}

	source, err := readInput()
	if err != nil {
		return err
	}

	module, err := astjson.Decode(source)
	if err != nil {
		return fmt.Errorf("decoding input AST: %w", err)
	}

	if doReflect {
		return runReflect(module)
	}

	stage := module.Stage
	if stageFlag != "" {
		s, ok := stageNames[stageFlag]
		if !ok {
			return fmt.Errorf("unknown --stage %q", stageFlag)
		}
		stage = s
	}

	opts, configPath, err := resolveOptions(resolveOptionsArgs{
		configFile:    configFile,
		noConfig:      noConfig,
		startDir:      startDirFor(),
		strictMode:    strictMode,
		targetVersion: targetVersion,
		allowExt:      allowExtFlag,
		preserveC:     preserveCFlag,
		prefix:        prefixFlag,
		lineMarks:     lineMarksFlag,
	})
	if err != nil {
		return err
	}
	if configPath != "" && outputFile != "" {
		fmt.Fprintf(os.Stderr, "Using config: %s\n", configPath)
	}

	out, err := compiler.Compile(context.Background(), compiler.ShaderInput{
		Module:         module,
		EntryPointName: entryPoint,
		Stage:          stage,
	}, opts)
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}

	for _, d := range out.Diagnostics {
		fmt.Fprintln(os.Stderr, d.Error())
	}
	if !out.Success {
		return fmt.Errorf("compilation failed with %d diagnostic(s)", len(out.Diagnostics))
	}

	var output io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		output = f
	}
	if _, err := io.WriteString(output, out.Code); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if printStats && out.Statistics != nil {
		enc, err := json.MarshalIndent(out.Statistics, "", "  ")
		if err == nil {
			fmt.Fprintln(os.Stderr, string(enc))
		}
	}

	return nil
}

func runReflect(module *ast.Module) error {
	result := reflect.Reflect(module)
	enc, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding reflection result: %w", err)
	}
	fmt.Println(string(enc))
	return nil
}

func readInput() ([]byte, error) {
	if flag.NArg() > 0 {
		data, err := os.ReadFile(flag.Arg(0))
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		return data, nil
	}
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		flag.Usage()
		return nil, fmt.Errorf("no input file specified")
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return data, nil
}

func startDirFor() string {
	if flag.NArg() > 0 {
		return filepath.Dir(flag.Arg(0))
	}
	dir, _ := os.Getwd()
	return dir
}

type resolveOptionsArgs struct {
	configFile    string
	noConfig      bool
	startDir      string
	strictMode    bool
	targetVersion int
	allowExt      bool
	preserveC     bool
	prefix        string
	lineMarks     bool
}

// resolveOptions loads a config file (unless disabled) and merges it with
// whatever CLI flags were explicitly set, following the same
// config-then-CLI-override precedence as CLI.
func resolveOptions(a resolveOptionsArgs) (compiler.Options, string, error) {
	var cfg *config.Config
	var configPath string
	var err error

	if !a.noConfig {
		if a.configFile != "" {
			cfg, err = config.LoadFile(a.configFile)
			if err != nil {
				return compiler.Options{}, "", fmt.Errorf("loading config file %s: %w", a.configFile, err)
			}
			configPath = a.configFile
		} else {
			cfg, configPath, err = config.Load(a.startDir)
			if err != nil {
				return compiler.Options{}, "", fmt.Errorf("loading config: %w", err)
			}
		}
	}
	if cfg == nil {
		cfg = &config.Config{}
	}

	cli := config.MergeOptions{}
	if a.strictMode {
		cli.StrictMode = &a.strictMode
	}
	if a.targetVersion != 0 {
		cli.TargetVersion = &a.targetVersion
	}
	if a.allowExt {
		cli.AllowExtensions = &a.allowExt
	}
	if a.preserveC {
		cli.PreserveComments = &a.preserveC
	}
	if a.prefix != "" {
		cli.Prefix = &a.prefix
	}
	if a.lineMarks {
		cli.LineMarks = &a.lineMarks
	}

	opts, err := cfg.Merge(cli)
	if err != nil {
		return compiler.Options{}, "", err
	}
	return opts, configPath, nil
}
