// stagegen generates staged (type-state) builders for Go structs.
package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stagegen/internal/config"
	"stagegen/internal/generator"
	"stagegen/internal/hclspec"
	"stagegen/internal/logging"
	"stagegen/internal/model"
	"stagegen/internal/parser"
)

// version is set at build time.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// flags holds the command line options shared by generate and plan.
type flags struct {
	inputFile    string
	outputFile   string
	configFile   string
	templateFile string
	types        string
	exclude      string
	allStructs   bool
	exportedOnly bool
	strict       bool
	loop         bool
	fixImports   bool
	verbose      bool
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "stagegen",
		Short: "Generate staged builders for Go structs",
		Long: `stagegen reads struct declarations from a Go source file (or an HCL record
file) and generates a builder per struct whose stages only allow the required
fields to be set in order. Build is only reachable once every required field
has been supplied.

Structs are selected with a directive in their doc comment:

    //stagegen:builder [order=A,B,C] [strict] [loop]

Field roles come from the builder struct tag:

    Name string   ` + "`builder:\"required\"`" + `
    Tags []string ` + "`builder:\"accumulating,adder=AddTag\"`" + `
    Age  int      ` + "`default:\"18\"`",
		Version:      version,
		SilenceUsage: true,
	}

	root.AddCommand(newGenerateCmd(), newPlanCmd(), newVersionCmd())
	return root
}

func newGenerateCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate builder source code",
		Long: `Generate builder source code for the selected structs of a file.

Examples:
    # Generate builders next to the models
    stagegen generate -i models.go -o models_builder.go

    # From go:generate
    //go:generate go run ./cmd/stagegen generate -i $GOFILE -o models_builder.go

    # Only some structs, rejecting incoherent explicit orders
    stagegen generate -i models.go -T User,Order --strict

    # Records declared in HCL
    stagegen generate -i records.hcl -o records_builder.go

    # Custom template
    stagegen generate -i models.go -t docs.md.tmpl -o BUILDERS.md`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, f, "")
		},
	}
	addFlags(cmd, f)
	return cmd
}

func newPlanCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the synthesized stage plan as YAML",
		Long: `Print the synthesized stage plan of the selected structs as YAML, without
generating code. Explicit order warnings are included in each plan.

Examples:
    stagegen plan -i models.go -T Order`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, f, config.FormatYAML)
		},
	}
	addFlags(cmd, f)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the stagegen version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stagegen %s\n", version)
		},
	}
}

func addFlags(cmd *cobra.Command, f *flags) {
	fs := cmd.Flags()
	fs.StringVarP(&f.inputFile, "input", "i", "", "Input Go source or HCL record file (required)")
	fs.StringVarP(&f.outputFile, "output", "o", "", "Output file (default: stdout)")
	fs.StringVarP(&f.configFile, "config", "c", "", "Config file (YAML/JSON)")
	fs.StringVarP(&f.templateFile, "template", "t", "", "Template file replacing the built-in one")
	fs.StringVarP(&f.types, "types", "T", "", "Only generate for these types (comma-separated)")
	fs.StringVarP(&f.exclude, "exclude", "X", "", "Exclude these types (comma-separated)")
	fs.BoolVar(&f.allStructs, "all", false, "Generate for every struct, not only annotated ones")
	fs.BoolVar(&f.exportedOnly, "exported", false, "Only process exported types")
	fs.BoolVar(&f.strict, "strict", false, "Reject explicit orders that disagree with field roles")
	fs.BoolVar(&f.loop, "loop", false, "Allow repeated contributions to non-terminal accumulating fields")
	fs.BoolVar(&f.fixImports, "fix-imports", false, "Let goimports add and remove imports of the output")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "Verbose output")
	_ = cmd.MarkFlagRequired("input")
}

func run(cmd *cobra.Command, f *flags, format string) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	if format != "" {
		cfg.Options.Format = format
	}

	logger, err := logging.New(cfg.Log, f.verbose, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("run_id", uuid.NewString()))

	file, err := parseInput(f.inputFile, cfg)
	if err != nil {
		return fmt.Errorf("parsing input: %w", err)
	}
	logger.Debug("input parsed",
		zap.String("input", f.inputFile),
		zap.String("package", file.Package),
		zap.Int("records", len(file.Records)),
	)

	gen := generator.New(cfg, logger)
	if f.templateFile != "" {
		if err := gen.LoadTemplate(f.templateFile); err != nil {
			return err
		}
	}

	// Buffer the output so a failed run never truncates an existing file.
	var buf bytes.Buffer
	if err := gen.Generate(file, f.outputFile, &buf); err != nil {
		return err
	}

	if f.outputFile == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(f.outputFile, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	logger.Debug("output written", zap.String("output", f.outputFile))
	return nil
}

// loadConfig applies defaults, the config file, STAGEGEN_* variables and
// explicitly set flags, in increasing precedence.
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg := config.New()
	if f.configFile != "" {
		if err := cfg.LoadFile(f.configFile); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}
	if err := cfg.LoadEnv(); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	fs := cmd.Flags()
	if fs.Changed("types") {
		cfg.Options.IncludeTypes = parseCommaSeparated(f.types)
	}
	if fs.Changed("exclude") {
		cfg.Options.ExcludeTypes = parseCommaSeparated(f.exclude)
	}
	if fs.Changed("all") {
		cfg.Options.AllStructs = f.allStructs
	}
	if fs.Changed("exported") {
		cfg.Options.ExportedOnly = f.exportedOnly
	}
	if fs.Changed("strict") {
		cfg.Options.Strict = f.strict
	}
	if fs.Changed("loop") {
		cfg.Options.LoopAccumulators = f.loop
	}
	if fs.Changed("fix-imports") {
		cfg.Options.FixImports = f.fixImports
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// parseInput selects the front-end by file extension.
func parseInput(path string, cfg *config.Config) (*model.File, error) {
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		return hclspec.ParseFile(path)
	}
	return parser.New(cfg.Options.TagKey, cfg.Options.DefaultTagKey).ParseFile(path)
}

// parseCommaSeparated splits a comma-separated string into a slice of trimmed strings.
func parseCommaSeparated(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
