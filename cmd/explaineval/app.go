package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/orneryd/explaineval/pkg/config"
	"github.com/orneryd/explaineval/pkg/eval"
	"github.com/orneryd/explaineval/pkg/logging"
)

var errUsage = eval.ErrUsage

// app holds the state shared by the commands of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	// flags
	configPath string
	verbose    bool
	format     formatValue
	savePath   string
	storeDir   string

	cfg    *config.Config
	logger *zap.Logger
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "explaineval <predictions.tsv> <annotations.txt> <max_at>",
		Short: "Cumulative explainability of ranked predictions",
		Long: `explaineval joins a ranked predictions table with an explainability
annotation table and prints, for every rank depth 1..max_at, the fraction of
entities whose top predictions contain an item annotated "yes".

Predictions:  key<TAB>item_0<TAB>item_1...   (rank order)
Annotations:  item:yes | item:no`,
		Args:              exactInputs,
		PersistentPreRunE: a.setup,
		RunE:              a.runEvaluate,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML configuration file")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Debug logging on stderr")
	pf.StringVar(&a.storeDir, "store", "", "Run archive directory (badger)")

	f := root.Flags()
	f.Var(&a.format, "format", "Output format: vector, summary, compact, json")
	f.StringVar(&a.savePath, "save", "", "Also save the full result as JSON to this file")

	root.AddCommand(a.historyCommand())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "explaineval v%s (%s)\n", version, commit)
		},
	})

	return root
}

// setup loads configuration, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Output.Format = a.format.String()
	}
	if flags.Changed("save") {
		cfg.Output.SavePath = a.savePath
	}
	if flags.Changed("store") {
		cfg.Storage.Dir = a.storeDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging, a.verbose)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.logger.Debug("configuration loaded", zap.Stringer("config", cfg))
	return nil
}

// exactInputs checks for the three positional inputs and a positive max_at.
func exactInputs(cmd *cobra.Command, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("%w: expected 3 arguments (predictions, annotations, max_at), got %d", errUsage, len(args))
	}
	if _, err := parseMaxAt(args[2]); err != nil {
		return err
	}
	return nil
}

func parseMaxAt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: max_at must be an integer, got %q", errUsage, s)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: max_at must be at least 1, got %d", errUsage, n)
	}
	return n, nil
}

// formatValue is a pflag.Value restricted to config.Formats.
type formatValue string

var _ pflag.Value = (*formatValue)(nil)

func (f *formatValue) String() string { return string(*f) }

func (f *formatValue) Set(s string) error {
	if !config.IsFormat(s) {
		return fmt.Errorf("unknown format %q", s)
	}
	*f = formatValue(s)
	return nil
}

func (f *formatValue) Type() string { return "format" }
