package cli

import (
	"github.com/spf13/cobra"
)

const versionString = "1.0.0"

type cliOptions struct {
	configPath string
	files      []string
	draw       string
	printFiles bool
	format     string
	out        string
	db         string
	watch      bool
	ui         bool
	verbose    bool
	version    bool
	args       []string
}

// newRootCmd builds the single duml command. run receives the parsed options.
func newRootCmd(run func(cmd *cobra.Command, opts cliOptions) error) *cobra.Command {
	var opts cliOptions
	cmd := &cobra.Command{
		Use:   "duml [flags] [paths...]",
		Short: "Draw UML class diagrams from D source files",
		Long: "duml scans D source files and directories for modules, classes, structs,\n" +
			"interfaces, enums and unions and renders them as DOT, Mermaid, PlantUML\n" +
			"or a TSV declaration listing.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.args = args
			return run(cmd, opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to config file (default ./"+defaultConfigName+" when present)")
	pf.StringVar(&opts.db, "db", "", "Store scans in this SQLite database")
	pf.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")

	f := cmd.Flags()
	f.StringSliceVarP(&opts.files, "files", "f", nil, "Comma separated source files or directories to scan")
	f.StringVarP(&opts.draw, "draw", "d", "", "Draw options: * or letters c,i,a,m,t,p")
	f.BoolVarP(&opts.printFiles, "print-files", "p", false, "Print each file name before it is scanned")
	f.StringVar(&opts.format, "format", "", "Render one format (dot, mermaid, plantuml, tsv) instead of the configured outputs")
	f.StringVar(&opts.out, "out", "", "File for --format output (default stdout)")
	f.BoolVar(&opts.watch, "watch", false, "Rebuild whenever a source file changes")
	f.BoolVar(&opts.ui, "ui", false, "Browse the result in the terminal UI")
	f.BoolVar(&opts.version, "version", false, "Print version and exit")

	cmd.AddCommand(newScansCmd(&opts))
	cmd.AddCommand(newShowCmd(&opts))
	return cmd
}
