package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"duml/internal/core/config"
	errs "duml/internal/core/errors"
	"duml/internal/data/store"
	"duml/internal/output"

	"github.com/spf13/cobra"
)

func newScansCmd(opts *cliOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "scans",
		Short: "List the scans kept in the database, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listScans(cmd.Context(), *opts, limit, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of scans to list (0 for all)")
	return cmd
}

func newShowCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show [module]",
		Short: "Print the latest stored scan: module metrics, diagnostics and declarations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var module string
			if len(args) == 1 {
				module = args[0]
			}
			return showLatest(cmd.Context(), *opts, module, cmd.OutOrStdout())
		},
	}
}

// openStore opens the database named by --db or the config. It never creates
// one: reading from a missing database is an error.
func openStore(opts cliOptions) (*store.Store, error) {
	configureLogging(false, opts.verbose)

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("detect working directory: %w", err)
	}
	cfg, baseDir, err := loadConfig(opts.configPath, cwd)
	if err != nil {
		return nil, err
	}
	config.ApplyEnvOverrides(cfg)

	path := config.ResolvePaths(cfg, baseDir).DBPath
	if opts.db != "" {
		path = config.ResolveRelative(cwd, opts.db)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errs.AddContext(errs.Wrap(err, errs.CodeNotFound, "no scan database"), errs.CtxPath, path)
	}
	return store.Open(path, cfg.DB.BusyTimeout)
}

func listScans(ctx context.Context, opts cliOptions, limit int, w io.Writer) error {
	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	scans, err := st.ListScans(ctx, limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tFILES\tMODULES\tTYPES\tDIAGNOSTICS\tCYCLES")
	for _, s := range scans {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			s.ID, s.CreatedAt.Local().Format(time.DateTime), s.Files, s.Modules, s.Types, s.Diagnostics, s.Cycles)
	}
	return tw.Flush()
}

// showLatest prints the newest scan. A module name limits the declaration
// listing to that module.
func showLatest(ctx context.Context, opts cliOptions, module string, w io.Writer) error {
	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	scan, err := st.LatestScan(ctx)
	if err != nil {
		return err
	}
	modules, err := st.Modules(ctx, scan.ID)
	if err != nil {
		return err
	}
	diags, err := st.Diagnostics(ctx, scan.ID)
	if err != nil {
		return err
	}
	decls, err := st.Declarations(ctx, scan.ID, module)
	if err != nil {
		return err
	}
	if module != "" && len(decls) == 0 {
		return errs.AddContext(errs.Newf(errs.CodeNotFound, "module %q not in scan %s", module, scan.ID), errs.CtxSymbol, module)
	}

	fmt.Fprintf(w, "scan %s (%s): %d files, %d modules, %d types, %d diagnostics, %d cycles\n\n",
		scan.ID, scan.CreatedAt.Local().Format(time.DateTime), scan.Files, scan.Modules, scan.Types, scan.Diagnostics, scan.Cycles)

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "MODULE\tFAN-IN\tFAN-OUT\tTYPES\tIMPORTANCE")
	for _, m := range modules {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.1f\n", m.Module, m.FanIn, m.FanOut, m.Types, m.Importance)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(diags) > 0 {
		fmt.Fprintln(w)
		for _, d := range diags {
			fmt.Fprintf(w, "%s:%d: %s: %s\n", d.File, d.Line, d.Kind, d.Snippet)
		}
	}

	fmt.Fprintln(w)
	_, err = io.WriteString(w, output.FormatDeclarations(decls))
	return err
}
