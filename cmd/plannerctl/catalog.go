package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/garyellow/degree-planner/internal/data"
	"github.com/garyellow/degree-planner/internal/requirements"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Requirements catalog tools",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a catalog file against the schema (default: the embedded catalog)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCatalogValidate,
	})
	return cmd
}

func runCatalogValidate(cmd *cobra.Command, args []string) error {
	raw, name := data.DefaultCatalog, "embedded catalog"
	if len(args) == 1 {
		var err error
		if raw, err = os.ReadFile(args[0]); err != nil {
			return fmt.Errorf("failed to read catalog: %w", err)
		}
		name = args[0]
	}

	out := cmd.OutOrStdout()
	cat, err := requirements.Load(raw)
	if err != nil {
		var schemaErr *requirements.SchemaError
		if errors.As(err, &schemaErr) {
			for _, fe := range schemaErr.Errors {
				_, _ = fmt.Fprintf(out, "%s: %s\n", fe.Field, fe.Message)
			}
			return fmt.Errorf("%s is invalid: %d problem(s)", name, len(schemaErr.Errors))
		}
		return fmt.Errorf("%s is invalid: %w", name, err)
	}

	_, _ = fmt.Fprintf(out, "%s: ok (%d majors, %d minors, %d math electives, %d legacy course numbers)\n",
		name, len(cat.Majors), len(cat.Minors), len(cat.ValidMathElectives), cat.Remapper().Len())
	return nil
}

func newRequirementsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "requirements [program]",
		Short: "Print the catalog, or one program by name, code or alias",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			source, err := loadCatalog(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			program := ""
			if len(args) == 1 {
				program = args[0]
			}
			view, err := source.Catalog().Requirements(program)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), view)
		},
	}
}

func newNormalizeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <code>...",
		Short: "Normalize course codes and map legacy course numbers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			source, err := loadCatalog(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			remap := source.Catalog().Remapper()
			for _, code := range args {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", code, remap.Remap(code))
			}
			return nil
		},
	}
}

func newProgressCmd(opts *options) *cobra.Command {
	var user, program string
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Evaluate a user's progress toward declared programs or --program",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkUser(user); err != nil {
				return err
			}
			e, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			p, err := e.profiles.Read(cmd.Context(), user)
			if err != nil {
				return err
			}
			start := time.Now()
			summary, err := e.catalog.Catalog().CheckProgress(p.CoursesCompleted, p.Majors, p.Minors, program)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), summary); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "evaluated %d program(s) in %s\n", len(summary.Programs), time.Since(start).Round(time.Microsecond))
			return nil
		},
	}
	addUserFlag(cmd, &user)
	cmd.Flags().StringVarP(&program, "program", "p", "", "Program name, code or alias (default: declared programs)")
	return cmd
}
