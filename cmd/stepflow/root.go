package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/petrijr/stepflow/pkg/api"
	"github.com/petrijr/stepflow/pkg/config"
	"github.com/petrijr/stepflow/pkg/data"
)

const defaultDB = "sqlite::memory:"

func newRootCmd() *cobra.Command {
	var dbFlag string

	root := &cobra.Command{
		Use:           "stepflow",
		Short:         "Validate and run step pipelines",
		Long:          `stepflow builds pipelines from YAML definitions and runs them against a JSON input.`,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&dbFlag, "db", defaultDB, "database for sql.* steps, as driver:dsn")

	root.AddCommand(validateCmd(&dbFlag))
	root.AddCommand(runCmd(&dbFlag))
	root.AddCommand(componentsCmd())
	return root
}

func validateCmd(dbFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [pipeline.yaml]",
		Short: "Validate a pipeline definition",
		Long:  "Parses the definition and resolves every component without running it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.ParseFile(args[0])
			if err != nil {
				return err
			}
			reg, closeDB, err := newRegistry(*dbFlag)
			if err != nil {
				return err
			}
			defer closeDB()

			if _, err := config.Build(reg, cfg, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pipeline %q is valid.\n", cfg.Name)
			return nil
		},
	}
}

func runCmd(dbFlag *string) *cobra.Command {
	var (
		pipelineFile string
		inputFlag    string
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a pipeline",
		Long:  "Runs a pipeline once with the given JSON input and prints the outcome as JSON.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if pipelineFile == "" {
				return fmt.Errorf("pipeline file is required")
			}
			input, err := parseInput(inputFlag)
			if err != nil {
				return err
			}

			cfg, err := config.ParseFile(pipelineFile)
			if err != nil {
				return err
			}
			reg, closeDB, err := newRegistry(*dbFlag)
			if err != nil {
				return err
			}
			defer closeDB()

			opts := &config.BuildOptions{}
			if verbose {
				cfg.Logging = true
				logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
				opts.Observer = api.NewLoggingObserver(logger)
			}
			p, err := config.Build(reg, cfg, opts)
			if err != nil {
				return err
			}

			out := p.Run(context.Background(), input)
			text, err := outcomeJSON(out)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)

			if out.IsError() || out.IsRestartLimitReached() {
				return fmt.Errorf("pipeline %s ended with %s", p.Name(), out.Kind)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&pipelineFile, "file", "f", "", "pipeline definition (YAML)")
	cmd.Flags().StringVar(&inputFlag, "input", "", "pipeline input as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log run and step events to stderr")
	return cmd
}

func componentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "components",
		Short: "List the registered steps and predicates",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, closeDB, err := newRegistry(defaultDB)
			if err != nil {
				return err
			}
			defer closeDB()

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "steps:      %s\n", strings.Join(reg.StepNames(), ", "))
			fmt.Fprintf(w, "predicates: %s\n", strings.Join(reg.PredicateNames(), ", "))
			return nil
		},
	}
}

// newRegistry returns the builtins plus the sql.* steps bound to dbSpec.
// The database is opened lazily, so an unreachable DSN only fails runs
// that use it.
func newRegistry(dbSpec string) (*config.Registry, func(), error) {
	driver, dsn, ok := strings.Cut(dbSpec, ":")
	if !ok || dsn == "" {
		return nil, nil, fmt.Errorf("--db: expected driver:dsn, got %q", dbSpec)
	}
	db, err := data.Open(driver, dsn)
	if err != nil {
		return nil, nil, err
	}
	if dsn == ":memory:" {
		// every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	reg := config.NewRegistry()
	config.RegisterBuiltins(reg)
	data.RegisterSteps(reg, db)
	return reg, func() { _ = db.Close() }, nil
}

var errInvalidInput = errors.New("input is not valid JSON")

func parseInput(s string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if !gjson.Valid(s) {
		return nil, errInvalidInput
	}
	return gjson.Parse(s).Value(), nil
}

// outcomeJSON renders an outcome as {"outcome": kind, "value": ..., "error": ...}.
func outcomeJSON(out api.Outcome) (string, error) {
	value := out.Value
	if inner, ok := value.(api.Outcome); ok {
		value = inner.Value
	}

	doc, err := sjson.Set("{}", "outcome", out.Kind.String())
	if err != nil {
		return "", err
	}
	if doc, err = sjson.Set(doc, "value", value); err != nil {
		return "", fmt.Errorf("encode outcome value: %w", err)
	}
	if out.Err != nil {
		if doc, err = sjson.Set(doc, "error", out.Err.Error()); err != nil {
			return "", err
		}
	}
	return doc, nil
}
