package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"infercheck/logging"
	"infercheck/reporter"
	"infercheck/toolkit"
)

var verbose bool

var rootCommand = &cobra.Command{
	Use:           "infercheck",
	Short:         "Conformance runner for the GridServe inference platform",
	Long:          "infercheck runs black-box conformance suites against a GridServe environment, writes timestamped reports and maintains the report index.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// errCasesFailed signals a completed run with failed cases. Execute maps
// it to a non-zero exit after all deferred cleanup has run.
var errCasesFailed = errors.New("one or more cases failed")

var runCommand = &cobra.Command{
	Use:   "run [suite_file]",
	Short: "Execute a conformance suite and persist the report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		suitePath := args[0]
		if _, err := os.Stat(suitePath); errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("suite file %q does not exist", suitePath)
		}

		logger, err := logging.New(verbose)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		cfg, err := toolkit.LoadRunConfig()
		if err != nil {
			return err
		}
		if env, _ := cmd.Flags().GetString("env"); env != "" {
			cfg.Environment = env
		}
		if scope, _ := cmd.Flags().GetString("scope"); scope != "" {
			if !toolkit.ValidScope(scope) {
				return fmt.Errorf("--scope must be \"personal\" or \"team\", got %q", scope)
			}
			cfg.Scope = scope
		}
		if dir, _ := cmd.Flags().GetString("reports-dir"); dir != "" {
			cfg.ReportsDir = dir
		}

		spec, err := toolkit.LoadSuite(suitePath)
		if err != nil {
			return err
		}

		auth, err := toolkit.NewResolver().Resolve(cfg.Environment)
		if err != nil {
			return err
		}

		client := toolkit.NewClient(auth, cfg, logger)
		runner := reporter.NewRunner(client, logger)

		ctx := context.Background()
		report := runner.Run(ctx, spec, cfg.Environment)

		if cfg.StressEnabled {
			runner.Stress(ctx, spec, cfg.StressWorkers)
		}

		jsonPath, htmlPath, err := reporter.WriteReport(cfg.ReportsDir, cfg.Scope, report)
		if err != nil {
			return err
		}
		logger.Info("report persisted",
			zap.String("json", jsonPath),
			zap.String("html", htmlPath))

		if _, err := reporter.Prune(cfg.ReportsDir, reporter.DefaultKeep); err != nil {
			logger.Warn("report pruning failed", zap.Error(err))
		}
		if _, err := reporter.WriteIndex(cfg.ReportsDir); err != nil {
			logger.Warn("index rewrite failed", zap.Error(err))
		}

		if history, err := reporter.OpenHistory(cfg.HistoryPath); err != nil {
			logger.Warn("history unavailable", zap.Error(err))
		} else {
			if err := history.Record(report, cfg.Scope); err != nil {
				logger.Warn("history record failed", zap.Error(err))
			}
			_ = history.Close()
		}

		fmt.Fprintf(cmd.OutOrStdout(), "total=%d passed=%d failed=%d\n",
			report.Summary.Total, report.Summary.Passed, report.Summary.Failed)
		if report.Summary.Failed > 0 {
			return errCasesFailed
		}
		return nil
	},
}

var keygenCommand = &cobra.Command{
	Use:   "keygen [label]",
	Short: "Mint a fresh API key via the environment's key-generation endpoint",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label := "infercheck"
		if len(args) == 1 {
			label = args[0]
		}

		logger, err := logging.New(verbose)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		cfg, err := toolkit.LoadRunConfig()
		if err != nil {
			return err
		}
		if env, _ := cmd.Flags().GetString("env"); env != "" {
			cfg.Environment = env
		}

		auth, err := toolkit.NewResolver().Resolve(cfg.Environment)
		if err != nil {
			return err
		}

		generated, err := toolkit.GenerateKey(context.Background(), auth, cfg.RequestTimeout, label, logger)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), generated.Key)
		if generated.Info != nil && !generated.Info.ExpiresAt.IsZero() {
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", generated.Info.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
		}
		return nil
	},
}

var pruneCommand = &cobra.Command{
	Use:   "prune",
	Short: "Prune old reports and rewrite the index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := toolkit.LoadRunConfig()
		if err != nil {
			return err
		}
		if dir, _ := cmd.Flags().GetString("reports-dir"); dir != "" {
			cfg.ReportsDir = dir
		}
		keep, _ := cmd.Flags().GetInt("keep")

		removed, err := reporter.Prune(cfg.ReportsDir, keep)
		if err != nil {
			return err
		}
		if _, err := reporter.WriteIndex(cfg.ReportsDir); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "removed %d report file(s)\n", len(removed))
		return nil
	},
}

var historyCommand = &cobra.Command{
	Use:   "history",
	Short: "Show recent run summaries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := toolkit.LoadRunConfig()
		if err != nil {
			return err
		}
		n, _ := cmd.Flags().GetInt("n")

		history, err := reporter.OpenHistory(cfg.HistoryPath)
		if err != nil {
			return err
		}
		defer func() { _ = history.Close() }()

		records, err := history.Recent(n)
		if err != nil {
			return err
		}
		for _, rec := range records {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s/%s scope=%s total=%d passed=%d failed=%d\n",
				rec.StartedAt, rec.Service, rec.Environment, rec.Scope,
				rec.Summary.Total, rec.Summary.Passed, rec.Summary.Failed)
		}
		return nil
	},
}

func init() {
	rootCommand.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	runCommand.Flags().String("env", "", "environment name (staging, production)")
	runCommand.Flags().String("scope", "", "report scope (personal, team)")
	runCommand.Flags().String("reports-dir", "", "directory for report output")

	keygenCommand.Flags().String("env", "", "environment name (staging, production)")

	pruneCommand.Flags().String("reports-dir", "", "directory holding reports")
	pruneCommand.Flags().Int("keep", reporter.DefaultKeep, "reports to keep per scope")

	historyCommand.Flags().Int("n", 10, "number of runs to show")

	rootCommand.AddCommand(runCommand, keygenCommand, pruneCommand, historyCommand)
}

func Execute() {
	if err := rootCommand.Execute(); err != nil {
		if !errors.Is(err, errCasesFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
