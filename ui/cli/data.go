// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/sustc/sustc/internal/benchmark"
	"github.com/sustc/sustc/internal/csvload"
	"github.com/sustc/sustc/internal/i18n"
	"github.com/sustc/sustc/internal/logging"
)

// spin shows an indeterminate progress bar on the command's error stream
// until the returned stop function is called.
func spin(cmd *cobra.Command, desc string) (stop func()) {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		t := time.NewTicker(100 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-done:
				_ = bar.Finish()
				return
			case <-t.C:
				_ = bar.Add(1)
			}
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [data-dir]",
		Short: "Replace the database content with the CSV data set",
		Long: `Reads users.csv, videos.csv and danmu.csv from the data directory
(benchmark.data_dir by default) and imports them, dropping existing tables.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := appConfig.Benchmark.DataDir
			if len(args) == 1 {
				dir = args[0]
			}
			logging.Infof("%s", i18n.T("import.loading", dir))
			start := time.Now()
			data, err := csvload.LoadDir(dir)
			if err != nil {
				return err
			}
			stop := spin(cmd, "importing")
			err = services.Database.ImportData(cmd.Context(), data.Danmus, data.Users, data.Videos)
			stop()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("import.done", len(data.Users), len(data.Videos), len(data.Danmus), time.Since(start).Round(time.Millisecond)))
			return nil
		},
	}
}

func newTruncateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "truncate",
		Short: "Empty every table (needs database.allow_truncate)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := services.Database.Truncate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("truncate.done"))
			return nil
		},
	}
}

func newSumCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sum <a> <b>",
		Short: "Add two numbers in the database",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid number %q: %w", args[0], err)
			}
			b, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid number %q: %w", args[1], err)
			}
			sum, err := services.Database.Sum(cmd.Context(), a, b)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("sum.result", a, b, sum))
			return nil
		},
	}
}

func newMembersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "members",
		Short: "Print the student ids of the group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("members.result", services.Database.GetGroupMembers()))
			return nil
		},
	}
}

// runBenchmark replays the case files below dataDir and prints the report.
// A non-empty reportPath also receives the report as YAML.
func runBenchmark(cmd *cobra.Command, dataDir, reportPath string) error {
	logging.Infof("%s", i18n.T("benchmark.start", dataDir))
	runner := benchmark.NewRunner(services, benchmark.Options{
		DataDir:  dataDir,
		Truncate: appConfig.Benchmark.Truncate,
		Out:      cmd.ErrOrStderr(),
	})
	rep, runErr := runner.Run(cmd.Context())
	out := cmd.OutOrStdout()
	if rep != nil {
		fmt.Fprintln(out, rep.Render())
		fmt.Fprintln(out, i18n.T("benchmark.summary", rep.Passed(), rep.Total(), rep.Elapsed.Round(time.Millisecond)))
		if reportPath != "" {
			if err := rep.WriteFile(reportPath); err != nil {
				return err
			}
			fmt.Fprintln(out, i18n.T("benchmark.report_written", reportPath))
		}
	}
	return runErr
}

func newBenchmarkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Import the data set and replay the benchmark cases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := appConfig.Benchmark.DataDir
			if cmd.Flags().Changed("data") {
				dir, _ = cmd.Flags().GetString("data")
			}
			report := appConfig.Benchmark.Report
			if cmd.Flags().Changed("report") {
				report, _ = cmd.Flags().GetString("report")
			}
			return runBenchmark(cmd, dir, report)
		},
	}
	cmd.Flags().String("data", "", "Data directory (defaults to benchmark.data_dir)")
	cmd.Flags().String("report", "", "Write the report as YAML to this file")
	return cmd
}

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark case file tools",
	}
	pack := &cobra.Command{
		Use:         "pack <cases.json> [out" + benchmark.CaseSuffix + "]",
		Short:       "Convert a JSON case list into a compressed case file",
		Args:        cobra.RangeArgs(1, 2),
		Annotations: map[string]string{annotationNoStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			in := args[0]
			out := strings.TrimSuffix(in, ".json") + benchmark.CaseSuffix
			if len(args) == 2 {
				out = args[1]
			}
			src, err := os.Open(in)
			if err != nil {
				return err
			}
			defer func() { _ = src.Close() }()
			dst, err := os.Create(out)
			if err != nil {
				return err
			}
			n, err := benchmark.Pack(src, dst)
			if cerr := dst.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				_ = os.Remove(out)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("pack.done", n, out))
			return nil
		},
	}
	cmd.AddCommand(pack)
	return cmd
}
