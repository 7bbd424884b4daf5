// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the root command of sustc-runner: configuration loading,
// store and service wiring, the benchmark profile and the version command.

package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sustc/sustc/buildvars"
	"github.com/sustc/sustc/internal/config"
	"github.com/sustc/sustc/internal/core"
	"github.com/sustc/sustc/internal/db"
	"github.com/sustc/sustc/internal/i18n"
	"github.com/sustc/sustc/internal/logging"
)

var version = "dev"   // this will be set by the linker
var gitCommit = "dev" // set at build time with the short commit SHA
var buildDate = ""    // set at build time (RFC3339)
var cfgFile string
var verbose bool

var appConfig config.Config

// annotationNoStore marks commands that run without config or a database.
const annotationNoStore = "sustc/no-store"

// store and services are opened once per process and shared by every
// command, including the ones run from the shell.
var (
	store    db.Store
	services *core.Services
)

// setupDefaultServices loads the configuration and opens the store once per
// process. Later calls, such as the commands run from the shell, reuse both.
func setupDefaultServices(cmd *cobra.Command, args []string) error {
	if services != nil {
		return nil
	}
	optionalConfigPath, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}

	appConfig, err = config.LoadConfig[config.Config](cmd, config.Defaults(), optionalConfigPath)
	// A missing file is expected; defaults and SUSTC_* variables apply.
	if errors.As(err, &viper.ConfigFileNotFoundError{}) {
		logging.Debugf("%s", i18n.T("config.missing"))
	} else if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	if verbose {
		appConfig.Log.Level = "debug"
		appConfig.Database.Debug = true
	}
	logging.SetLevel(appConfig.Log.Level)
	db.SetDebug(appConfig.Database.Debug)
	i18n.Init(appConfig.Language)

	st, err := db.New(cmd.Context(), db.Options{
		Type:           appConfig.Database.Type,
		DSN:            appConfig.Database.Dsn,
		MaxConns:       appConfig.Database.MaxConns,
		ConnectRetries: appConfig.Database.ConnectRetries,
		AllowTruncate:  appConfig.Database.AllowTruncate,
		Workers:        appConfig.Import.Workers,
		BatchSize:      appConfig.Import.BatchSize,
	})
	if err != nil {
		return fmt.Errorf("open %s store: %w", appConfig.Database.Type, err)
	}
	store = st
	services = core.New(st, core.Options{GroupMembers: appConfig.Group.Members})
	return nil
}

// closeServices releases the store opened by setupDefaultServices.
func closeServices() {
	if store != nil {
		if err := store.Close(); err != nil {
			logging.Warnf("close store: %v", err)
		}
	}
	store, services = nil, nil
}

// Execute runs the CLI entrypoint. The cmd/sustc-runner main package should
// call this function and handle process exit.
func Execute() error {
	defer closeServices()
	return NewRootCmd().Execute()
}

func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	// Only proceed if the user has explicitly set the --config flag.
	if cmd.Flags().Changed("config") {
		path, err := cmd.Flags().GetString("config")
		if err != nil {
			return nil, fmt.Errorf("could not read --config flag: %w", err)
		}
		if path == "" {
			return nil, nil
		}
		// Make sure the user-provided file exists to avoid unwanted behavior.
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
		}
		return &path, nil
	}
	return nil, nil
}

func compositeVersion() string {
	v, c, d := resolveBuildVersion(nil)
	out := v
	if c != "" && c != "dev" {
		out = out + " (" + c + ")"
	}
	if d != "" {
		out = out + " built: " + d
	}
	return out
}

// NewRootCmd creates and configures a new root cobra command.
// This function is used to create the main application command as well as
// fresh instances for the shell and for isolated testing.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sustc-runner",
		Short:         i18n.T("app.short"),
		Long:          i18n.T("app.long") + "\n\nRunning without a subcommand starts the interactive shell, or the benchmark with --profile benchmark.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       compositeVersion(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Annotations[annotationNoStore] != "" {
				return nil
			}
			return setupDefaultServices(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if appConfig.Profile == config.ProfileBenchmark {
				return runBenchmark(cmd, appConfig.Benchmark.DataDir, appConfig.Benchmark.Report)
			}
			return runShell(cmd, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging, including database statements")
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	cmd.PersistentFlags().String("profile", "", `Run profile ("benchmark" runs the benchmark and exits)`)
	cmd.PersistentFlags().String("language", "en", `Message language ("en", "zh")`)
	cmd.PersistentFlags().String("database.type", "postgres", `Store backend ("postgres" or "memory")`)
	cmd.PersistentFlags().String("database.dsn", "", "PostgreSQL connection string (DSN)")

	versionCmd := &cobra.Command{
		Use:         "version",
		Short:       "Print version",
		Annotations: map[string]string{annotationNoStore: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			v, c, d := resolveBuildVersion(nil)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "version: %s\n", v)
			fmt.Fprintf(out, "commit: %s\n", c)
			if d != "" {
				fmt.Fprintf(out, "built: %s\n", d)
			}
		},
	}

	cmd.AddCommand(
		newImportCmd(),
		newTruncateCmd(),
		newSumCmd(),
		newMembersCmd(),
		newBenchmarkCmd(),
		newBenchCmd(),
		newUserCmd(),
		newVideoCmd(),
		newShellCmd(),
		versionCmd,
	)
	return cmd
}

// resolveBuildVersion computes the best-available version, commit and build
// date for the running binary. If `info` is nil, it reads build info from
// the runtime. This helper is separated to make unit testing straightforward.
func resolveBuildVersion(info *debug.BuildInfo) (versionOut, commitOut, dateOut string) {
	resolvedVersion := buildvars.VersionOrDefault(version)
	resolvedCommit := gitCommit
	if buildvars.Commit != "" {
		resolvedCommit = buildvars.Commit
	}
	resolvedDate := buildDate

	var ok bool
	if info == nil {
		if infoLocal, found := debug.ReadBuildInfo(); found {
			info = infoLocal
			ok = true
		}
	} else {
		ok = true
	}

	if ok && info != nil {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			resolvedVersion = info.Main.Version
		}
		// If Main doesn't contain the version (some build paths), try to
		// find our module in the dependencies and use that version.
		if (resolvedVersion == "dev" || resolvedVersion == "(devel)") && info.Deps != nil {
			for _, dep := range info.Deps {
				if dep.Path == "github.com/sustc/sustc" && dep.Version != "" {
					resolvedVersion = dep.Version
					break
				}
			}
		}

		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if s.Value != "" {
					resolvedCommit = s.Value
				}
			case "vcs.time":
				if s.Value != "" {
					resolvedDate = s.Value
				}
			}
		}
	}

	// As a last resort, if no version was discovered, but a gitCommit was
	// provided via ldflags, show that to aid support.
	if resolvedVersion == "dev" && gitCommit != "dev" && gitCommit != "" {
		resolvedVersion = gitCommit
	}

	return resolvedVersion, resolvedCommit, resolvedDate
}
