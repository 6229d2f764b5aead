package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vk/rigbuild/internal/app"
	"github.com/vk/rigbuild/internal/tagid"
)

// EnvPrefix prefixes every environment variable read by the CLI.
const EnvPrefix = "RIGBUILD"

// Exit codes.
const (
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Execute runs the command line in args. Any error it returns is an
// *ExitError.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	cmd := NewRootCommand(outW, errW)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	// Anything cobra rejected before a command ran is a usage problem.
	return &ExitError{Code: ExitUsage, Message: err.Error()}
}

// NewRootCommand builds the command tree. Each call gets its own viper
// instance, so commands can be built repeatedly in tests.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "rigbuild",
		Short: "Build character rigs from declarative manifests",
		Long: `rigbuild loads HCL manifests describing rig jobs, schedules them stage by
stage until every job has run or no further progress is possible, and
prints a report of what was built.

Settings can be given as flags, as RIGBUILD_* environment variables
(RIGBUILD_LOG_LEVEL=debug) or in a rigbuild.yaml file in the working
directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v)
		},
	}
	root.SetOut(outW)
	root.SetErr(errW)

	flags := root.PersistentFlags()
	flags.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	flags.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.String("report-format", "table", "Report format. Options: 'table', 'json', 'yaml'.")
	flags.String("report-url", "", "socket.io endpoint receiving the report. Empty disables publishing.")
	flags.String("report-namespace", "/", "socket.io namespace used for publishing.")
	flags.StringSlice("stages", nil, "Stages to run, in order. Defaults to every stage of the manifests.")
	flags.Bool("strict", true, "Exit with an error when any job fails.")
	for _, name := range []string{"log-format", "log-level", "report-format", "report-url", "report-namespace", "stages", "strict"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(buildCmd(v, errW, false))
	root.AddCommand(buildCmd(v, errW, true))
	root.AddCommand(tagCmd())
	return root
}

func initConfig(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("rigbuild")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return &ExitError{Code: ExitUsage, Message: fmt.Sprintf("failed to read config file: %v", err)}
		}
	}
	slog.Debug("CLI configuration initialized.", "file", v.ConfigFileUsed())
	return nil
}

func buildCmd(v *viper.Viper, logW io.Writer, inspect bool) *cobra.Command {
	use, short := "build [paths...]", "Build the rigs described by the manifests"
	if inspect {
		use, short = "inspect [paths...]", "Build, then print the namespace tree"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `.

Each path is a manifest file, a directory searched recursively for .hcl
files, or a doublestar pattern such as "rigs/**/*.hcl". Without paths the
"paths" list of rigbuild.yaml is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newConfig(v, args, inspect)
			if err != nil {
				return &ExitError{Code: ExitUsage, Message: err.Error()}
			}
			slog.Debug("CLI parser finished successfully.", "config", cfg)

			a := app.NewApp(cmd.OutOrStdout(), cfg, app.WithLogWriter(logW))
			if err := a.Run(cmd.Context()); err != nil {
				return &ExitError{Code: ExitFailure, Message: err.Error()}
			}
			return nil
		},
	}
}

// newConfig collects the bound settings into a validated app.Config.
func newConfig(v *viper.Viper, args []string, inspect bool) (*app.Config, error) {
	paths := args
	if len(paths) == 0 {
		paths = v.GetStringSlice("paths")
	}
	return app.NewConfig(app.Config{
		Paths:           paths,
		LogFormat:       v.GetString("log-format"),
		LogLevel:        v.GetString("log-level"),
		Stages:          stageList(v.GetStringSlice("stages")),
		ReportFormat:    v.GetString("report-format"),
		ReportURL:       v.GetString("report-url"),
		ReportNamespace: v.GetString("report-namespace"),
		Strict:          v.GetBool("strict"),
		Inspect:         inspect,
	})
}

// stageList flattens comma separated entries. Values from the environment
// or the config file arrive as one string and are split on whitespace only.
func stageList(entries []string) []string {
	var stages []string
	for _, entry := range entries {
		for _, name := range strings.Split(entry, ",") {
			if name = strings.TrimSpace(name); name != "" {
				stages = append(stages, name)
			}
		}
	}
	return stages
}

func tagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tag <tag>",
		Short: "Parse a tag and print its parts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag, err := tagid.Parse(args[0])
			if err != nil {
				return &ExitError{Code: ExitUsage, Message: err.Error()}
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendRows([]table.Row{
				{"tag", tag.String()},
				{"asset", tag.Asset},
				{"key", tag.Key()},
				{"main", tag.Main},
				{"sub", tag.Sub},
				{"plug", tag.Plug},
				{"children", tag.Children},
				{"kind", tag.Kind},
				{"deferrable", tagid.IsDeferrable(tag.String())},
			})
			t.Render()
			return nil
		},
	}
}
