package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/macropower/pstart/api/v1beta1/configs"
	"github.com/macropower/pstart/pkg/config"
	"github.com/macropower/pstart/pkg/log"
	"github.com/macropower/pstart/pkg/version"
)

const (
	cmdName = "pstart"
	cmdDesc = `Launch a configured set of programs, resolved from preferred directories and $PATH.`

	defaultProfile = "all"
)

type RootArgs struct {
	LogLevel     string
	LogFormat    string
	ConfigPath   string
	NoSystemPath bool
}

func NewRootArgs() *RootArgs {
	return &RootArgs{}
}

func (ra *RootArgs) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVar(&ra.LogLevel, "log-level", "info", fmt.Sprintf("Log level, one of: %s", log.AllLevels))
	cmd.PersistentFlags().
		StringVar(&ra.LogFormat, "log-format", "text", fmt.Sprintf("Log format, one of: %s", log.AllFormats))
	cmd.PersistentFlags().
		StringVar(&ra.ConfigPath, "config", "", "Path to the pstart configuration file")
	cmd.PersistentFlags().
		BoolVar(&ra.NoSystemPath, "no-system-path", false, "Only search the configured directories, never $PATH")

	must(cmd.MarkPersistentFlagFilename("config", "yaml", "yml"))

	must(cmd.RegisterFlagCompletionFunc("log-format",
		cobra.FixedCompletions(log.AllFormats, cobra.ShellCompDirectiveNoFileComp),
	))
	must(cmd.RegisterFlagCompletionFunc("log-level",
		cobra.FixedCompletions(log.AllLevels, cobra.ShellCompDirectiveNoFileComp),
	))
}

// GetConfigPath returns the --config value, or the default location.
func (ra *RootArgs) GetConfigPath() string {
	if ra.ConfigPath != "" {
		return ra.ConfigPath
	}

	return configs.GetPath()
}

// LoadConfig loads and validates the configuration file, applying
// --no-system-path.
func (ra *RootArgs) LoadConfig(opts ...config.LoaderOpt) (*configs.Config, error) {
	path := ra.GetConfigPath()

	cfg, err := config.LoadFile(path, opts...)
	if err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}

	if ra.NoSystemPath {
		cfg.SetSystemPath(false)
	}

	return cfg, nil
}

func NewRootCmd() *cobra.Command {
	args := NewRootArgs()
	runArgs := NewRunArgs(args)

	runCmd := NewRunCmd(runArgs)
	cmd := &cobra.Command{
		Use:               cmdName + " [profile]",
		Short:             cmdDesc,
		Example:           cmdExamples,
		PersistentPreRunE: setupLogging(args),
		ValidArgsFunction: runCmd.ValidArgsFunction,
		Args:              runCmd.Args,
		RunE:              runCmd.RunE,
	}

	args.AddFlags(cmd)
	runArgs.AddFlags(cmd)
	cmd.AddCommand(
		runCmd,
		NewListCmd(args),
		NewWhichCmd(args),
	)

	bindEnvVars(cmd)

	return cmd
}

func setupLogging(rc *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		logHandler, err := log.CreateHandlerWithStrings(cmd.ErrOrStderr(), rc.LogLevel, rc.LogFormat)
		if err != nil {
			return fmt.Errorf("create log handler: %w", err)
		}

		slog.SetDefault(slog.New(logHandler))
		slog.Debug("starting", slog.String("version", version.Info()))

		return nil
	}
}
