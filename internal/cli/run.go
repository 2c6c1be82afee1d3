package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/macropower/pstart/api/v1beta1/configs"
	"github.com/macropower/pstart/pkg/config"
	"github.com/macropower/pstart/pkg/launch"
	"github.com/macropower/pstart/pkg/log"
)

const (
	cmdExamples = `  # Launch everything in the "all" profile:
  pstart

  # Launch a named profile:
  pstart recon

  # Ask before each program is started:
  pstart recon --confirm

  # Show the stderr of launched programs:
  pstart --show-stderr

  # Never search $PATH, only the configured directories:
  pstart --no-system-path

  # Print where a program would be launched from:
  pstart which nmap

  # Write the default configuration file and exit:
  pstart --write-config`
)

type RunArgs struct {
	*RootArgs

	Profile       string
	FailurePolicy string
	ShowStderr    bool
	Confirm       bool
	WriteConfig   bool
	ShowConfig    bool
}

func NewRunArgs(rootArgs *RootArgs) *RunArgs {
	return &RunArgs{
		RootArgs: rootArgs,
	}
}

func (ra *RunArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&ra.ShowStderr, "show-stderr", false, "Pass the stderr of launched programs through")
	cmd.Flags().StringVar(&ra.FailurePolicy, "failure-policy", string(launch.PolicyNonZero),
		fmt.Sprintf("Exit codes treated as failures, one of: %s", launch.FailurePolicies))
	cmd.Flags().BoolVar(&ra.Confirm, "confirm", false, "Ask for confirmation before each program is launched")
	cmd.Flags().BoolVar(&ra.WriteConfig, "write-config", false, "Write the default configuration file and exit")
	cmd.Flags().BoolVar(&ra.ShowConfig, "show-config", false, "Print the active configuration and exit")

	policies := make([]cobra.Completion, 0, len(launch.FailurePolicies))
	for _, p := range launch.FailurePolicies {
		policies = append(policies, p.String())
	}

	must(cmd.RegisterFlagCompletionFunc("failure-policy",
		cobra.FixedCompletions(policies, cobra.ShellCompDirectiveNoFileComp),
	))
}

func NewRunCmd(ra *RunArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "run [profile]",
		Short:             "Default command, launches every program in a profile",
		Example:           cmdExamples,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: profileCompletion(ra.RootArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ra.Profile = defaultProfile
			if len(args) > 0 {
				ra.Profile = args[0]
			}

			return run(cmd, ra)
		},
	}
	ra.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func profileCompletion(ra *RootArgs) cobra.CompletionFunc {
	return func(_ *cobra.Command, args []string, _ string) ([]cobra.Completion, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		return tryGetProfileNames(ra.GetConfigPath()), cobra.ShellCompDirectiveNoFileComp
	}
}

func tryGetProfileNames(configPath string) []cobra.Completion {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil
	}

	names := cfg.ProfileNames()
	completions := make([]cobra.Completion, 0, len(names))
	for _, name := range names {
		p, _ := cfg.Profile(name)
		completions = append(completions, cobra.CompletionWithDesc(name, p.String()))
	}

	return completions
}

func run(cmd *cobra.Command, ra *RunArgs) error {
	configPath := ra.GetConfigPath()

	err := configs.WriteDefault(configPath, false)
	if err != nil {
		slog.Error("write default config", slog.Any("err", err))
	}
	if ra.WriteConfig {
		// Exit early after writing the default config.
		// Also, if there was an error, it should be fatal.
		return err
	}

	cfg, err := ra.LoadConfig(config.WithColor(isTerminal(os.Stderr)))
	if err != nil {
		return err
	}

	if ra.ShowConfig {
		slog.Info("active configuration", slog.String("path", configPath))

		yamlBytes, err := cfg.MarshalYAML()
		if err != nil {
			return fmt.Errorf("marshal config yaml: %w", err)
		}

		mustN(fmt.Fprint(cmd.OutOrStdout(), string(yamlBytes)))

		return nil
	}

	policy, err := launch.ParseFailurePolicy(ra.FailurePolicy)
	if err != nil {
		return err
	}

	shutdown, err := setupTracing(cmd.Context())
	if err != nil {
		return err
	}

	defer func() {
		err := shutdown(cmd.Context())
		if err != nil {
			slog.Warn("shutdown tracing", slog.Any("err", err))
		}
	}()

	debug := strings.EqualFold(ra.LogLevel, string(log.LevelDebug))
	opts := []launch.RunnerOpt{
		launch.WithStdout(cmd.OutOrStdout()),
		launch.WithStderr(cmd.ErrOrStderr()),
		launch.WithSuppressStderr(!ra.ShowStderr),
		launch.WithFailurePolicy(policy),
		launch.WithObserver(launch.NewPrinter(cmd.OutOrStdout(), launch.WithVerbose(debug))),
	}
	if ra.Confirm {
		opts = append(opts, launch.WithConfirm(confirmLaunch))
	}

	runner, err := launch.NewRunner(cfg, opts...)
	if err != nil {
		return fmt.Errorf("create runner: %w", err)
	}

	report, err := runner.Run(cmd.Context(), ra.Profile)
	if err != nil {
		return fmt.Errorf("run profile %q: %w", ra.Profile, err)
	}

	slog.Debug("profile finished", slog.String("summary", report.Summary()))

	return report.Err()
}

func isTerminal(f *os.File) bool {
	//nolint:gosec // G115: file descriptors fit in an int.
	return term.IsTerminal(int(f.Fd()))
}
