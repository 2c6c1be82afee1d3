package main

import (
	"context"
	"io"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"

	"github.com/macropower/pstart/internal/cli"
	"github.com/macropower/pstart/pkg/version"
)

func main() {
	err := Run(context.Background(), os.Stdout, os.Stderr, os.Args[1:]...)
	if err != nil {
		os.Exit(1)
	}
}

// Run executes the pstart command line with args.
func Run(ctx context.Context, stdout, stderr io.Writer, args ...string) error {
	cmd := cli.NewRootCmd()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	//nolint:wrapcheck // Errors are rendered by the error handler.
	return fang.Execute(
		ctx,
		cmd,
		fang.WithVersion(version.GetVersion()),
		fang.WithCommit(version.Revision),
		fang.WithErrorHandler(cli.ErrorHandler),
		fang.WithColorSchemeFunc(cli.ColorScheme),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	)
}
