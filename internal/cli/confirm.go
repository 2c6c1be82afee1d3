package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/macropower/pstart/pkg/execs"
)

var ErrNotInteractive = errors.New("confirmation requires an interactive terminal")

func confirmLaunch(ctx context.Context, c execs.Command) (bool, error) {
	if !isTerminal(os.Stdin) {
		return false, ErrNotInteractive
	}

	ok := true

	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Launch %s?", c.Program)).
			Description(c.String()).
			Affirmative("Launch").
			Negative("Skip").
			Value(&ok),
	)).WithShowHelp(false)

	err := form.RunWithContext(ctx)
	if err != nil {
		return false, fmt.Errorf("confirm launch: %w", err)
	}

	return ok, nil
}
