package cli

import (
	"image/color"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/exp/charmtone"
)

// ColorScheme returns the colors used for help and error output.
func ColorScheme(c lipgloss.LightDarkFunc) fang.ColorScheme {
	accent := c(charmtone.Malibu, charmtone.Guac)
	text := c(charmtone.Charcoal, charmtone.Ash)

	return fang.ColorScheme{
		Base:           text,
		Title:          charmtone.Guac,
		Codeblock:      c(charmtone.Salt, lipgloss.Color("#2F2E36")),
		Program:        accent,
		Command:        accent,
		DimmedArgument: charmtone.Squid,
		Comment:        charmtone.Squid,
		Flag:           accent,
		Argument:       text,
		Description:    text,
		FlagDefault:    charmtone.Squid,
		QuotedString:   charmtone.Coral,
		ErrorHeader: [2]color.Color{
			charmtone.Butter,
			charmtone.Cherry,
		},
	}
}
