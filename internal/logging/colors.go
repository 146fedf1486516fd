package logging

import (
	"github.com/fatih/color"
)

var (
	colorHeader = color.New(color.FgWhite)
	colorError  = color.New(color.FgRed, color.Bold)
	colorWarn   = color.New(color.FgRed)
	colorInfo   = color.New(color.Reset)
	colorDebug  = color.New(color.FgGreen)
	colorTrace  = color.New(color.FgYellow)
)

// color.NoColor is set when stdout is not a terminal or NO_COLOR is present.
func colorize(c *color.Color, s string) string {
	if color.NoColor {
		return s
	}
	return c.Sprint(s)
}
