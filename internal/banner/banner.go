// Package banner renders the start-up banner of the popscore CLI.
package banner

import (
	"fmt"
	"strings"

	"github.com/gookit/color"
)

const art = ` ┌─┐┌─┐┌─┐┌─┐┌─┐┌─┐┬─┐┌─┐
 ├─┘│ │├─┘└─┐│  │ │├┬┘├┤ 
 ┴  └─┘┴  └─┘└─┘└─┘┴└─└─┘`

// Banner returns the art followed by the version line. Colour is dropped
// when the terminal does not support it.
func Banner(version string) string {
	var b strings.Builder
	b.WriteString(color.New(color.FgCyan, color.OpBold).Render(art))
	b.WriteString("\n")
	fmt.Fprintf(&b, " %s %s\n\n",
		color.FgGray.Render("comment popularity regression"),
		color.FgGreen.Render(version))
	return b.String()
}
