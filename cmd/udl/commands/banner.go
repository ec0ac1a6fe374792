package commands

import (
	"github.com/pterm/pterm"

	"github.com/udlcore/udl/internal/version"
)

// printStartupBanner prints the server's startup summary, grounded on
// cmd/qntx/commands/banner.go's printStartupBanner but rendered with
// pterm rather than raw ANSI escapes, matching how server.go already
// uses pterm for its own status lines.
func printStartupBanner(addr string, pluginCount int) {
	info := version.Get()

	pterm.DefaultBigText.WithLetters(pterm.NewLettersFromStringWithStyle("udl", pterm.NewStyle(pterm.FgCyan))).Render()

	pterm.DefaultBox.WithTitle("udl").WithTitleTopCenter().Println(
		pterm.Sprintf("Version:  %s (%s)\nListening: %s\nPlugins:  %d configured", info.Version, info.CommitHash, addr, pluginCount),
	)

	pterm.Info.Println("Press Ctrl+C to stop")
}
