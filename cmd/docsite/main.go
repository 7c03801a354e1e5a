package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docsite/cmd/docsite/commands"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("docsite"),
		kong.Description("Build, preview and serve a static documentation site from Markdown."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	if err := parser.Run(commands.NewGlobal(os.Stdout), cli); err != nil {
		os.Exit(errors.NewCLIErrorAdapter(cli.Verbose, nil).Report(err))
	}
}
