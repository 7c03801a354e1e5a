package commands

import (
	"git.home.luguber.info/inful/docsite/internal/build"
	"git.home.luguber.info/inful/docsite/internal/mcpserver"
)

// MCPCmd serves the documents over the Model Context Protocol.
type MCPCmd struct {
	HTTP string `name:"http" help:"Serve streamable HTTP on this address (e.g. ':8080') instead of stdio"`
}

func (m *MCPCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	session, err := build.NewBuilder().Open(ctx, cfg)
	if err != nil {
		return err
	}
	s := mcpserver.NewServer(session, mcpserver.Options{Name: cfg.Site.Title, Domain: cfg.Site.URL})
	return mcpserver.Serve(ctx, s, m.HTTP)
}
