package commands

import (
	"fmt"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/linkverify"
)

// CheckCmd verifies the links of an existing output tree without building.
type CheckCmd struct {
	Dir string `arg:"" optional:"" help:"Directory to check, defaults to output.directory" type:"path"`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	dir := c.Dir
	if dir == "" {
		dir = cfg.OutputDir()
	}

	ctx, cancel := signalContext()
	defer cancel()
	res, err := linkverify.Verify(ctx, dir, linkverify.Options{
		BasePath: cfg.Site.BaseURL,
		Policy:   config.LinkPolicyThrow,
	})
	if res == nil {
		return err
	}
	for _, bl := range res.Broken {
		_, _ = fmt.Fprintf(g.Out, "broken link: %s\n", bl)
	}
	_, _ = fmt.Fprintf(g.Out, "%d pages, %d links, %d broken\n", res.Pages, res.Links, len(res.Broken))
	return err
}
