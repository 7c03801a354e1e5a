package commands

import (
	"path/filepath"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/preview"
)

// ServeCmd builds, serves the output directory and rebuilds on changes.
type ServeCmd struct {
	Host string `help:"Listen host, overriding preview.host"`
	Port int    `short:"p" help:"Listen port, overriding preview.port"`
}

func (s *ServeCmd) apply(cfg *config.Config) {
	if s.Host != "" {
		cfg.Preview.Host = s.Host
	}
	if s.Port > 0 {
		cfg.Preview.Port = s.Port
	}
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	s.apply(cfg)

	ctx, cancel := signalContext()
	defer cancel()
	svc, err := openServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	opts := preview.Options{
		ConfigPath: configPath(root.Config),
		Reload: func() (*config.Config, error) {
			next, err := config.Load(root.Config)
			if err != nil {
				return nil, err
			}
			s.apply(next)
			return next, nil
		},
		History: svc.projection,
	}
	if svc.registry != nil {
		opts.Metrics = metrics.HTTPHandler(svc.registry)
	}
	srv, err := preview.New(cfg, svc.builder, opts)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

func configPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
