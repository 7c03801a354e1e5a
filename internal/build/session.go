package build

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/content"
	"git.home.luguber.info/inful/docsite/internal/docmodel"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/render"
)

// Session is a loaded content store with its frozen component registry. It
// renders single documents on demand without writing anything.
type Session struct {
	*content.Store
	cfg      *config.Config
	renderer *render.Renderer
}

// Open runs the load and register stages of a build.
func (b *Builder) Open(ctx context.Context, cfg *config.Config) (*Session, error) {
	if cfg == nil {
		return nil, errors.ConfigError("config required").Build()
	}
	r := &run{
		cfg:    cfg,
		report: newReport("", "", b.now()),
		log:    slog.Default(),
	}
	if err := b.load(ctx, r); err != nil {
		return nil, err
	}
	if err := b.registerComponents(ctx, r); err != nil {
		return nil, err
	}
	return &Session{
		Store:    r.store,
		cfg:      cfg,
		renderer: newRenderer(cfg, r.registry, r.store),
	}, nil
}

// Config is the configuration the session was opened with.
func (s *Session) Config() *config.Config { return s.cfg }

// Render renders one document with its navigation edge.
func (s *Session) Render(doc *docmodel.DocumentNode) (*render.RenderedPage, error) {
	nav, err := s.Navigation(doc.Slug)
	if err != nil {
		slog.Debug("No navigation for document", logfields.Slug(doc.Slug), logfields.Error(err))
		nav = docmodel.NavigationEdge{}
	}
	return s.renderer.Render(doc, nav)
}

// URL is the absolute URL a document is published at.
func (s *Session) URL(doc *docmodel.DocumentNode) string {
	return s.cfg.Permalink(doc.Slug)
}
