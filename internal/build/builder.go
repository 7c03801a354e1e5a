package build

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docsite/internal/components"
	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/content"
	"git.home.luguber.info/inful/docsite/internal/docmodel"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/history"
	"git.home.luguber.info/inful/docsite/internal/linkverify"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/notify"
	"git.home.luguber.info/inful/docsite/internal/render"
	"git.home.luguber.info/inful/docsite/internal/site"
	"git.home.luguber.info/inful/docsite/internal/version"
)

// Trigger values recorded with a build.
const (
	TriggerCLI      = "cli"
	TriggerWatch    = "watch"
	TriggerSchedule = "schedule"
)

// Service runs builds. The CLI and the preview server both go through it.
type Service interface {
	Run(ctx context.Context, req Request) (*Report, error)
}

// Request is the input of one build.
type Request struct {
	Config *config.Config
	// Trigger says what started the build; TriggerCLI when empty.
	Trigger string
}

// Builder is the standard Service.
type Builder struct {
	recorder  metrics.Recorder
	history   *history.Recorder
	publisher notify.Publisher
	register  []func(*components.Registry) error
	now       func() time.Time
}

// NewBuilder returns a Builder without metrics, history or notifications.
func NewBuilder() *Builder {
	return &Builder{
		recorder:  metrics.NoopRecorder{},
		publisher: notify.NoopPublisher{},
		now:       time.Now,
	}
}

// WithRecorder sets the metrics recorder.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	if r != nil {
		b.recorder = r
	}
	return b
}

// WithHistory records every build in h.
func (b *Builder) WithHistory(h *history.Recorder) *Builder {
	b.history = h
	return b
}

// WithPublisher publishes build results through p.
func (b *Builder) WithPublisher(p notify.Publisher) *Builder {
	if p != nil {
		b.publisher = p
	}
	return b
}

// WithComponents adds a registration hook that runs after the content is
// loaded and before rendering starts.
func (b *Builder) WithComponents(fn func(*components.Registry) error) *Builder {
	b.register = append(b.register, fn)
	return b
}

// WithClock replaces time.Now, e.g. to pin the footer year in tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// run carries the state of one build between stages.
type run struct {
	cfg      *config.Config
	report   *Report
	workers  int
	log      *slog.Logger
	store    *content.Store
	registry *components.Registry
	pages    []*render.RenderedPage
}

// Run executes the pipeline and returns the report of every build that got
// started. The error is the condition that failed the build, classified for
// exit codes.
func (b *Builder) Run(ctx context.Context, req Request) (*Report, error) {
	if req.Config == nil {
		return nil, errors.ConfigError("config required").Build()
	}
	if req.Trigger == "" {
		req.Trigger = TriggerCLI
	}
	report := newReport(uuid.NewString(), req.Trigger, b.now())
	r := &run{
		cfg:     req.Config,
		report:  report,
		workers: b.workers(req.Config),
		log:     slog.With(logfields.BuildID(report.BuildID)),
	}

	r.log.Info("Build started", "trigger", req.Trigger, logfields.Path(r.cfg.ContentDir()), slog.Int("workers", r.workers))
	b.history.BuildStarted(ctx, report.BuildID, history.BuildStartedMeta{
		Trigger:    req.Trigger,
		ContentDir: r.cfg.ContentDir(),
		Workers:    r.workers,
		Version:    version.Version,
	})

	err := b.stages(ctx, r)
	return b.finish(ctx, r, err)
}

func (b *Builder) workers(cfg *config.Config) int {
	if cfg.Build.Workers > 0 {
		return cfg.Build.Workers
	}
	return runtime.NumCPU()
}

type stage struct {
	name string
	fn   func(context.Context, *run) error
}

func (b *Builder) stages(ctx context.Context, r *run) error {
	for _, st := range []stage{
		{StageLoad, b.load},
		{StageRegister, b.registerComponents},
		{StageRender, b.render},
		{StageWrite, b.write},
		{StageVerify, b.verify},
	} {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		err := st.fn(ctx, r)
		d := time.Since(start)
		r.report.StageDurations[st.name] = d
		b.recorder.ObserveStageDuration(st.name, d)
		r.log.Debug("Stage finished", logfields.Stage(st.name), logfields.DurationMS(float64(d.Microseconds())/1000))
		switch {
		case err == nil:
			b.recorder.IncStageResult(st.name, metrics.ResultSuccess)
		case stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded):
			b.recorder.IncStageResult(st.name, metrics.ResultCanceled)
			return err
		case stderrors.Is(err, ErrRender):
			// Pages that rendered are still written.
			b.recorder.IncStageResult(st.name, metrics.ResultWarning)
			r.report.Err = err
		default:
			b.recorder.IncStageResult(st.name, metrics.ResultFatal)
			return err
		}
	}
	return r.report.Err
}

func (b *Builder) load(ctx context.Context, r *run) error {
	store, err := content.Load(ctx, r.cfg.ContentDir(), content.Options{
		IncludeDrafts: r.cfg.Content.IncludeDrafts,
		IsolateGroups: r.cfg.Content.IsolateGroups,
		LastUpdate:    r.cfg.Content.LastUpdateInfo,
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		eb := errors.ContentError("failed to load content").WithCause(stderrors.Join(ErrLoad, err))
		var le *content.LoadError
		if stderrors.As(err, &le) && le.Path != "" {
			eb = eb.WithContext("path", le.Path)
		}
		return eb.Build()
	}
	r.store = store
	r.report.Documents = len(store.Docs())
	r.report.Partials = len(store.Partials())
	b.recorder.SetDocumentCount(r.report.Documents)
	return nil
}

// registerComponents fills a fresh registry and freezes it. Partials are
// resolved lazily at render time, so hooks may add components that pages
// loaded earlier refer to.
func (b *Builder) registerComponents(_ context.Context, r *run) error {
	reg := components.NewRegistry()
	if err := components.RegisterPartials(reg, r.store); err != nil {
		return errors.ComponentError("failed to register partials").WithCause(err).Build()
	}
	if err := components.RegisterBuiltins(reg, r.store); err != nil {
		return errors.ComponentError("failed to register built-in components").WithCause(err).Build()
	}
	for _, fn := range b.register {
		if err := fn(reg); err != nil {
			return errors.ComponentError("failed to register components").WithCause(err).Build()
		}
	}
	reg.Freeze()
	r.registry = reg
	return nil
}

type renderResult struct {
	page *render.RenderedPage
	err  error
}

// render fans the documents out to workers. Each worker checks for
// cancellation before starting a document.
func (b *Builder) render(ctx context.Context, r *run) error {
	renderer := newRenderer(r.cfg, r.registry, r.store)

	docs := r.store.Docs()
	results := make([]renderResult, len(docs))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for range min(r.workers, max(len(docs), 1)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = b.renderOne(ctx, renderer, r.store, docs[i])
			}
		}()
	}
	for i := range docs {
		if ctx.Err() != nil {
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, res := range results {
		if res.err == nil {
			r.pages = append(r.pages, res.page)
			continue
		}
		de := documentError(res.err)
		r.report.Errors = append(r.report.Errors, de)
		r.log.Error("Document failed to render", logfields.DocID(de.DocID), logfields.Location(de.Location), logfields.Error(res.err))
		b.history.DocumentFailed(ctx, r.report.BuildID, history.DocumentFailure{DocID: de.DocID, Location: de.Location, Error: de.Message})
	}
	r.report.Rendered = len(r.pages)
	if n := len(r.report.Errors); n > 0 {
		return errors.RenderError(fmt.Sprintf("%d of %d documents failed to render", n, len(docs))).WithCause(ErrRender).
			WithContext("first", r.report.Errors[0].String()).
			Build()
	}
	return nil
}

func newRenderer(cfg *config.Config, reg *components.Registry, store *content.Store) *render.Renderer {
	return render.New(reg, render.Options{
		MaxDepth:              cfg.Build.MaxDepth,
		Vars:                  cfg.Vars(),
		Links:                 render.SourceLinkResolver{Docs: store, URLFor: cfg.DocURL},
		OnBrokenMarkdownLinks: render.LinkPolicy(cfg.Content.OnBrokenMarkdownLinks),
	})
}

func (b *Builder) renderOne(ctx context.Context, renderer *render.Renderer, store *content.Store, doc *docmodel.DocumentNode) renderResult {
	if err := ctx.Err(); err != nil {
		return renderResult{err: err}
	}
	nav, err := store.Navigation(doc.Slug)
	if err != nil {
		slog.Debug("No navigation for document", logfields.Slug(doc.Slug), logfields.Error(err))
		nav = docmodel.NavigationEdge{}
	}
	start := time.Now()
	page, err := renderer.Render(doc, nav)
	b.recorder.ObserveRenderDuration(time.Since(start))
	if err != nil {
		b.recorder.IncDocumentResult(metrics.ResultFatal)
		return renderResult{err: err}
	}
	b.recorder.IncDocumentResult(metrics.ResultSuccess)
	return renderResult{page: page}
}

func documentError(err error) DocumentError {
	var re *render.RenderError
	if stderrors.As(err, &re) {
		return DocumentError{DocID: re.DocID, Location: re.Location, Message: re.Err.Error()}
	}
	return DocumentError{Message: err.Error()}
}

func (b *Builder) write(_ context.Context, r *run) error {
	s, err := site.New(r.cfg, r.store, site.Options{Now: b.now})
	if err != nil {
		return errors.InternalError("failed to prepare layout").WithCause(err).Build()
	}
	w := site.NewWriter(r.cfg.OutputDir())
	fail := func(err error, what string) error {
		return errors.FileSystemError("failed to write "+what).WithCause(stderrors.Join(ErrWrite, err)).
			WithContext("dir", w.Root()).
			Build()
	}

	rootTaken := false
	for _, p := range r.pages {
		rel := s.OutputPath(p.Doc.Slug)
		rootTaken = rootTaken || rel == "index.html"
		html, err := s.Page(p)
		if err != nil {
			return fail(err, rel)
		}
		if err := w.Write(rel, html); err != nil {
			return fail(err, rel)
		}
	}

	files := map[string]func() ([]byte, error){
		"404.html":          s.NotFound,
		site.StylesheetPath: func() ([]byte, error) { return site.Stylesheet(), nil },
	}
	if !rootTaken {
		files["index.html"] = s.Home
	}
	if r.cfg.Output.Sitemap {
		files["sitemap.xml"] = func() ([]byte, error) { return s.Sitemap(r.store.Docs()) }
	}
	if r.cfg.Output.LLMsTxt {
		files["llms.txt"] = func() ([]byte, error) { return s.LLMsIndex(), nil }
		files["llms-full.txt"] = func() ([]byte, error) { return s.LLMsFull(r.pages) }
	}
	for rel, gen := range files {
		data, err := gen()
		if err != nil {
			return fail(err, rel)
		}
		if data == nil {
			continue
		}
		if err := w.Write(rel, data); err != nil {
			return fail(err, rel)
		}
	}
	if r.cfg.Site.URL == "" && r.cfg.Output.Sitemap {
		r.report.Warnings = append(r.report.Warnings, "sitemap skipped: site.url is not set")
	}

	if static := r.cfg.StaticDir(); static != "" {
		switch info, err := os.Stat(static); {
		case err == nil && info.IsDir():
			n, err := w.CopyDir(static)
			if err != nil {
				return fail(err, "static files")
			}
			r.report.StaticFiles = n
		default:
			r.report.Warnings = append(r.report.Warnings, "static directory not found: "+r.cfg.Output.StaticDir)
		}
	}

	if r.cfg.Output.Clean {
		removed, err := w.Prune(r.cfg.Output.ReportFile)
		if err != nil {
			return fail(err, "pruned output")
		}
		r.report.Removed = len(removed)
	}
	r.report.Written, r.report.Unchanged = w.Stats()
	return nil
}

func (b *Builder) verify(ctx context.Context, r *run) error {
	if len(r.report.Errors) > 0 {
		r.report.Warnings = append(r.report.Warnings, "link verification skipped: documents failed to render")
		return nil
	}
	res, err := linkverify.Verify(ctx, r.cfg.OutputDir(), linkverify.Options{
		BasePath: r.cfg.Site.BaseURL,
		Policy:   r.cfg.Build.OnBrokenLinks,
	})
	if res != nil {
		r.report.BrokenLinks = res.Broken
		if n := len(res.Broken); n > 0 {
			b.recorder.IncBrokenLinks("internal", n)
		}
		for _, bl := range res.Broken {
			event := notify.BrokenLinkEvent{BuildID: r.report.BuildID, Page: bl.Page, Target: bl.Target, Reason: bl.Reason, Time: b.now()}
			if perr := b.publisher.PublishBrokenLink(ctx, event); perr != nil {
				slog.Warn("Broken link notification failed", logfields.Error(perr))
				break
			}
		}
	}
	return err
}

func (b *Builder) finish(ctx context.Context, r *run, err error) (*Report, error) {
	log := r.log
	rep := r.report
	canceled := stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
	if canceled {
		err = errors.WrapError(err, errors.CategoryCanceled, "build canceled").Build()
	}
	rep.Err = err
	rep.End = b.now()
	rep.deriveOutcome(canceled)

	if !canceled {
		if perr := rep.Persist(r.cfg.OutputDir(), r.cfg.Output.ReportFile); perr != nil {
			log.Warn("Failed to persist build report", logfields.Error(perr))
		}
	}

	b.recorder.ObserveBuildDuration(rep.Duration())
	b.recorder.IncBuildOutcome(string(rep.Outcome))

	completed := history.BuildCompletedMeta{
		Outcome:     string(rep.Outcome),
		Documents:   rep.Documents,
		Rendered:    rep.Rendered,
		Failed:      rep.Failed(),
		Written:     rep.Written,
		BrokenLinks: len(rep.BrokenLinks),
		DurationMS:  rep.Duration().Milliseconds(),
	}
	if err != nil {
		completed.Error = err.Error()
	}
	b.history.BuildCompleted(ctx, rep.BuildID, completed)

	event := notify.BuildEvent{
		BuildID:     rep.BuildID,
		Site:        r.cfg.Site.Title,
		Outcome:     string(rep.Outcome),
		Documents:   rep.Documents,
		Rendered:    rep.Rendered,
		Failed:      rep.Failed(),
		BrokenLinks: len(rep.BrokenLinks),
		DurationMS:  rep.Duration().Milliseconds(),
		Timestamp:   rep.End,
	}
	for _, e := range rep.Errors {
		event.Errors = append(event.Errors, notify.DocumentError{DocID: e.DocID, Location: e.Location, Message: e.Message})
	}
	if perr := b.publisher.PublishBuild(context.WithoutCancel(ctx), event); perr != nil {
		log.Warn("Build notification failed", logfields.Error(perr))
	}

	attrs := []any{logfields.Outcome(string(rep.Outcome)), logfields.Count(rep.Rendered), slog.Int("failed", rep.Failed()),
		slog.Int("written", rep.Written), logfields.DurationMS(float64(rep.Duration().Microseconds()) / 1000)}
	if err != nil {
		log.Error("Build finished", append(attrs, logfields.Error(err))...)
	} else {
		log.Info("Build finished", attrs...)
	}
	return rep, err
}
