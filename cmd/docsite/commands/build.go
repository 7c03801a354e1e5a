package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/docsite/internal/build"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output      string `short:"o" help:"Output directory, overriding output.directory" type:"path"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics of the build to this file (textfile collector format)" type:"path"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if b.Output != "" {
		cfg.Output.Directory = b.Output
	}

	ctx, cancel := signalContext()
	defer cancel()
	svc, err := openServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	report, runErr := svc.builder.Run(ctx, build.Request{Config: cfg, Trigger: build.TriggerCLI})
	if report != nil {
		printReport(g, report, filepath.Join(cfg.OutputDir(), cfg.Output.ReportFile))
	}

	if b.MetricsFile != "" {
		if svc.registry == nil {
			return errors.ConfigError("--metrics-file needs monitoring.metrics.enabled").Build()
		}
		if err := metrics.WriteTextfile(svc.registry, b.MetricsFile); err != nil {
			return errors.FileSystemError("failed to write metrics file").WithCause(err).
				WithContext("path", b.MetricsFile).Build()
		}
	}
	return runErr
}

// printReport lists every per-document error and broken link, then the summary.
func printReport(g *Global, r *build.Report, reportPath string) {
	for _, e := range r.Errors {
		_, _ = fmt.Fprintf(g.Out, "error: %s\n", e)
	}
	for _, bl := range r.BrokenLinks {
		_, _ = fmt.Fprintf(g.Out, "broken link: %s\n", bl)
	}
	for _, w := range r.Warnings {
		_, _ = fmt.Fprintf(g.Out, "warning: %s\n", w)
	}
	_, _ = fmt.Fprintf(g.Out, "%s: %d documents, %d rendered, %d failed, %d written, %d unchanged, %d removed (%s)\n",
		r.Outcome, r.Documents, r.Rendered, r.Failed(), r.Written, r.Unchanged, r.Removed, r.Duration().Round(1e6))
	if r.Outcome != build.OutcomeCanceled {
		_, _ = fmt.Fprintf(g.Out, "report: %s\n", reportPath)
	}
}
