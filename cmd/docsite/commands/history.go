package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/history"
)

// HistoryCmd lists recent builds from the SQLite history.
type HistoryCmd struct {
	Limit int  `short:"n" default:"20" help:"Number of builds to show"`
	JSON  bool `help:"Print JSON instead of a table"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	p := cfg.HistoryPath()
	if _, err := os.Stat(p); err != nil {
		_, _ = fmt.Fprintf(g.Out, "No build history at %s\n", p)
		return nil
	}
	store, err := history.OpenSQLite(p)
	if err != nil {
		return errors.StorageError("open build history").WithCause(err).
			WithContext("path", p).Build()
	}
	defer func() { _ = store.Close() }()

	proj := history.NewProjection(store, max(h.Limit, 1))
	if err := proj.Rebuild(context.Background()); err != nil {
		return errors.StorageError("read build history").WithCause(err).
			WithContext("path", p).Build()
	}
	builds := proj.History()
	if active, ok := proj.Active(); ok {
		builds = append([]history.BuildSummary{active}, builds...)
	}
	if h.Limit > 0 && len(builds) > h.Limit {
		builds = builds[:h.Limit]
	}

	if h.JSON {
		enc := json.NewEncoder(g.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(builds)
	}
	tw := tabwriter.NewWriter(g.Out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUILD\tTRIGGER\tSTATUS\tSTARTED\tDURATION\tDOCS\tFAILED\tBROKEN")
	for _, b := range builds {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			shortID(b.BuildID), b.Trigger, b.Status, b.StartedAt.Local().Format(time.DateTime),
			b.Duration.Round(time.Millisecond), b.Documents, len(b.Failures), b.BrokenLinks)
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
