package preview

import (
	"log/slog"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/docsite/internal/build"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// startSchedule queues a rebuild every preview.rebuild_every. It returns a
// nil scheduler when periodic rebuilds are disabled.
func (s *Server) startSchedule() (gocron.Scheduler, error) {
	if s.rebuildEvery <= 0 {
		return nil, nil
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.RuntimeError("create scheduler").WithCause(err).Build()
	}
	_, err = sched.NewJob(
		gocron.DurationJob(s.rebuildEvery),
		gocron.NewTask(s.Request, build.TriggerSchedule),
		gocron.WithName("periodic-rebuild"),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, errors.ConfigError("schedule periodic rebuild").WithCause(err).
			WithContext("every", s.rebuildEvery.String()).
			Build()
	}
	slog.Info("Periodic rebuild scheduled", "every", s.rebuildEvery.String())
	sched.Start()
	return sched, nil
}
