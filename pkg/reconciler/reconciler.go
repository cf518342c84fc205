package reconciler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/openleague/matchday/pkg/log"
	"github.com/openleague/matchday/pkg/metrics"
	"github.com/openleague/matchday/pkg/standings"
	"github.com/openleague/matchday/pkg/storage"
)

// Reconciler periodically re-derives standings from persisted match
// results. Event-driven updates normally keep the tables current; the
// sweep repairs any drift left by events lost on the broadcast path.
// The recompute is idempotent, so overlapping with event-driven updates
// is harmless.
type Reconciler struct {
	store    storage.Store
	rules    standings.Rules
	interval time.Duration
	stopCh   chan struct{}
	logger   zerolog.Logger
}

// NewReconciler creates a new reconciler sweeping at the given interval
func NewReconciler(store storage.Store, rules standings.Rules, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Reconciler{
		store:    store,
		rules:    rules,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   log.WithComponent("reconciler"),
	}
}

// Start begins the reconciliation loop
func (r *Reconciler) Start() {
	go r.run()
}

// Stop stops the reconciler
func (r *Reconciler) Stop() {
	close(r.stopCh)
}

func (r *Reconciler) run() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.reconcile(); err != nil {
				r.logger.Error().Err(err).Msg("reconcile cycle failed")
			}
		case <-r.stopCh:
			return
		}
	}
}

// reconcile performs one full sweep over the known tournaments
func (r *Reconciler) reconcile() error {
	tournaments, err := r.store.ListTournaments()
	if err != nil {
		return err
	}

	for _, t := range tournaments {
		timer := metrics.NewTimer()
		if err := r.store.RecomputeStandings(t.ID, r.rules); err != nil {
			r.logger.Error().
				Int64("tournament_id", t.ID).
				Err(err).
				Msg("failed to recompute standings")
			continue
		}
		timer.ObserveDuration(metrics.StandingsRecomputeDuration)
		metrics.StandingsRecomputesTotal.Inc()
	}

	r.logger.Debug().Int("tournaments", len(tournaments)).Msg("reconcile cycle complete")
	return nil
}
