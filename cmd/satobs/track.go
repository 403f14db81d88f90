package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/satobs/core"
	"github.com/signalsfoundry/satobs/internal/logging"
	"github.com/signalsfoundry/satobs/internal/observability"
	"github.com/signalsfoundry/satobs/internal/store"
	"github.com/signalsfoundry/satobs/kb"
	"github.com/signalsfoundry/satobs/model"
	"github.com/signalsfoundry/satobs/timectrl"
)

// tracker keeps one Session per catalog entry and observes all of them on
// every clock tick.
type tracker struct {
	svc     *core.ObservationService
	log     logging.Logger
	metrics *observability.TrackerCollector
	site    observer

	outMu sync.Mutex
	enc   *json.Encoder

	mu       sync.Mutex
	sessions map[int]*core.Session
}

func newTracker(svc *core.ObservationService, log logging.Logger, metrics *observability.TrackerCollector, out io.Writer) *tracker {
	return &tracker{
		svc:      svc,
		log:      log,
		metrics:  metrics,
		enc:      json.NewEncoder(out),
		sessions: make(map[int]*core.Session),
	}
}

// handle keeps the session set in step with the catalog.
func (t *tracker) handle(ctx context.Context, ev kb.Event) {
	switch ev.Type {
	case kb.EventAdded, kb.EventReplaced:
		sess, err := t.svc.NewSession(ctx, ev.ElementSet)
		t.mu.Lock()
		if err != nil {
			// The stale session, if any, is dropped with the new element set.
			delete(t.sessions, ev.ElementSet.CatalogNumber)
		} else {
			t.sessions[ev.ElementSet.CatalogNumber] = sess
		}
		n := len(t.sessions)
		t.mu.Unlock()
		t.metrics.SetActiveSessions(n)
	case kb.EventRemoved:
		t.mu.Lock()
		delete(t.sessions, ev.Previous.CatalogNumber)
		n := len(t.sessions)
		t.mu.Unlock()
		t.metrics.SetActiveSessions(n)
	}
}

func (t *tracker) snapshot() []*core.Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*core.Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ElementSet().CatalogNumber < out[j].ElementSet().CatalogNumber
	})
	return out
}

// tick observes every tracked satellite at simTime.
func (t *tracker) tick(ctx context.Context, simTime, wallTime time.Time) {
	start := time.Now()
	for _, sess := range t.snapshot() {
		obs, err := sess.ObserveAt(ctx, simTime)
		if err != nil {
			continue
		}
		out := observationToJSON(sess.ElementSet(), obs)
		if out.Look, err = t.site.look(obs); err != nil {
			t.log.Warn(ctx, "look angles failed", logging.Satellite(sess.ElementSet().CatalogNumber), logging.Err(err))
		}
		t.outMu.Lock()
		err = t.enc.Encode(out)
		t.outMu.Unlock()
		if err != nil {
			t.log.Error(ctx, "write observation", logging.Err(err))
		}
	}
	t.metrics.ObserveTick(time.Since(start), simTime, wallTime)
}

type trackOptions struct {
	tick        time.Duration
	duration    time.Duration
	start       string
	accelerated bool
	metricsAddr string
	fromDB      bool
}

func newTrackCmd(a *app) *cobra.Command {
	var (
		opts trackOptions
		site observer
	)
	cmd := &cobra.Command{
		Use:   "track [FILE...]",
		Short: "Observe every satellite in the catalog on each clock tick",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !opts.fromDB {
				return errors.New("track needs element set files or --from-db")
			}
			if !cmd.Flags().Changed("tick") {
				opts.tick = a.cfg.Tracker.Tick
			}
			if !cmd.Flags().Changed("metrics-addr") {
				opts.metricsAddr = a.cfg.Metrics.Addr
			}
			mode, _ := timectrl.ParseMode(a.cfg.Tracker.Mode)
			if cmd.Flags().Changed("accelerated") {
				mode = timectrl.RealTime
				if opts.accelerated {
					mode = timectrl.Accelerated
				}
			}
			if mode == timectrl.Accelerated && opts.duration <= 0 {
				return errors.New("accelerated tracking needs a positive --duration")
			}
			site.set = cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon")
			return a.track(cmd.Context(), cmd.OutOrStdout(), args, opts, mode, site)
		},
	}
	cmd.Flags().DurationVar(&opts.tick, "tick", time.Second, "tracking time step (default from config)")
	cmd.Flags().DurationVar(&opts.duration, "duration", 0, "tracking time to cover; 0 runs until interrupted")
	cmd.Flags().StringVar(&opts.start, "start", "", "tracking start time, RFC 3339 (default now)")
	cmd.Flags().BoolVar(&opts.accelerated, "accelerated", false, "step as fast as possible instead of in real time")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (default from config)")
	cmd.Flags().BoolVar(&opts.fromDB, "from-db", false, "also load the latest element sets from the catalog database")
	cmd.Flags().Float64Var(&site.lat, "lat", 0, "observer geodetic latitude in degrees, enables look angles")
	cmd.Flags().Float64Var(&site.lon, "lon", 0, "observer longitude in degrees east, enables look angles")
	return cmd
}

func (a *app) track(ctx context.Context, out io.Writer, files []string, opts trackOptions, mode timectrl.Mode, site observer) error {
	start := time.Now().UTC()
	if opts.start != "" {
		parsed, err := time.Parse(time.RFC3339Nano, opts.start)
		if err != nil {
			return fmt.Errorf("--start: %w", err)
		}
		start = parsed.UTC()
	}

	sets, err := a.loadTrackingSets(ctx, files, opts.fromDB)
	if err != nil {
		return err
	}

	svc, err := a.service()
	if err != nil {
		return err
	}
	trackerMetrics, err := observability.NewTrackerCollector(a.registry)
	if err != nil {
		return err
	}
	if srv := serveMetrics(opts.metricsAddr, a.registry, a.log); srv != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	tr := newTracker(svc, a.log, trackerMetrics, out)
	tr.site = site

	catalog := kb.NewCatalog()
	catalog.SetMetricsRecorder(a.metrics)
	unsubscribe := catalog.Subscribe(func(ev kb.Event) { tr.handle(ctx, ev) })
	defer unsubscribe()
	for _, es := range sets {
		catalog.Upsert(es)
	}
	a.log.Info(ctx, "tracking started",
		logging.Int("satellites", catalog.Len()),
		logging.String("mode", mode.String()),
		logging.Duration("tick", opts.tick),
		logging.Time("start", start),
	)

	clock := timectrl.NewTimeController(start, opts.tick, mode)
	clock.AddListener(func(simTime, wallTime time.Time) { tr.tick(ctx, simTime, wallTime) })
	<-clock.Start(ctx, opts.duration)

	a.log.Info(ctx, "tracking stopped", logging.Time("sim_time", clock.Now()))
	return nil
}

// loadTrackingSets merges element sets from files and, optionally, the
// catalog database.
func (a *app) loadTrackingSets(ctx context.Context, files []string, fromDB bool) ([]*model.ElementSet, error) {
	var sets []*model.ElementSet
	if len(files) > 0 {
		fromFiles, err := a.readElementSets(ctx, files)
		if err != nil {
			return nil, err
		}
		sets = append(sets, fromFiles...)
	}
	if fromDB {
		db, err := store.Open(a.cfg.Catalog.DB)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		latest, err := db.Latest(ctx)
		for _, e := range unwrapJoined(err) {
			a.log.Warn(ctx, "skipping stored element set", logging.String("db", db.Path()), logging.Err(e))
		}
		sets = append(sets, latest...)
	}
	if len(sets) == 0 {
		return nil, errors.New("no element sets to track")
	}
	return sets, nil
}
