package app

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/kilianp07/svitlo/core/events"
	"github.com/kilianp07/svitlo/core/interval"
	"github.com/kilianp07/svitlo/core/logger"
	"github.com/kilianp07/svitlo/core/precise"
	"github.com/kilianp07/svitlo/core/schedule"
	"github.com/kilianp07/svitlo/core/status"
	"github.com/kilianp07/svitlo/internal/eventbus"
)

// DefaultPollInterval applies when no interval is configured.
const DefaultPollInterval = 60 * time.Second

// Fetcher retrieves the tokenized schedule page.
type Fetcher interface {
	Fetch(ctx context.Context) (schedule.Document, error)
	URL() string
}

// CoordinatorConfig parameterizes a Coordinator.
type CoordinatorConfig struct {
	Region       string
	Queue        string
	Location     *time.Location
	PollInterval time.Duration
	Clock        precise.Clock
	Logger       logger.Logger
}

// snapshot is the immutable result of one successful poll.
type snapshot struct {
	timeline schedule.Timeline
	meta     status.Meta
	outages  []interval.Outage
}

// Coordinator polls the source, caches the parsed timeline and keeps the
// precise scheduler armed for the next transition.
type Coordinator struct {
	fetcher  Fetcher
	region   string
	queue    string
	loc      *time.Location
	interval time.Duration
	clock    precise.Clock
	log      logger.Logger

	statuses *eventbus.TypedBus[events.StatusEvent]
	polls    *eventbus.TypedBus[events.PollEvent]
	sched    *precise.Scheduler
	refresh  chan struct{}
	current  atomic.Pointer[snapshot]
}

// NewCoordinator wires a coordinator publishing on the given buses. A nil
// polls bus disables poll events.
func NewCoordinator(cfg CoordinatorConfig, f Fetcher, statuses *eventbus.TypedBus[events.StatusEvent], polls *eventbus.TypedBus[events.PollEvent]) *Coordinator {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = precise.SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop{}
	}
	if statuses == nil {
		statuses = eventbus.NewTyped[events.StatusEvent]()
	}
	c := &Coordinator{
		fetcher:  f,
		region:   cfg.Region,
		queue:    cfg.Queue,
		loc:      cfg.Location,
		interval: cfg.PollInterval,
		clock:    cfg.Clock,
		log:      cfg.Logger,
		statuses: statuses,
		polls:    polls,
		refresh:  make(chan struct{}, 1),
	}
	c.sched = precise.New(cfg.Clock, c.onPreciseFire, cfg.Logger)
	return c
}

// Scheduler exposes the precise scheduler for inspection.
func (c *Coordinator) Scheduler() *precise.Scheduler { return c.sched }

// Location is the zone schedules are interpreted in.
func (c *Coordinator) Location() *time.Location { return c.loc }

// Title names the queue in calendar events.
func (c *Coordinator) Title() string {
	return fmt.Sprintf("Svitlo %s %s", c.region, c.queue)
}

// Poll fetches and parses the schedule, replaces the cached snapshot,
// publishes the resulting status and re-arms the precise scheduler. On
// error the cache and scheduler are left as they were.
func (c *Coordinator) Poll(ctx context.Context) (status.Status, error) {
	started := c.clock.Now()
	doc, err := c.fetcher.Fetch(ctx)
	if err != nil {
		c.publishPoll(started, nil, err)
		return status.Status{}, err
	}
	tl, err := schedule.ParseSchedule(doc.Tables, c.loc)
	if err != nil {
		err = fmt.Errorf("parse schedule: %w", err)
		c.publishPoll(started, nil, err)
		return status.Status{}, err
	}

	now := c.clock.Now()
	snap := &snapshot{
		timeline: tl,
		meta: status.Meta{
			Region:       c.region,
			Queue:        c.queue,
			PolledAt:     now,
			SourceURL:    c.fetcher.URL(),
			LastModified: doc.LastModified,
		},
		outages: interval.BuildTimeline(tl),
	}
	c.current.Store(snap)

	st := status.Build(tl, now, snap.meta)
	c.statuses.Publish(events.StatusEvent{Status: st, Trigger: events.TriggerPoll, Time: now})
	c.publishPoll(started, &tl, nil)
	c.reschedule(st)
	return st, nil
}

func (c *Coordinator) reschedule(st status.Status) {
	if st.NextChangeAt == nil {
		c.sched.Cancel()
		c.log.Debugf("schedule for %s/%s is uniform, no precise refresh", c.region, c.queue)
		return
	}
	if at, ok := c.sched.Reschedule(st.Date, *st.NextChangeAt, c.loc); ok {
		c.log.Debugf("scheduled precise refresh for %s/%s at %s", c.region, c.queue, at.Format(time.RFC3339))
	}
}

func (c *Coordinator) publishPoll(started time.Time, tl *schedule.Timeline, err error) {
	if err != nil {
		c.log.Warnf("poll %s/%s failed: %v", c.region, c.queue, err)
	}
	if c.polls == nil {
		return
	}
	ev := events.PollEvent{
		Region:   c.region,
		Queue:    c.queue,
		Success:  err == nil,
		Err:      err,
		Duration: c.clock.Now().Sub(started),
		Time:     started,
	}
	if tl != nil {
		ev.OutagesToday = len(interval.Build(tl.Today))
		if tl.Tomorrow != nil {
			ev.OutagesTomorrow = len(interval.Build(*tl.Tomorrow))
		}
	}
	c.polls.Publish(ev)
}

// onPreciseFire runs on the timer goroutine. It republishes from the cache
// with the previous poll metadata and asks the loop for a fresh poll.
func (c *Coordinator) onPreciseFire(firedAt time.Time) {
	if snap := c.current.Load(); snap != nil {
		st := status.Build(snap.timeline, firedAt, snap.meta)
		c.statuses.Publish(events.StatusEvent{Status: st, Trigger: events.TriggerPrecise, Time: firedAt})
		c.log.Infof("precise refresh for %s/%s: now %s", c.region, c.queue, st.NowStatus)
	}
	c.RequestRefresh()
}

// RequestRefresh asks Run for an immediate poll. It never blocks; requests
// made while one is pending are merged.
func (c *Coordinator) RequestRefresh() {
	select {
	case c.refresh <- struct{}{}:
	default:
	}
}

// Run polls immediately, then on every tick and refresh request until ctx
// is canceled. The pending precise timer is canceled on return.
func (c *Coordinator) Run(ctx context.Context) error {
	defer c.sched.Cancel()
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.pollLogged(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.pollLogged(ctx)
		case <-c.refresh:
			c.pollLogged(ctx)
		}
	}
}

func (c *Coordinator) pollLogged(ctx context.Context) {
	st, err := c.Poll(ctx)
	if err != nil {
		return
	}
	c.log.Infof("polled %s/%s: now %s (slot %d)", c.region, c.queue, st.NowStatus, st.NowHalfHourIndex)
}

// Latest builds the status at the current time from the cache.
func (c *Coordinator) Latest() (status.Status, bool) {
	snap := c.current.Load()
	if snap == nil {
		return status.Status{}, false
	}
	return status.Build(snap.timeline, c.clock.Now(), snap.meta), true
}

// Timeline returns the cached timeline.
func (c *Coordinator) Timeline() (schedule.Timeline, bool) {
	snap := c.current.Load()
	if snap == nil {
		return schedule.Timeline{}, false
	}
	return snap.timeline, true
}

// Outages returns the cached outage windows of today and tomorrow.
func (c *Coordinator) Outages() []interval.Outage {
	snap := c.current.Load()
	if snap == nil {
		return nil
	}
	return slices.Clone(snap.outages)
}

// Now reads the coordinator clock.
func (c *Coordinator) Now() time.Time { return c.clock.Now() }
