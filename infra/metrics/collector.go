package metrics

import (
	"context"

	"github.com/kilianp07/svitlo/core/events"
	"github.com/kilianp07/svitlo/core/logger"
	coremetrics "github.com/kilianp07/svitlo/core/metrics"
	"github.com/kilianp07/svitlo/internal/eventbus"
)

// StartEventCollector feeds status and poll events from the buses into
// sink until ctx is canceled. Sink errors are logged and never stop the
// collector. Subscriptions are taken before returning. The returned
// channel is closed once every loop has exited.
func StartEventCollector(ctx context.Context, statuses *eventbus.TypedBus[events.StatusEvent],
	polls *eventbus.TypedBus[events.PollEvent], sink coremetrics.StatusSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if sink == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.Nop{}
	}
	pending := 0
	exited := make(chan struct{}, 2)
	if statuses != nil {
		pending++
		sub := statuses.Subscribe()
		go func() {
			defer func() { exited <- struct{}{} }()
			consume(ctx, statuses, sub, func(ev events.StatusEvent) {
				if err := sink.RecordStatus(ev); err != nil {
					log.Warnf("record status: %v", err)
				}
			})
		}()
	}
	if rec, ok := sink.(coremetrics.PollRecorder); ok && polls != nil {
		pending++
		sub := polls.Subscribe()
		go func() {
			defer func() { exited <- struct{}{} }()
			consume(ctx, polls, sub, func(ev events.PollEvent) {
				if err := rec.RecordPoll(ev); err != nil {
					log.Warnf("record poll: %v", err)
				}
			})
		}()
	}
	go func() {
		for i := 0; i < pending; i++ {
			<-exited
		}
		close(done)
	}()
	return done
}

func consume[T any](ctx context.Context, bus *eventbus.TypedBus[T], sub <-chan T, handle func(T)) {
	defer bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			handle(ev)
		}
	}
}
