package mqtt

import (
	"context"

	"github.com/kilianp07/svitlo/core/events"
	"github.com/kilianp07/svitlo/internal/eventbus"
)

// Run publishes every status event from bus until ctx is canceled, then
// closes the connection. Publish failures are logged and the loop keeps
// going.
func (p *Publisher) Run(ctx context.Context, bus *eventbus.TypedBus[events.StatusEvent]) {
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)
	defer p.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if err := p.PublishStatus(ev.Status); err != nil {
				p.log.Errorf("status publish (%s): %v", ev.Trigger, err)
				continue
			}
			p.log.Infof("published %s status %s", ev.Trigger, ev.Status.NowStatus)
		}
	}
}
