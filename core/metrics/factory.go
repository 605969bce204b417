package metrics

import "github.com/kilianp07/svitlo/core/factory"

var sinkRegistry = factory.NewRegistry[StatusSink]()

func init() {
	_ = RegisterStatusSink("nop", func(map[string]any) (StatusSink, error) { return NopSink{}, nil })
}

// RegisterStatusSink adds a sink factory identified by name.
func RegisterStatusSink(name string, f factory.Factory[StatusSink]) error {
	return sinkRegistry.Register(name, f)
}

// SinkTypes lists the registered sink types.
func SinkTypes() []string { return sinkRegistry.Names() }

// NewStatusSink builds the configured sinks. No configuration yields a
// NopSink; several yield a MultiSink.
func NewStatusSink(cfgs []factory.ModuleConfig) (StatusSink, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	if len(cfgs) == 1 {
		return sinkRegistry.Create(cfgs[0])
	}
	sinks := make([]StatusSink, len(cfgs))
	for i, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			return nil, err
		}
		sinks[i] = s
	}
	return NewMultiSink(sinks...), nil
}
