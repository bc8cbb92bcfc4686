package metrics

import "github.com/infodancer/osmtpd-filter/filter"

// Multi fans one Collector call out to several destinations, so an
// extension can export to Prometheus and log a debug trail at the same
// time without the Engine knowing about either.
type Multi struct {
	collectors []filter.Collector
}

// NewMulti builds a Multi over the given collectors, in call order.
func NewMulti(collectors ...filter.Collector) *Multi {
	return &Multi{collectors: collectors}
}

func (m *Multi) SessionOpened() {
	for _, c := range m.collectors {
		c.SessionOpened()
	}
}

func (m *Multi) SessionClosed() {
	for _, c := range m.collectors {
		c.SessionClosed()
	}
}

func (m *Multi) EventDispatched(phase filter.Phase) {
	for _, c := range m.collectors {
		c.EventDispatched(phase)
	}
}

func (m *Multi) VerdictEmitted(kind string) {
	for _, c := range m.collectors {
		c.VerdictEmitted(kind)
	}
}

func (m *Multi) FatalExit() {
	for _, c := range m.collectors {
		c.FatalExit()
	}
}
