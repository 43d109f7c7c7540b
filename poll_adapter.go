package canopy

import (
	"time"

	"github.com/framegrace/canopy/poll"
)

// pollerAdapter instantiates poll.Poller over NodeID, keeping the
// generic poll package decoupled from this package's concrete id type.
type pollerAdapter struct {
	p *poll.Poller[NodeID]
}

func newPollerAdapter() *pollerAdapter {
	return &pollerAdapter{p: poll.New[NodeID]()}
}

func (a *pollerAdapter) due() <-chan []NodeID { return a.p.Due() }

func (a *pollerAdapter) schedule(id NodeID, d time.Duration) { a.p.Schedule(id, d) }

func (a *pollerAdapter) stop() { a.p.Stop() }
