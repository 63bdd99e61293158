package canadapter

import (
	"context"
	"sync"

	"github.com/roffe/hkgcan/pkg/dbc"
	"github.com/roffe/hkgcan/pkg/eventbus"
)

// Port sends through an adapter and receives from the event bus the
// adapter publishes to.
type Port struct {
	bus  int
	send func(id uint32, data []byte) error
	eb   *eventbus.Controller
}

func NewPort(bus int, send func(id uint32, data []byte) error, eb *eventbus.Controller) *Port {
	return &Port{bus: bus, send: send, eb: eb}
}

func (p *Port) Bus() int {
	return p.bus
}

func (p *Port) SendFrame(id uint32, data []byte) error {
	return p.send(id, data)
}

func (p *Port) Subscribe(ctx context.Context, ids ...uint32) (<-chan dbc.Frame, func()) {
	ch := p.eb.Subscribe(ids...)
	stop := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(stop)
			p.eb.Unsubscribe(ch)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-stop:
		}
	}()
	return ch, cancel
}
