package uds

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/roffe/hkgcan/pkg/dbc"
	"github.com/roffe/hkgcan/pkg/debug"
	"golang.org/x/sync/errgroup"
)

// Port is one CAN bus as seen by the query transport.
type Port interface {
	SendFrame(id uint32, data []byte) error
	// Subscribe delivers frames with the given ids until the returned
	// func is called or ctx is done.
	Subscribe(ctx context.Context, ids ...uint32) (<-chan dbc.Frame, func())
}

type IsoTpConfig struct {
	Ports     map[int]Port
	Debug     bool
	OnMessage func(string)
}

// IsoTpQuery queries ECUs over single frame ISO-TP with physical
// addressing, replies are expected on the request id + 8.
type IsoTpQuery struct {
	cfg IsoTpConfig
}

func NewIsoTpQuery(cfg IsoTpConfig) *IsoTpQuery {
	if cfg.OnMessage == nil {
		cfg.OnMessage = func(msg string) {
			log.Println(msg)
		}
	}
	if cfg.Ports == nil {
		cfg.Ports = make(map[int]Port)
	}
	return &IsoTpQuery{cfg: cfg}
}

func (t *IsoTpQuery) port(bus int) (Port, error) {
	p, ok := t.cfg.Ports[bus]
	if !ok {
		return nil, fmt.Errorf("%w %d", ErrNoClient, bus)
	}
	return p, nil
}

// Send writes a raw frame on bus.
func (t *IsoTpQuery) Send(bus int, id uint32, data []byte) error {
	p, err := t.port(bus)
	if err != nil {
		return err
	}
	if t.cfg.Debug {
		debug.Frame("TX", dbc.NewFrame(bus, id, data))
	}
	return p.SendFrame(id, data)
}

func (t *IsoTpQuery) Query(ctx context.Context, q Query) (Result, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	p, err := t.port(q.Bus)
	if err != nil {
		return nil, err
	}

	if q.Timeout <= 0 {
		for _, addr := range q.Addrs {
			for _, req := range q.Requests {
				if err := t.Send(q.Bus, uint32(addr), singleFrame(req)); err != nil {
					return nil, fmt.Errorf("send %s: %w", addr, err)
				}
			}
		}
		return Result{}, nil
	}

	var mu sync.Mutex
	res := make(Result)
	g, gctx := errgroup.WithContext(ctx)
	for _, addr := range q.Addrs {
		g.Go(func() error {
			dat, ok, err := t.exchange(gctx, p, q, addr)
			if err != nil {
				return err
			}
			if ok {
				mu.Lock()
				res[addr] = dat
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

func (t *IsoTpQuery) exchange(ctx context.Context, p Port, q Query, addr Addr) ([]byte, bool, error) {
	msgs, unsubscribe := p.Subscribe(ctx, addr.ResponseID())
	defer unsubscribe()

	var last []byte
	for i, req := range q.Requests {
		if err := t.Send(q.Bus, uint32(addr), singleFrame(req)); err != nil {
			return nil, false, fmt.Errorf("send %s: %w", addr, err)
		}
		dat, ok := t.await(ctx, msgs, addr, q.Responses[i], q.Timeout)
		if !ok {
			return nil, false, nil
		}
		last = dat
	}
	return last, true, nil
}

func (t *IsoTpQuery) await(ctx context.Context, msgs <-chan dbc.Frame, addr Addr, prefix []byte, timeout time.Duration) ([]byte, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, false
		case <-timer.C:
			return nil, false
		case f, ok := <-msgs:
			if !ok {
				return nil, false
			}
			if t.cfg.Debug {
				debug.Frame("RX", f)
			}
			dat, err := parseSingleFrame(f.Bytes())
			if err != nil {
				if t.cfg.Debug {
					t.cfg.OnMessage(fmt.Sprintf("%s: %v", addr, err))
				}
				continue
			}
			if err := CheckNegative(dat); err != nil {
				t.cfg.OnMessage(fmt.Sprintf("%s: %v", addr, err))
				continue
			}
			if bytes.HasPrefix(dat, prefix) {
				return dat, true
			}
		}
	}
}

// singleFrame prefixes the PCI length byte and pads to 8 bytes.
func singleFrame(payload []byte) []byte {
	out := make([]byte, 8)
	out[0] = byte(len(payload))
	copy(out[1:], payload)
	return out
}

func parseSingleFrame(dat []byte) ([]byte, error) {
	if len(dat) == 0 {
		return nil, fmt.Errorf("empty frame")
	}
	if dat[0]>>4 != 0 {
		return nil, fmt.Errorf("not a single frame: PCI 0x%02X", dat[0])
	}
	n := int(dat[0] & 0x0F)
	if n == 0 || n > len(dat)-1 {
		return nil, fmt.Errorf("bad single frame length %d", n)
	}
	return dat[1 : 1+n], nil
}
