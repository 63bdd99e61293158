// Package eventbus fans received CAN frames out to subscribers by
// arbitration id and keeps the latest frame per id.
package eventbus

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/roffe/hkgcan/pkg/dbc"
)

type Config struct {
	IncomingBuffer    int
	SubscribeBuffer   int
	UnsubscribeBuffer int
	ChannelBuffer     int
	// CacheTTL is how long the last frame of an id is kept.
	CacheTTL time.Duration
}

var DefaultConfig = &Config{
	IncomingBuffer:    1000,
	SubscribeBuffer:   100,
	UnsubscribeBuffer: 100,
	ChannelBuffer:     50,
	CacheTTL:          time.Second,
}

var ErrClosed = errors.New("eventbus closed")

type Controller struct {
	subs     sync.Map // uint32 -> []chan dbc.Frame
	incoming chan dbc.Frame
	sub      chan newSub
	unsub    chan unsubReq
	cache    *ttlcache.Cache[uint32, dbc.Frame]

	channelBuffer int

	closeOnce sync.Once
	quit      chan struct{}
	done      chan struct{}

	onMessage func(dbc.Frame)
}

// newSub and unsubReq are acknowledged by closing ack once run has applied
// them.
type newSub struct {
	ids  []uint32
	resp chan dbc.Frame
	ack  chan struct{}
}

type unsubReq struct {
	resp chan dbc.Frame
	ack  chan struct{}
}

func New(cfg *Config) *Controller {
	if cfg == nil {
		cfg = DefaultConfig
	}
	cache := ttlcache.New[uint32, dbc.Frame](
		ttlcache.WithTTL[uint32, dbc.Frame](cfg.CacheTTL),
		ttlcache.WithDisableTouchOnHit[uint32, dbc.Frame](),
	)
	c := &Controller{
		incoming:      make(chan dbc.Frame, cfg.IncomingBuffer),
		sub:           make(chan newSub, cfg.SubscribeBuffer),
		unsub:         make(chan unsubReq, cfg.UnsubscribeBuffer),
		cache:         cache,
		channelBuffer: cfg.ChannelBuffer,
		quit:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	go c.run()
	return c
}

// SetOnMessage registers a hook that sees every published frame. It must be
// set before the first Publish and must not call Subscribe or Unsubscribe.
func (e *Controller) SetOnMessage(f func(dbc.Frame)) {
	e.onMessage = f
}

func (e *Controller) run() {
	defer close(e.done)
	for {
		select {
		case <-e.quit:
			e.cleanup()
			return
		case f := <-e.incoming:
			if fn := e.onMessage; fn != nil {
				fn(f)
			}
			e.handleMessage(f)
		case sub := <-e.sub:
			e.handleSubscription(sub)
			close(sub.ack)
		case unsub := <-e.unsub:
			e.handleUnsubscription(unsub.resp)
			close(unsub.ack)
		}
	}
}

func (e *Controller) handleMessage(f dbc.Frame) {
	e.cache.Set(f.ID, f, ttlcache.DefaultTTL)
	if value, ok := e.subs.Load(f.ID); ok {
		for _, sub := range value.([]chan dbc.Frame) {
			select {
			case sub <- f:
			default:
				log.Printf("channel full for 0x%03X", f.ID)
			}
		}
	}
}

func (e *Controller) handleSubscription(sub newSub) {
	for _, id := range sub.ids {
		var subs []chan dbc.Frame
		if value, ok := e.subs.Load(id); ok {
			subs = value.([]chan dbc.Frame)
		}
		e.subs.Store(id, append(subs, sub.resp))
	}
}

func (e *Controller) handleUnsubscription(unsub chan dbc.Frame) {
	var found bool
	e.subs.Range(func(key, value any) bool {
		subs := value.([]chan dbc.Frame)
		for i, sub := range subs {
			if sub != unsub {
				continue
			}
			found = true
			newSubs := append(subs[:i:i], subs[i+1:]...)
			if len(newSubs) == 0 {
				e.subs.Delete(key)
			} else {
				e.subs.Store(key, newSubs)
			}
			break
		}
		return true
	})
	if found {
		close(unsub)
	}
}

// Close stops the bus and closes every subscriber channel.
func (e *Controller) Close() {
	e.closeOnce.Do(func() {
		close(e.quit)
	})
	<-e.done
}

func (e *Controller) cleanup() {
	e.cache.DeleteAll()
	closed := make(map[chan dbc.Frame]bool)
	e.subs.Range(func(key, value any) bool {
		for _, sub := range value.([]chan dbc.Frame) {
			if !closed[sub] {
				close(sub)
				closed[sub] = true
			}
		}
		e.subs.Delete(key)
		return true
	})
}

// Publish queues f for delivery. It never blocks.
func (e *Controller) Publish(f dbc.Frame) error {
	select {
	case <-e.quit:
		return ErrClosed
	default:
	}
	select {
	case e.incoming <- f:
		return nil
	default:
		return fmt.Errorf("publish 0x%03X: channel full", f.ID)
	}
}

// SubscribeFunc calls fn for every frame with one of ids until the returned
// cancel func is called.
func (e *Controller) SubscribeFunc(fn func(dbc.Frame), ids ...uint32) (cancel func()) {
	respChan := e.Subscribe(ids...)
	go func() {
		for f := range respChan {
			fn(f)
		}
	}()
	return func() {
		e.Unsubscribe(respChan)
	}
}

// Subscribe returns a channel receiving frames with one of ids. Every frame
// published after Subscribe returns is delivered. The channel is closed by
// Unsubscribe or Close.
func (e *Controller) Subscribe(ids ...uint32) chan dbc.Frame {
	respChan := make(chan dbc.Frame, e.channelBuffer)
	select {
	case <-e.quit:
		close(respChan)
		return respChan
	default:
	}
	ack := make(chan struct{})
	select {
	case e.sub <- newSub{ids: ids, resp: respChan, ack: ack}:
	case <-e.quit:
		close(respChan)
		return respChan
	}
	if !e.wait(ack) {
		// run exited before registering, nobody else will close it.
		close(respChan)
	}
	return respChan
}

// Unsubscribe removes channel and closes it before returning.
func (e *Controller) Unsubscribe(channel chan dbc.Frame) {
	ack := make(chan struct{})
	select {
	case e.unsub <- unsubReq{resp: channel, ack: ack}:
	case <-e.quit:
		return
	}
	e.wait(ack)
}

// wait blocks until ack is closed or run has exited. It reports whether
// the request was applied.
func (e *Controller) wait(ack chan struct{}) bool {
	select {
	case <-ack:
		return true
	case <-e.done:
		select {
		case <-ack:
			return true
		default:
			return false
		}
	}
}

// Last returns the newest frame seen for id within the cache TTL.
func (e *Controller) Last(id uint32) (dbc.Frame, bool) {
	item := e.cache.Get(id)
	if item == nil {
		return dbc.Frame{}, false
	}
	return item.Value(), true
}

// Frames returns the cached frame of every id.
func (e *Controller) Frames() map[uint32]dbc.Frame {
	out := make(map[uint32]dbc.Frame)
	for k, v := range e.cache.Items() {
		out[k] = v.Value()
	}
	return out
}
