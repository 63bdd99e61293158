// Package canadapter opens a gocan adapter and exposes it as a diagnostic
// port. Every received frame is published on an event bus.
package canadapter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/roffe/gocan"
	"github.com/roffe/gocan/adapter"
	"github.com/roffe/hkgcan/pkg/dbc"
	"github.com/roffe/hkgcan/pkg/debug"
	"github.com/roffe/hkgcan/pkg/eventbus"
	"go.bug.st/serial/enumerator"
)

// PortSpeeds are the serial speeds accepted for serial adapters.
var PortSpeeds = []int{9600, 19200, 38400, 57600, 115200, 230400, 460800, 921600, 1000000, 2000000, 3000000}

type Config struct {
	Name         string
	Port         string
	PortBaudrate int
	CANRate      float64
	// Filter limits the ids the adapter passes up, empty passes all.
	Filter []uint32
	// Bus tags received frames and selects this adapter in queries.
	Bus   int
	Debug bool

	OnMessage func(string)
}

func (cfg *Config) validate() error {
	if cfg.Name == "" {
		return errors.New("no adapter selected")
	}
	if cfg.PortBaudrate != 0 && !slices.Contains(PortSpeeds, cfg.PortBaudrate) {
		return fmt.Errorf("unsupported port speed %d", cfg.PortBaudrate)
	}
	info, found := adapter.GetAdapterMap()[cfg.Name]
	if !found {
		return fmt.Errorf("unknown adapter %q", cfg.Name)
	}
	if info.RequiresSerialPort {
		if cfg.Port == "" {
			return errors.New("no port selected")
		}
		if cfg.PortBaudrate == 0 {
			return errors.New("no speed selected")
		}
	}
	return nil
}

// ListAdapters returns the names of the adapters gocan was built with.
func ListAdapters() []string {
	return adapter.List()
}

// ListPorts returns the USB serial ports present.
func ListPorts() []string {
	var portsList []string
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return []string{}
	}
	for _, port := range ports {
		if port.IsUSB {
			portsList = append(portsList, port.Name)
		}
	}
	return portsList
}

type Client struct {
	cl  *gocan.Client
	eb  *eventbus.Controller
	cfg Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Open connects to the adapter and starts forwarding received frames to eb.
func Open(ctx context.Context, cfg Config, eb *eventbus.Controller) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.OnMessage == nil {
		cfg.OnMessage = func(msg string) {
			log.Println(msg)
		}
	}
	dev, err := adapter.New(cfg.Name, &gocan.AdapterConfig{
		Port:         cfg.Port,
		PortBaudrate: cfg.PortBaudrate,
		CANRate:      cfg.CANRate,
		CANFilter:    cfg.Filter,
		OnMessage:    cfg.OnMessage,
		OnError: func(err error) {
			cfg.OnMessage(err.Error())
		},
		Debug: cfg.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create adapter: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	cl, err := gocan.New(ctx, dev)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	c := &Client{cl: cl, eb: eb, cfg: cfg, cancel: cancel}
	rx := cl.SubscribeChan(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := forward(ctx, rx, cfg.Bus, eb, cfg.Debug); err != nil && !errors.Is(err, context.Canceled) {
			cfg.OnMessage(err.Error())
		}
	}()
	return c, nil
}

// Port returns the adapter as a query port on its bus.
func (c *Client) Port() *Port {
	return NewPort(c.cfg.Bus, func(id uint32, data []byte) error {
		return c.cl.SendFrame(id, data, gocan.Outgoing)
	}, c.eb)
}

func (c *Client) Bus() int {
	return c.cfg.Bus
}

func (c *Client) Close() error {
	c.cancel()
	err := c.cl.Close()
	c.wg.Wait()
	return err
}

type canMessage interface {
	Identifier() uint32
	Data() []byte
}

func forward[M canMessage](ctx context.Context, rx <-chan M, bus int, eb *eventbus.Controller, trace bool) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-rx:
			if !ok {
				return errors.New("adapter receive channel closed")
			}
			f := dbc.NewFrame(bus, msg.Identifier(), msg.Data())
			if trace {
				debug.Frame("RX", f)
			}
			if err := eb.Publish(f); err != nil {
				if errors.Is(err, eventbus.ErrClosed) {
					return err
				}
				log.Println(err)
			}
		}
	}
}
