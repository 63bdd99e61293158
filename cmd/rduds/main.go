package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/roffe/hkgcan/pkg/canadapter"
	"github.com/roffe/hkgcan/pkg/config"
	"github.com/roffe/hkgcan/pkg/debug"
	"github.com/roffe/hkgcan/pkg/eventbus"
	"github.com/roffe/hkgcan/pkg/radar"
	"github.com/roffe/hkgcan/pkg/uds"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile | log.Lmicroseconds)
}

var (
	configFile  = flag.String("config", "hkgcan.yaml", "config file")
	adapterName = flag.String("adapter", "", "CAN adapter name, overrides config")
	bus         = flag.Int("bus", 0, "bus the radar is on")
	timeout     = flag.Duration("timeout", 100*time.Millisecond, "response timeout per pair")
	count       = flag.Int("count", int(radar.DefaultAddr), "number of control/message type pairs to try")
	debugMode   = flag.Bool("debug", false, "write frame traces to the debug file")
)

func main() {
	flag.Parse()
	os.Exit(exitCode())
}

func exitCode() int {
	cfg, err := config.Load(*configFile)
	if err != nil {
		pterm.Error.Println(err)
		return 1
	}
	if *adapterName != "" {
		cfg.Adapter.Name = *adapterName
	}
	if *bus != 0 {
		cfg.Radar.Bus = *bus
		cfg.Adapter.Bus = *bus
	}
	if *debugMode {
		cfg.Debug = true
	}
	if cfg.Debug {
		debug.SetPath(cfg.DebugFile)
		defer debug.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *timeout, *count); err != nil {
		pterm.Error.Println(err)
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg *config.Config, timeout time.Duration, count int) error {
	eb := eventbus.New(nil)
	defer eb.Close()

	cl, err := canadapter.Open(ctx, canadapter.Config{
		Name:         cfg.Adapter.Name,
		Port:         cfg.Adapter.Port,
		PortBaudrate: cfg.Adapter.PortBaudrate,
		CANRate:      cfg.Adapter.CANRate,
		Bus:          cfg.Adapter.Bus,
		Debug:        cfg.Debug,
	}, eb)
	if err != nil {
		return err
	}
	defer cl.Close()

	q := uds.NewIsoTpQuery(uds.IsoTpConfig{
		Ports: map[int]uds.Port{cl.Bus(): cl.Port()},
		Debug: cfg.Debug,
		// Rejected pairs are the common case.
		OnMessage: func(string) {},
	})

	addr := uds.Addr(cfg.Radar.Addr)
	opts := radar.Options{
		Bus:       cfg.Radar.Bus,
		Timeout:   cfg.Radar.Timeout,
		Retries:   cfg.Radar.Retries,
		Debug:     cfg.Debug,
		OnMessage: func(msg string) { pterm.Info.Println(msg) },
		OnWarning: func(msg string) {
			if cfg.Debug {
				debug.Log("warning: " + msg)
			}
			pterm.Warning.Println(msg)
		},
	}
	if out := radar.Disable(ctx, q, addr, opts); !out.Success {
		return errors.New(out.String())
	}

	pterm.Info.Println("querying addresses ...")
	pb, err := pterm.DefaultProgressbar.WithTotal(count).WithTitle("communication control").Start()
	if err != nil {
		return err
	}
	opts.Timeout = timeout
	opts.OnMessage = func(msg string) {
		pterm.Success.Println(msg)
	}
	accepted, err := radar.Sweep(ctx, q, addr, opts, count, func(p radar.ControlPair) {
		pb.UpdateTitle(p.String())
		pb.Increment()
	})
	pb.Stop()
	if err != nil {
		return err
	}

	pterm.Info.Printf("%d pair(s) accepted by %s\n", len(accepted), addr)
	for _, p := range accepted {
		pterm.Println("  " + p.String())
	}
	return nil
}
