package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/roffe/hkgcan/pkg/canadapter"
	"github.com/roffe/hkgcan/pkg/config"
	"github.com/roffe/hkgcan/pkg/debug"
	"github.com/roffe/hkgcan/pkg/eventbus"
	"github.com/roffe/hkgcan/pkg/hyundaican"
	"github.com/roffe/hkgcan/pkg/radar"
	"github.com/roffe/hkgcan/pkg/uds"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile | log.Lmicroseconds)
}

var (
	configFile  string
	adapterName string
	portName    string
	baudrate    int
	addrStr     string
	bus         int
	timeout     time.Duration
	retries     int
	keepAlive   bool
	list        bool
	debugMode   bool
)

func init() {
	flag.StringVar(&configFile, "config", "hkgcan.yaml", "config file")
	flag.StringVar(&adapterName, "adapter", "", "CAN adapter name")
	flag.StringVar(&portName, "port", "", "serial port for the adapter")
	flag.IntVar(&baudrate, "baudrate", 0, "serial port speed")
	flag.StringVar(&addrStr, "addr", "", "radar address (default 0x7D0)")
	flag.IntVar(&bus, "bus", 0, "bus the radar is on (default 2)")
	flag.DurationVar(&timeout, "timeout", 0, "response timeout (default 100ms)")
	flag.IntVar(&retries, "retry", 0, "number of attempts (default 5)")
	flag.BoolVar(&keepAlive, "keepalive", false, "send tester present until interrupted")
	flag.BoolVar(&list, "list", false, "list adapters and serial ports")
	flag.BoolVar(&debugMode, "debug", false, "write frame traces to debug.log")
}

func main() {
	flag.Parse()
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup happens first.
func run() int {
	if list {
		printAdapters()
		return 0
	}

	cfg, err := loadConfig()
	if err != nil {
		pterm.Error.Println(err)
		return 1
	}
	if cfg.Debug {
		debug.SetPath(cfg.DebugFile)
		defer debug.Close()
	}
	if cfg.Platform != "" {
		p := hyundaican.Platform(cfg.Platform)
		pterm.Info.Printf("platform %s, LKAS11 checksum %s\n", p, hyundaican.ChecksumFor(p))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ok, err := disable(ctx, cfg)
	if err != nil {
		pterm.Error.Println(err)
		return 1
	}
	if !ok {
		return 1
	}
	return 0
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "adapter":
			cfg.Adapter.Name = adapterName
		case "port":
			cfg.Adapter.Port = portName
		case "baudrate":
			cfg.Adapter.PortBaudrate = baudrate
		case "addr":
			addr, err := strconv.ParseUint(addrStr, 0, 32)
			if err != nil {
				flagErr = fmt.Errorf("invalid addr %q: %w", addrStr, err)
				return
			}
			cfg.Radar.Addr = uint32(addr)
		case "bus":
			cfg.Radar.Bus = bus
			cfg.Adapter.Bus = bus
		case "timeout":
			cfg.Radar.Timeout = timeout
		case "retry":
			cfg.Radar.Retries = retries
		case "debug":
			cfg.Debug = debugMode
		}
	})
	if flagErr != nil {
		return nil, flagErr
	}
	return cfg, cfg.Validate()
}

func disable(ctx context.Context, cfg *config.Config) (bool, error) {
	eb := eventbus.New(nil)
	defer eb.Close()

	cl, err := canadapter.Open(ctx, canadapter.Config{
		Name:         cfg.Adapter.Name,
		Port:         cfg.Adapter.Port,
		PortBaudrate: cfg.Adapter.PortBaudrate,
		CANRate:      cfg.Adapter.CANRate,
		Bus:          cfg.Adapter.Bus,
		Debug:        cfg.Debug,
		OnMessage: func(msg string) {
			if cfg.Debug {
				debug.Log(msg)
			}
			pterm.Debug.Println(msg)
		},
	}, eb)
	if err != nil {
		return false, err
	}
	defer cl.Close()

	q := uds.NewIsoTpQuery(uds.IsoTpConfig{
		Ports: map[int]uds.Port{cl.Bus(): cl.Port()},
		Debug: cfg.Debug,
		OnMessage: func(msg string) {
			pterm.Warning.Println(msg)
		},
	})

	addr := uds.Addr(cfg.Radar.Addr)
	out := radar.Disable(ctx, q, addr, radar.Options{
		Bus:     cfg.Radar.Bus,
		Timeout: cfg.Radar.Timeout,
		Retries: cfg.Radar.Retries,
		Debug:   cfg.Debug,
		OnMessage: func(msg string) {
			if cfg.Debug {
				debug.Log(msg)
			}
			pterm.Info.Println(msg)
		},
		OnWarning: func(msg string) {
			if cfg.Debug {
				debug.Log("warning: " + msg)
			}
			pterm.Warning.Println(msg)
		},
	})
	if !out.Success {
		pterm.Error.Println(out)
		return false, nil
	}
	pterm.Success.Println(out)

	if !keepAlive {
		return true, nil
	}
	pterm.Info.Printf("sending tester present to %s every %s, ctrl+c to stop\n", addr, cfg.Radar.KeepAlive)
	if err := radar.KeepAlive(ctx, q, addr, cfg.Radar.Bus, cfg.Radar.KeepAlive); err != nil && !errors.Is(err, context.Canceled) {
		return true, err
	}
	return true, nil
}

func printAdapters() {
	data := pterm.TableData{{"Adapter"}}
	for _, name := range canadapter.ListAdapters() {
		data = append(data, []string{name})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		log.Println(err)
	}
	speeds := make([]string, 0, len(canadapter.PortSpeeds))
	for _, sp := range canadapter.PortSpeeds {
		speeds = append(speeds, strconv.Itoa(sp))
	}
	pterm.Info.Println("port speeds: " + strings.Join(speeds, ", "))
	ports := canadapter.ListPorts()
	if len(ports) == 0 {
		pterm.Info.Println("no USB serial ports found")
		return
	}
	pterm.Info.Println("serial ports:")
	for _, p := range ports {
		pterm.Println("  " + p)
	}
}
